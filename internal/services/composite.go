package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"
	"time"

	"before-after/internal/geometry"
	"before-after/internal/logger"
	"before-after/internal/models"
	"before-after/internal/opencv/conversion"
	"before-after/internal/opencv/memory"
	"before-after/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ErrNotReady is returned when a composite is requested before both images
// are loaded or before the frame has a usable size.
var ErrNotReady = errors.New("comparison not ready")

// CompositeService renders the before/after pair for each diff mode
type CompositeService struct {
	memoryManager *memory.Manager
	repository    *models.ImageRepository
	logger        logger.Logger
	workerPool    chan struct{}

	mu    sync.Mutex
	stats RenderStats
}

// RenderStats summarises completed renders
type RenderStats struct {
	TotalRendered int64
	TotalTime     time.Duration
}

// AverageTime is the mean duration of a render
func (s RenderStats) AverageTime() time.Duration {
	if s.TotalRendered == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.TotalRendered)
}

func NewCompositeService(memMgr *memory.Manager, repo *models.ImageRepository, log logger.Logger) *CompositeService {
	workers := make(chan struct{}, runtime.NumCPU())
	for i := 0; i < cap(workers); i++ {
		workers <- struct{}{}
	}

	return &CompositeService{
		memoryManager: memMgr,
		repository:    repo,
		logger:        log,
		workerPool:    workers,
	}
}

// Render produces the composite for mode at the pixel size of box. value is
// the reveal fraction for Swipe and the after-image weight for Fade. SideBySide
// returns both images next to each other, so its result is twice as wide.
func (cs *CompositeService) Render(ctx context.Context, mode models.DiffMode, value float64, box geometry.Size) (image.Image, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("render: unknown mode %d", int(mode))
	}

	width, height := box.Pixels()
	if width == 0 || height == 0 {
		return nil, ErrNotReady
	}
	if _, _, ok := cs.repository.Both(); !ok {
		return nil, ErrNotReady
	}

	select {
	case <-cs.workerPool:
		defer func() { cs.workerPool <- struct{}{} }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	start := time.Now()

	var b, a *safe.Mat
	err := cs.repository.Read(func(before, after *models.ImageData) error {
		// A slot may have been cleared while waiting for a worker.
		if before == nil || after == nil {
			return ErrNotReady
		}
		var err error
		if b, err = cs.resize(before.Mat, width, height); err != nil {
			return fmt.Errorf("render %s: before: %w", mode, err)
		}
		if a, err = cs.resize(after.Mat, width, height); err != nil {
			b.Close()
			return fmt.Errorf("render %s: after: %w", mode, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer b.Close()
	defer a.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dstWidth := width
	if mode == models.SideBySide {
		dstWidth = width * 2
	}
	dst, err := cs.memoryManager.GetMat(height, dstWidth, gocv.MatTypeCV8UC3, "composite_"+mode.String())
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", mode, err)
	}
	defer cs.memoryManager.ReleaseMat(dst)

	if err := Compose(mode, value, b, a, dst); err != nil {
		return nil, fmt.Errorf("render %s: %w", mode, err)
	}

	img, err := conversion.MatToImage(dst)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", mode, err)
	}

	elapsed := time.Since(start)
	cs.mu.Lock()
	cs.stats.TotalRendered++
	cs.stats.TotalTime += elapsed
	cs.mu.Unlock()

	cs.logger.Debug("composite rendered", map[string]interface{}{
		"mode":     mode.String(),
		"value":    value,
		"width":    dstWidth,
		"height":   height,
		"duration": elapsed.String(),
	})
	return img, nil
}

func (cs *CompositeService) resize(src *safe.Mat, width, height int) (*safe.Mat, error) {
	return conversion.ResizeMat(src, width, height, conversion.InterpolationFor(src, width, height), cs.memoryManager)
}

// Compose writes the mode composite of before and after into dst. before and
// after must have identical shape; dst must match them, or be twice as wide
// for SideBySide.
func Compose(mode models.DiffMode, value float64, before, after, dst *safe.Mat) error {
	if err := safe.ValidatePair(before, after, mode.String()); err != nil {
		return err
	}
	if err := safe.ValidateMatForOperation(dst, mode.String()); err != nil {
		return err
	}

	value = math.Max(0, math.Min(1, value))

	switch mode {
	case models.SideBySide:
		if dst.Cols() != before.Cols()*2 || dst.Rows() != before.Rows() {
			return fmt.Errorf("side-by-side target is %dx%d, want %dx%d",
				dst.Cols(), dst.Rows(), before.Cols()*2, before.Rows())
		}
		gocv.Hconcat(before.GetMat(), after.GetMat(), dst.MatPtr())
		return nil

	case models.Swipe:
		if err := safe.ValidatePair(before, dst, mode.String()); err != nil {
			return err
		}
		if err := before.CopyRegionTo(dst, image.Rect(0, 0, before.Cols(), before.Rows())); err != nil {
			return err
		}
		split := SwipeSplit(value, before.Cols())
		return after.CopyRegionTo(dst, image.Rect(split, 0, after.Cols(), after.Rows()))

	case models.Fade:
		if err := safe.ValidatePair(before, dst, mode.String()); err != nil {
			return err
		}
		gocv.AddWeighted(before.GetMat(), 1-value, after.GetMat(), value, 0, dst.MatPtr())
		return nil

	case models.Difference:
		if err := safe.ValidatePair(before, dst, mode.String()); err != nil {
			return err
		}
		gocv.AbsDiff(before.GetMat(), after.GetMat(), dst.MatPtr())
		return nil

	default:
		return fmt.Errorf("unknown mode %d", int(mode))
	}
}

// SwipeSplit is the first column that shows the after image
func SwipeSplit(value float64, width int) int {
	split := int(math.Round(value * float64(width)))
	switch {
	case split < 0:
		return 0
	case split > width:
		return width
	default:
		return split
	}
}

// GetRenderStats returns a snapshot of render statistics
func (cs *CompositeService) GetRenderStats() RenderStats {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.stats
}
