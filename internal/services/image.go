package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"before-after/internal/event"
	"before-after/internal/logger"
	"before-after/internal/models"
	"before-after/internal/opencv/conversion"
	"before-after/internal/opencv/memory"

	"github.com/disintegration/imaging"
)

var (
	ErrInvalidSlot = errors.New("invalid image slot")
	ErrNoImage     = errors.New("no image data")
)

// ImageService decodes images into the repository and announces them on the broker
type ImageService struct {
	memoryManager *memory.Manager
	repository    *models.ImageRepository
	broker        *event.Broker
	logger        logger.Logger
}

func NewImageService(memMgr *memory.Manager, repo *models.ImageRepository, broker *event.Broker, log logger.Logger) *ImageService {
	return &ImageService{
		memoryManager: memMgr,
		repository:    repo,
		broker:        broker,
		logger:        log,
	}
}

// LoadFile opens path and loads it into slot
func (is *ImageService) LoadFile(ctx context.Context, slot models.Slot, path string) (*models.ImageData, error) {
	f, err := os.Open(path)
	if err != nil {
		is.publishFailure(slot, err)
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return is.LoadImage(ctx, slot, f, path)
}

// LoadImage decodes r into slot. Orientation stored in EXIF is applied so the
// measured size matches what the user sees. Each call is independent, so
// before and after may be loaded concurrently and finish in any order.
func (is *ImageService) LoadImage(ctx context.Context, slot models.Slot, r io.Reader, source string) (*models.ImageData, error) {
	data, err := is.load(ctx, slot, r, source)
	if err != nil {
		is.publishFailure(slot, err)
		return nil, err
	}

	is.repository.Set(slot, data)
	is.logger.Info("image loaded", map[string]interface{}{
		"slot":   slot.String(),
		"source": filepath.Base(source),
		"width":  data.Width,
		"height": data.Height,
		"format": data.Format,
	})
	if is.broker != nil {
		is.broker.Publish(event.ImageLoaded, slot, data)
	}
	return data, nil
}

func (is *ImageService) load(ctx context.Context, slot models.Slot, r io.Reader, source string) (*models.ImageData, error) {
	if !slot.Valid() {
		return nil, ErrInvalidSlot
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to detect image format: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := conversion.ImageToMat(img, is.memoryManager, slot.String())
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %w", err)
	}

	if err := ctx.Err(); err != nil {
		mat.Close()
		return nil, err
	}

	bounds := img.Bounds()
	return &models.ImageData{
		Image:    img,
		Mat:      mat,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: mat.Channels(),
		Format:   format,
		Source:   source,
		LoadTime: time.Now(),
		Metadata: models.ImageMetadata{
			FileSize:   int64(len(raw)),
			ColorSpace: colorSpace(mat.Channels()),
			BitDepth:   8,
		},
	}, nil
}

func (is *ImageService) publishFailure(slot models.Slot, err error) {
	is.logger.Error("image load failed", err, map[string]interface{}{"slot": slot.String()})
	if is.broker != nil {
		is.broker.Publish(event.ImageFailed, slot, err)
	}
}

// Swap exchanges the before and after images
func (is *ImageService) Swap() {
	is.repository.Swap()
}

// SaveImage encodes img to w in the given format
func (is *ImageService) SaveImage(w io.Writer, img image.Image, format imaging.Format) error {
	if img == nil {
		return ErrNoImage
	}
	if err := imaging.Encode(w, img, format, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// SaveFile encodes img to path, choosing the format from its extension.
// Unknown extensions are written as PNG.
func (is *ImageService) SaveFile(path string, img image.Image) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		format = imaging.PNG
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := is.SaveImage(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func colorSpace(channels int) string {
	switch channels {
	case 1:
		return "grayscale"
	case 3:
		return "BGR"
	case 4:
		return "BGRA"
	default:
		return "unknown"
	}
}

// Cleanup releases resources
func (is *ImageService) Cleanup() {
	if is.repository != nil {
		is.repository.Shutdown()
	}
}
