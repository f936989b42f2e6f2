package models

import (
	"image"
	"sync"
	"time"

	"before-after/internal/geometry"
	"before-after/internal/opencv/safe"
)

// ImageData represents a decoded image together with its Mat and metadata
type ImageData struct {
	Image    image.Image
	Mat      *safe.Mat
	Width    int
	Height   int
	Channels int
	Format   string
	Source   string
	LoadTime time.Time
	Metadata ImageMetadata
}

// ImageMetadata contains additional information about the image
type ImageMetadata struct {
	FileSize   int64
	ColorSpace string
	BitDepth   int
}

// Size returns the natural pixel dimensions of the image
func (d *ImageData) Size() geometry.Size {
	return geometry.NewSize(d.Width, d.Height)
}

func (d *ImageData) close() {
	if d != nil && d.Mat != nil {
		d.Mat.Close()
	}
}

// ImageRepository holds the before and after images of one comparison
type ImageRepository struct {
	mu     sync.RWMutex
	before *ImageData
	after  *ImageData
}

// NewImageRepository creates an empty image repository
func NewImageRepository() *ImageRepository {
	return &ImageRepository{}
}

// Set stores img in slot, releasing whatever was there before
func (r *ImageRepository) Set(slot Slot, img *ImageData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch slot {
	case Before:
		if r.before != img {
			r.before.close()
		}
		r.before = img
	case After:
		if r.after != img {
			r.after.close()
		}
		r.after = img
	}
}

// Get returns the image in slot, or nil
func (r *ImageRepository) Get(slot Slot) *ImageData {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch slot {
	case Before:
		return r.before
	case After:
		return r.after
	default:
		return nil
	}
}

// Both returns both images; ok is false unless both slots are filled
func (r *ImageRepository) Both() (before, after *ImageData, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.before, r.after, r.before != nil && r.after != nil
}

// Read calls fn with both slots while holding the read lock. The images and
// their Mats stay valid until fn returns.
func (r *ImageRepository) Read(fn func(before, after *ImageData) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(r.before, r.after)
}

// Swap exchanges the before and after images
func (r *ImageRepository) Swap() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.before, r.after = r.after, r.before
}

// Clear removes the image in slot
func (r *ImageRepository) Clear(slot Slot) {
	r.Set(slot, nil)
}

// ClearAll removes both images
func (r *ImageRepository) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.before.close()
	r.after.close()
	r.before = nil
	r.after = nil
}

// ImageStats contains statistics about the image repository
type ImageStats struct {
	LoadedCount      int
	TotalMemoryUsage int64
}

// GetImageStats returns statistics about stored images
func (r *ImageRepository) GetImageStats() ImageStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats ImageStats
	for _, img := range []*ImageData{r.before, r.after} {
		if img == nil {
			continue
		}
		stats.LoadedCount++
		stats.TotalMemoryUsage += int64(img.Width * img.Height * img.Channels)
	}
	return stats
}

// Shutdown releases all resources
func (r *ImageRepository) Shutdown() {
	r.ClearAll()
}
