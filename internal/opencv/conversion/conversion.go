package conversion

import (
	"fmt"
	"image"

	"before-after/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ImageToMat converts a Go image to a 3-channel BGR Mat. Alpha is dropped.
func ImageToMat(img image.Image, tracker safe.MemoryTracker, tag string) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	if err := safe.ValidateDimensions(bounds.Dx(), bounds.Dy(), "image to Mat conversion"); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %w", err)
	}

	return safe.Adopt(mat, tracker, tag)
}

// MatToImage converts a Mat back to a Go image
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	switch src.Channels() {
	case 1, 3, 4:
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}

	mat := src.GetMat()
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert Mat to image: %w", err)
	}
	return img, nil
}

// ResizeMat scales src to exactly newWidth x newHeight
func ResizeMat(src *safe.Mat, newWidth, newHeight int, interpolation gocv.InterpolationFlags, tracker safe.MemoryTracker) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "resize"); err != nil {
		return nil, err
	}
	if err := safe.ValidateDimensions(newWidth, newHeight, "resize"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.Resize(src.GetMat(), &dst, image.Pt(newWidth, newHeight), 0, 0, interpolation)

	resized, err := safe.Adopt(dst, tracker, src.Tag()+"_resized")
	if err != nil {
		return nil, fmt.Errorf("resize to %dx%d: %w", newWidth, newHeight, err)
	}
	return resized, nil
}

// InterpolationFor picks area sampling when shrinking and cubic when growing
func InterpolationFor(src *safe.Mat, newWidth, newHeight int) gocv.InterpolationFlags {
	if newWidth < src.Cols() || newHeight < src.Rows() {
		return gocv.InterpolationArea
	}
	return gocv.InterpolationCubic
}
