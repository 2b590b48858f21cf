// Image validation and metadata helpers shared by every stage
package core

import (
	"fmt"

	"gocv.io/x/gocv"
)

// MaxDimension bounds accepted images to keep allocations predictable.
const MaxDimension = 16384

// ImageMetadata describes a Mat for logging and result reporting
type ImageMetadata struct {
	Width    int
	Height   int
	Channels int
	Type     gocv.MatType
}

// MetadataOf returns the metadata of mat. An empty Mat yields the zero value.
func MetadataOf(mat gocv.Mat) ImageMetadata {
	if mat.Empty() {
		return ImageMetadata{}
	}
	return ImageMetadata{
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
		Type:     mat.Type(),
	}
}

// String renders the metadata as WxHxC.
func (m ImageMetadata) String() string {
	return fmt.Sprintf("%dx%dx%d", m.Width, m.Height, m.Channels)
}

// ValidateImage checks the invariants every image in the engine must satisfy:
// non-empty, positive dimensions, 1 or 3 channels.
func ValidateImage(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrInvalidInput, mat.Cols(), mat.Rows())
	}

	channels := mat.Channels()
	if channels != 1 && channels != 3 {
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalidInput, channels)
	}

	if mat.Cols() > MaxDimension || mat.Rows() > MaxDimension {
		return fmt.Errorf("%w: image too large %dx%d (max %d)", ErrInvalidInput, mat.Cols(), mat.Rows(), MaxDimension)
	}

	return nil
}

// ValidateColorImage is ValidateImage restricted to 3-channel input.
func ValidateColorImage(mat gocv.Mat) error {
	if err := ValidateImage(mat); err != nil {
		return err
	}
	if mat.Channels() != 3 {
		return fmt.Errorf("%w: expected 3 channels, got %d", ErrInvalidInput, mat.Channels())
	}
	return nil
}

// EnsureGrayscale returns a single-channel copy of input. The caller owns the
// result and must close it.
func EnsureGrayscale(input gocv.Mat) (gocv.Mat, error) {
	if input.Channels() == 1 {
		return input.Clone(), nil
	}

	gray := gocv.NewMat()
	if err := gocv.CvtColor(input, &gray, gocv.ColorBGRToGray); err != nil {
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("grayscale conversion failed: %w", err)
	}
	return gray, nil
}
