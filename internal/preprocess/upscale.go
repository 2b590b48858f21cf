package preprocess

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Upscaler is the super-resolution capability the preprocessor depends on.
// Implementations must be deterministic, keep the aspect ratio and channel
// count, and scale by a factor of at least 1.
type Upscaler interface {
	Upscale(src gocv.Mat) (gocv.Mat, error)
}

// UpscalerFunc adapts a function to the Upscaler interface.
type UpscalerFunc func(src gocv.Mat) (gocv.Mat, error)

func (f UpscalerFunc) Upscale(src gocv.Mat) (gocv.Mat, error) {
	return f(src)
}

// maxUpscaledDimension guards against runaway allocations.
const maxUpscaledDimension = 32768

// ResizeUpscaler is the model-free upscaler: a plain Lanczos4 resize by Factor.
type ResizeUpscaler struct {
	Factor        float64
	Interpolation gocv.InterpolationFlags
}

// NewResizeUpscaler returns a Lanczos4 upscaler with the given factor.
func NewResizeUpscaler(factor float64) *ResizeUpscaler {
	return &ResizeUpscaler{Factor: factor, Interpolation: gocv.InterpolationLanczos4}
}

func (u *ResizeUpscaler) Upscale(src gocv.Mat) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("input matrix is empty")
	}
	if u.Factor < 1 || math.IsInf(u.Factor, 0) || math.IsNaN(u.Factor) {
		return gocv.NewMat(), fmt.Errorf("invalid scale factor: %.3f", u.Factor)
	}

	newWidth := int(math.Round(float64(src.Cols()) * u.Factor))
	newHeight := int(math.Round(float64(src.Rows()) * u.Factor))
	if newWidth > maxUpscaledDimension || newHeight > maxUpscaledDimension {
		return gocv.NewMat(), fmt.Errorf("target dimensions too large: %dx%d (max: %d)", newWidth, newHeight, maxUpscaledDimension)
	}

	if newWidth == src.Cols() && newHeight == src.Rows() {
		return src.Clone(), nil
	}

	result := gocv.NewMat()
	if err := gocv.Resize(src, &result, image.Point{X: newWidth, Y: newHeight}, 0, 0, u.Interpolation); err != nil {
		result.Close()
		return gocv.NewMat(), fmt.Errorf("resize failed: %w", err)
	}
	return result, nil
}
