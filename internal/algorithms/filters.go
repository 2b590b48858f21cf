// Smoothing filters
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GaussianFilter implements Gaussian blur
type GaussianFilter struct {
	KernelSize int
	Sigma      float64
}

// NewGaussianFilter creates a Gaussian blur with the given kernel size.
// A zero sigma lets OpenCV derive it from the kernel.
func NewGaussianFilter(kernelSize int, sigma float64) *GaussianFilter {
	return &GaussianFilter{KernelSize: kernelSize, Sigma: sigma}
}

func (g *GaussianFilter) Name() string {
	return "gaussian"
}

func (g *GaussianFilter) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input); err != nil {
		return gocv.NewMat(), err
	}

	k := oddKernel(g.KernelSize)
	output := gocv.NewMat()
	if err := gocv.GaussianBlur(input, &output, image.Pt(k, k), g.Sigma, g.Sigma, gocv.BorderDefault); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("gaussian blur: %w", err)
	}
	return output, nil
}

func (g *GaussianFilter) Validate() error {
	if g.KernelSize < 1 || g.KernelSize > 21 {
		return fmt.Errorf("kernel_size must be between 1 and 21")
	}
	if g.Sigma < 0 {
		return fmt.Errorf("sigma must not be negative")
	}
	return nil
}

// BilateralFilter implements edge-preserving smoothing
type BilateralFilter struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// NewBilateralFilter creates a bilateral filter
func NewBilateralFilter(d int, sigmaColor, sigmaSpace float64) *BilateralFilter {
	return &BilateralFilter{Diameter: d, SigmaColor: sigmaColor, SigmaSpace: sigmaSpace}
}

func (b *BilateralFilter) Name() string {
	return "bilateral"
}

func (b *BilateralFilter) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1, 3); err != nil {
		return gocv.NewMat(), err
	}

	output := gocv.NewMat()
	if err := gocv.BilateralFilter(input, &output, b.Diameter, b.SigmaColor, b.SigmaSpace); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("bilateral filter: %w", err)
	}
	return output, nil
}

func (b *BilateralFilter) Validate() error {
	if b.Diameter < 3 || b.Diameter > 15 {
		return fmt.Errorf("d must be between 3 and 15")
	}
	if b.SigmaColor < 10.0 || b.SigmaColor > 200.0 {
		return fmt.Errorf("sigma_color must be between 10.0 and 200.0")
	}
	if b.SigmaSpace < 10.0 || b.SigmaSpace > 200.0 {
		return fmt.Errorf("sigma_space must be between 10.0 and 200.0")
	}
	return nil
}
