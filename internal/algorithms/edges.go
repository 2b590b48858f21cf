// Edge detectors
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Canny produces a binary edge map with hysteresis thresholds Low and High.
type Canny struct {
	Low  float32
	High float32
}

func NewCanny(low, high float32) *Canny {
	return &Canny{Low: low, High: high}
}

func (c *Canny) Name() string {
	return "canny"
}

func (c *Canny) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1); err != nil {
		return gocv.NewMat(), err
	}

	edges := gocv.NewMat()
	if err := gocv.Canny(input, &edges, c.Low, c.High); err != nil {
		edges.Close()
		return gocv.NewMat(), fmt.Errorf("canny: %w", err)
	}
	return edges, nil
}

func (c *Canny) Validate() error {
	if c.Low < 0 || c.High < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	if c.Low > c.High {
		return fmt.Errorf("low threshold %.0f exceeds high threshold %.0f", c.Low, c.High)
	}
	return nil
}

// AbsLaplacian computes the Laplacian in double precision and scales its
// magnitude back to 8 bits. Chain it after a GaussianFilter for a
// Laplacian-of-Gaussian response.
type AbsLaplacian struct {
	KernelSize int
}

func NewAbsLaplacian(kernelSize int) *AbsLaplacian {
	return &AbsLaplacian{KernelSize: kernelSize}
}

func (l *AbsLaplacian) Name() string {
	return "laplacian"
}

func (l *AbsLaplacian) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1); err != nil {
		return gocv.NewMat(), err
	}

	laplacian := gocv.NewMat()
	defer laplacian.Close()
	if err := gocv.Laplacian(input, &laplacian, gocv.MatTypeCV64F, oddKernel(l.KernelSize), 1, 0, gocv.BorderDefault); err != nil {
		return gocv.NewMat(), fmt.Errorf("laplacian: %w", err)
	}

	output := gocv.NewMat()
	if err := gocv.ConvertScaleAbs(laplacian, &output, 1, 0); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("laplacian magnitude: %w", err)
	}
	return output, nil
}

func (l *AbsLaplacian) Validate() error {
	if l.KernelSize < 1 || l.KernelSize > 31 {
		return fmt.Errorf("kernel_size must be between 1 and 31")
	}
	return nil
}
