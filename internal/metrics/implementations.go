// Concrete implementations of image statistics
package metrics

import (
	"fmt"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"plate-rectification/internal/core"
)

const (
	MeanBrightnessName = "mean_brightness"
	ContrastName       = "contrast"
	SharpnessName      = "sharpness"
)

// MeanBrightness is the mean grayscale intensity (0..255)
type MeanBrightness struct{}

// NewMeanBrightness creates a new brightness metric
func NewMeanBrightness() *MeanBrightness {
	return &MeanBrightness{}
}

func (m *MeanBrightness) Calculate(img gocv.Mat) (float64, error) {
	values, err := grayValues(img)
	if err != nil {
		return 0, err
	}
	return stat.Mean(values, nil), nil
}

func (m *MeanBrightness) GetName() string {
	return "Mean Brightness"
}

func (m *MeanBrightness) GetDescription() string {
	return "Average grayscale intensity"
}

// Contrast is the standard deviation of grayscale intensity
type Contrast struct{}

// NewContrast creates a new contrast metric
func NewContrast() *Contrast {
	return &Contrast{}
}

func (c *Contrast) Calculate(img gocv.Mat) (float64, error) {
	values, err := grayValues(img)
	if err != nil {
		return 0, err
	}
	_, std := stat.MeanStdDev(values, nil)
	return std, nil
}

func (c *Contrast) GetName() string {
	return "Contrast"
}

func (c *Contrast) GetDescription() string {
	return "Standard deviation of grayscale intensity"
}

// Sharpness is the variance of the Laplacian
type Sharpness struct{}

// NewSharpness creates a new sharpness metric
func NewSharpness() *Sharpness {
	return &Sharpness{}
}

func (s *Sharpness) Calculate(img gocv.Mat) (float64, error) {
	gray, err := checkedGray(img)
	if err != nil {
		return 0, err
	}
	defer gray.Close()

	// Apply Laplacian to detect edges
	laplacian := gocv.NewMat()
	defer laplacian.Close()
	if err := gocv.Laplacian(gray, &laplacian, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault); err != nil {
		return 0, fmt.Errorf("laplacian: %w", err)
	}

	values := make([]float64, 0, laplacian.Rows()*laplacian.Cols())
	for y := 0; y < laplacian.Rows(); y++ {
		for x := 0; x < laplacian.Cols(); x++ {
			values = append(values, laplacian.GetDoubleAt(y, x))
		}
	}
	return stat.Variance(values, nil), nil
}

func (s *Sharpness) GetName() string {
	return "Sharpness"
}

func (s *Sharpness) GetDescription() string {
	return "Variance of the Laplacian"
}

func checkedGray(img gocv.Mat) (gocv.Mat, error) {
	if err := core.ValidateImage(img); err != nil {
		return gocv.NewMat(), err
	}
	if img.Type() != gocv.MatTypeCV8UC1 && img.Type() != gocv.MatTypeCV8UC3 {
		return gocv.NewMat(), fmt.Errorf("expected an 8-bit image")
	}
	return core.EnsureGrayscale(img)
}

func grayValues(img gocv.Mat) ([]float64, error) {
	gray, err := checkedGray(img)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	data := gray.ToBytes()
	values := make([]float64, len(data))
	for i, b := range data {
		values[i] = float64(b)
	}
	return values, nil
}
