package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// gemmTransposeSecond is cv::GEMM_2_T.
const gemmTransposeSecond = 2

// Vignette darkens the borders of an 8-bit image by multiplying it with a
// separable Gaussian mask normalized to a peak of 1 at the center.
type Vignette struct {
	Sigma float64
}

func NewVignette(sigma float64) *Vignette {
	return &Vignette{Sigma: sigma}
}

func (v *Vignette) Name() string {
	return "vignette"
}

func (v *Vignette) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1, 3); err != nil {
		return gocv.NewMat(), err
	}
	if input.Type() != gocv.MatTypeCV8UC3 && input.Type() != gocv.MatTypeCV8UC1 {
		return gocv.NewMat(), fmt.Errorf("expected 8-bit input")
	}

	mask, err := VignetteMask(input.Rows(), input.Cols(), v.Sigma)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer mask.Close()

	src := gocv.NewMat()
	defer src.Close()
	if err := input.ConvertTo(&src, gocv.MatTypeCV64F); err != nil {
		return gocv.NewMat(), fmt.Errorf("vignette convert: %w", err)
	}

	weighted := gocv.NewMat()
	defer weighted.Close()
	if src.Channels() == 1 {
		if err := gocv.Multiply(src, mask, &weighted); err != nil {
			return gocv.NewMat(), fmt.Errorf("vignette multiply: %w", err)
		}
	} else {
		channels := gocv.Split(src)
		defer closeAll(channels)
		for i := range channels {
			if err := gocv.Multiply(channels[i], mask, &channels[i]); err != nil {
				return gocv.NewMat(), fmt.Errorf("vignette multiply channel %d: %w", i, err)
			}
		}
		if err := gocv.Merge(channels, &weighted); err != nil {
			return gocv.NewMat(), fmt.Errorf("vignette merge: %w", err)
		}
	}

	output := gocv.NewMat()
	if err := weighted.ConvertTo(&output, gocv.MatTypeCV8U); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("vignette convert back: %w", err)
	}
	return output, nil
}

func (v *Vignette) Validate() error {
	if v.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive")
	}
	return nil
}

// VignetteMask returns a rows x cols CV64F mask built as the outer product of
// two Gaussian kernels and scaled so its peak is 1.
func VignetteMask(rows, cols int, sigma float64) (gocv.Mat, error) {
	if rows <= 0 || cols <= 0 {
		return gocv.NewMat(), fmt.Errorf("mask size %dx%d", cols, rows)
	}

	ky := gocv.GetGaussianKernel(rows, sigma)
	defer ky.Close()
	kx := gocv.GetGaussianKernel(cols, sigma)
	defer kx.Close()
	none := gocv.NewMat()
	defer none.Close()

	mask := gocv.NewMat()
	if err := gocv.Gemm(ky, kx, 1, none, 0, &mask, gemmTransposeSecond); err != nil {
		mask.Close()
		return gocv.NewMat(), fmt.Errorf("vignette mask: %w", err)
	}

	_, peak, _, _ := gocv.MinMaxLoc(mask)
	if peak <= 0 {
		mask.Close()
		return gocv.NewMat(), fmt.Errorf("vignette mask has no positive weight")
	}
	mask.DivideFloat(peak)
	return mask, nil
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
