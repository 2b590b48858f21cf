// Color and intensity transforms
package algorithms

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Grayscale converts BGR input to a single channel. Single-channel input is
// copied unchanged.
type Grayscale struct{}

func NewGrayscale() *Grayscale {
	return &Grayscale{}
}

func (g *Grayscale) Name() string {
	return "grayscale"
}

func (g *Grayscale) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1, 3); err != nil {
		return gocv.NewMat(), err
	}
	if input.Channels() == 1 {
		return input.Clone(), nil
	}

	output := gocv.NewMat()
	if err := gocv.CvtColor(input, &output, gocv.ColorBGRToGray); err != nil {
		output.Close()
		return gocv.NewMat(), err
	}
	return output, nil
}

func (g *Grayscale) Validate() error {
	return nil
}

// CLAHE implements contrast-limited adaptive histogram equalization
type CLAHE struct {
	ClipLimit float64
	TileGrid  int
}

func NewCLAHE(clipLimit float64, tileGrid int) *CLAHE {
	return &CLAHE{ClipLimit: clipLimit, TileGrid: tileGrid}
}

func (c *CLAHE) Name() string {
	return "clahe"
}

func (c *CLAHE) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1); err != nil {
		return gocv.NewMat(), err
	}

	clahe := gocv.NewCLAHEWithParams(c.ClipLimit, image.Pt(c.TileGrid, c.TileGrid))
	defer clahe.Close()

	output := gocv.NewMat()
	if err := clahe.Apply(input, &output); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("clahe: %w", err)
	}
	return output, nil
}

func (c *CLAHE) Validate() error {
	if c.ClipLimit <= 0 || c.ClipLimit > 40 {
		return fmt.Errorf("clip_limit must be in (0, 40]")
	}
	if c.TileGrid < 1 || c.TileGrid > 64 {
		return fmt.Errorf("tile_grid must be between 1 and 64")
	}
	return nil
}

// Gamma applies a power-law lookup table to every channel. Exponents below 1
// brighten the image.
type Gamma struct {
	Exponent float64
}

func NewGamma(exponent float64) *Gamma {
	return &Gamma{Exponent: exponent}
}

func (g *Gamma) Name() string {
	return "gamma"
}

func (g *Gamma) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1, 3); err != nil {
		return gocv.NewMat(), err
	}

	lut, err := gocv.NewMatFromBytes(1, 256, gocv.MatTypeCV8U, GammaTable(g.Exponent))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("gamma lookup table: %w", err)
	}
	defer lut.Close()

	output := gocv.NewMat()
	if err := gocv.LUT(input, lut, &output); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("gamma lookup: %w", err)
	}
	return output, nil
}

func (g *Gamma) Validate() error {
	if g.Exponent <= 0 || g.Exponent > 10 {
		return fmt.Errorf("exponent must be in (0, 10]")
	}
	return nil
}

// GammaTable returns the 256-entry lookup table for ((i/255)^exp)*255.
func GammaTable(exponent float64) []byte {
	table := make([]byte, 256)
	for i := range table {
		v := math.Pow(float64(i)/255.0, exponent) * 255.0
		table[i] = uint8(math.Min(255, math.Max(0, v)))
	}
	return table
}

// DarkenGray zeroes every pixel whose channel range (max - min) is below
// Threshold. Near-gray background clutter otherwise forms false contours.
type DarkenGray struct {
	Threshold int
}

func NewDarkenGray(threshold int) *DarkenGray {
	return &DarkenGray{Threshold: threshold}
}

func (d *DarkenGray) Name() string {
	return "darken_gray"
}

func (d *DarkenGray) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 3); err != nil {
		return gocv.NewMat(), err
	}
	if input.Type() != gocv.MatTypeCV8UC3 {
		return gocv.NewMat(), fmt.Errorf("expected 8-bit BGR input")
	}

	channels := gocv.Split(input)
	defer closeAll(channels)

	hi := gocv.NewMat()
	defer hi.Close()
	lo := gocv.NewMat()
	defer lo.Close()
	if err := gocv.Max(channels[0], channels[1], &hi); err != nil {
		return gocv.NewMat(), fmt.Errorf("channel max: %w", err)
	}
	if err := gocv.Max(hi, channels[2], &hi); err != nil {
		return gocv.NewMat(), fmt.Errorf("channel max: %w", err)
	}
	if err := gocv.Min(channels[0], channels[1], &lo); err != nil {
		return gocv.NewMat(), fmt.Errorf("channel min: %w", err)
	}
	if err := gocv.Min(lo, channels[2], &lo); err != nil {
		return gocv.NewMat(), fmt.Errorf("channel min: %w", err)
	}

	spread := gocv.NewMat()
	defer spread.Close()
	if err := gocv.Subtract(hi, lo, &spread); err != nil {
		return gocv.NewMat(), fmt.Errorf("channel range: %w", err)
	}

	// Strictly above Threshold-1 keeps every pixel whose range reaches Threshold.
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(spread, &mask, float32(d.Threshold-1), 255, gocv.ThresholdBinary)

	output := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), input.Rows(), input.Cols(), gocv.MatTypeCV8UC3)
	if err := input.CopyToWithMask(&output, mask); err != nil {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("copy colored pixels: %w", err)
	}
	return output, nil
}

func (d *DarkenGray) Validate() error {
	if d.Threshold < 0 || d.Threshold > 255 {
		return fmt.Errorf("threshold must be between 0 and 255")
	}
	return nil
}
