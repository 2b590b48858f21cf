// Binarization
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// BinaryThreshold maps pixels above Level to MaxValue and the rest to 0.
type BinaryThreshold struct {
	Level    float32
	MaxValue float32
}

func NewBinaryThreshold(level float32) *BinaryThreshold {
	return &BinaryThreshold{Level: level, MaxValue: 255}
}

func (t *BinaryThreshold) Name() string {
	return fmt.Sprintf("threshold_%d", int(t.Level))
}

func (t *BinaryThreshold) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := checkInput(input, 1); err != nil {
		return gocv.NewMat(), err
	}

	output := gocv.NewMat()
	gocv.Threshold(input, &output, t.Level, t.MaxValue, gocv.ThresholdBinary)
	return output, nil
}

func (t *BinaryThreshold) Validate() error {
	if t.Level < 0 || t.Level > 255 {
		return fmt.Errorf("level must be between 0 and 255")
	}
	if t.MaxValue <= 0 || t.MaxValue > 255 {
		return fmt.Errorf("max_value must be in (0, 255]")
	}
	return nil
}
