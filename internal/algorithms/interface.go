// Image transforms used to derive search variants from a working image
package algorithms

import (
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// Transform is a pure image-to-image step. Apply never modifies input and
// always returns a newly allocated Mat owned by the caller.
type Transform interface {
	Name() string
	Apply(input gocv.Mat) (gocv.Mat, error)
	Validate() error
}

// Chain applies transforms in order, closing intermediates.
type Chain []Transform

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.Name()
	}
	return strings.Join(names, "+")
}

func (c Chain) Apply(input gocv.Mat) (gocv.Mat, error) {
	if len(c) == 0 {
		return gocv.NewMat(), fmt.Errorf("empty transform chain")
	}

	current := input
	for i, t := range c {
		out, err := t.Apply(current)
		if i > 0 {
			current.Close()
		}
		if err != nil {
			out.Close()
			return gocv.NewMat(), fmt.Errorf("%s: %w", t.Name(), err)
		}
		current = out
	}
	return current, nil
}

func (c Chain) Validate() error {
	for _, t := range c {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%s: %w", t.Name(), err)
		}
	}
	return nil
}

func checkInput(input gocv.Mat, channels ...int) error {
	if input.Empty() {
		return fmt.Errorf("input image is empty")
	}
	if len(channels) == 0 {
		return nil
	}
	for _, c := range channels {
		if input.Channels() == c {
			return nil
		}
	}
	return fmt.Errorf("unsupported channel count %d", input.Channels())
}

func oddKernel(size int) int {
	if size%2 == 0 {
		return size + 1
	}
	return size
}
