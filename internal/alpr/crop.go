package alpr

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
)

// DefaultPaddingLevels are the crop paddings tried per detection, in pixels.
var DefaultPaddingLevels = []int{-10, -5, 0, 10, 20}

// PaddedBox grows box by pad pixels on every side (shrinks for negative pad)
// and clamps it to bounds. The result is empty when nothing remains.
func PaddedBox(box image.Rectangle, pad int, bounds image.Rectangle) image.Rectangle {
	padded := image.Rectangle{
		Min: image.Pt(box.Min.X-pad, box.Min.Y-pad),
		Max: image.Pt(box.Max.X+pad, box.Max.Y+pad),
	}
	return padded.Intersect(bounds)
}

// CropWithPadding copies the padded box out of frame. The caller owns the
// returned Mat.
func CropWithPadding(frame gocv.Mat, box image.Rectangle, pad int) (gocv.Mat, error) {
	if err := core.ValidateImage(frame); err != nil {
		return gocv.NewMat(), err
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	r := PaddedBox(box.Canon(), pad, bounds)
	if r.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: box %v with padding %d is outside the %dx%d frame",
			core.ErrInvalidInput, box, pad, frame.Cols(), frame.Rows())
	}

	region := frame.Region(r)
	defer region.Close()
	return region.Clone(), nil
}

// AssemblePlate concatenates character labels left to right by box x
// coordinate. Characters sharing an x keep their input order.
func AssemblePlate(chars []Character) string {
	sorted := make([]Character, len(chars))
	copy(sorted, chars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.Min.X < sorted[j].Box.Min.X
	})

	var b strings.Builder
	for _, c := range sorted {
		b.WriteString(c.Label)
	}
	return b.String()
}
