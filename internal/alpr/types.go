// Package alpr defines the collaborators around the rectification engine: the
// plate detector that produces crops and the segmenter that reads them.
package alpr

import (
	"context"
	"image"

	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
)

// Detection is one plate candidate reported by a Detector.
type Detection struct {
	Box        image.Rectangle
	Confidence float64
	Class      string
}

// Detector locates plates in a full frame.
type Detector interface {
	Detect(ctx context.Context, frame gocv.Mat) ([]Detection, error)
}

// Character is one segmented and classified plate character.
type Character struct {
	Box   image.Rectangle
	Label string
}

// Segmenter splits a plate image into labelled characters.
type Segmenter interface {
	Segment(ctx context.Context, plate gocv.Mat) ([]Character, error)
}

// PlateRead is the text read from one detection at one padding level.
type PlateRead struct {
	Detection  Detection
	Padding    int
	Text       string
	Rectified  bool
	Reason     core.FailureReason
	Characters int
}
