package geometry

import (
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
	"plate-rectification/internal/logging"
)

// DefaultOutputSize is the canonical rectified plate size.
var DefaultOutputSize = image.Pt(794, 400)

// DestinationQuad returns [(0,0), (W,0), (W,H), (0,H)], matching the
// [TL, TR, BR, BL] corner order.
func DestinationQuad(size image.Point) core.Quad {
	w, h := float64(size.X), float64(size.Y)
	return core.Quad{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
}

// Rectifier warps ordered plate corners onto a fixed output rectangle.
type Rectifier struct {
	outputSize image.Point
	logger     logrus.FieldLogger
}

// NewRectifier creates a rectifier for the given output size.
func NewRectifier(outputSize image.Point, logger logrus.FieldLogger) (*Rectifier, error) {
	if outputSize.X <= 0 || outputSize.Y <= 0 {
		return nil, fmt.Errorf("%w: output size %dx%d", core.ErrConfiguration, outputSize.X, outputSize.Y)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Rectifier{
		outputSize: outputSize,
		logger:     logger.WithField("component", "rectify"),
	}, nil
}

// OutputSize returns the rectified image size.
func (r *Rectifier) OutputSize() image.Point {
	return r.outputSize
}

// Rectify warps source so that ordered maps onto the output rectangle. Output
// pixels are sampled bilinearly; those falling outside source are black.
func (r *Rectifier) Rectify(source gocv.Mat, ordered core.Quad) (gocv.Mat, error) {
	if err := core.ValidateImage(source); err != nil {
		return gocv.NewMat(), err
	}

	h, err := ComputeHomography(ordered, DestinationQuad(r.outputSize))
	if err != nil {
		return gocv.NewMat(), err
	}

	m := h.Mat()
	defer m.Close()

	out := gocv.NewMat()
	if err := gocv.WarpPerspectiveWithParams(source, &out, m, r.outputSize,
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{0, 0, 0, 0}); err != nil {
		out.Close()
		return gocv.NewMat(), fmt.Errorf("warp perspective: %w", err)
	}
	if out.Empty() {
		out.Close()
		return gocv.NewMat(), fmt.Errorf("%w: warp produced an empty image", core.ErrDegenerateHomography)
	}

	r.logger.WithFields(logrus.Fields{
		"corners": fmt.Sprint(ordered),
		"output":  core.MetadataOf(out).String(),
	}).Debug("Plate rectified")

	return out, nil
}

// Rectify warps source with a one-off rectifier.
func Rectify(source gocv.Mat, ordered core.Quad, outputSize image.Point) (gocv.Mat, error) {
	r, err := NewRectifier(outputSize, nil)
	if err != nil {
		return gocv.NewMat(), err
	}
	return r.Rectify(source, ordered)
}
