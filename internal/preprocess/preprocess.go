// Package preprocess turns a raw plate crop into the canonical working image.
package preprocess

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
	"plate-rectification/internal/logging"
)

// DefaultWorkingSize is the resolution every crop is normalized to.
var DefaultWorkingSize = image.Pt(640, 640)

// Preprocessor upsamples a crop and resizes it to the working resolution.
type Preprocessor struct {
	upscaler   Upscaler
	targetSize image.Point
	logger     logrus.FieldLogger
}

// New creates a preprocessor. A nil upscaler selects the 2x resize upscaler.
func New(upscaler Upscaler, targetSize image.Point, logger logrus.FieldLogger) (*Preprocessor, error) {
	if upscaler == nil {
		upscaler = NewResizeUpscaler(2)
	}
	if targetSize.X <= 0 || targetSize.Y <= 0 {
		return nil, fmt.Errorf("%w: working size %dx%d", core.ErrConfiguration, targetSize.X, targetSize.Y)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Preprocessor{
		upscaler:   upscaler,
		targetSize: targetSize,
		logger:     logger.WithField("component", "preprocess"),
	}, nil
}

// TargetSize returns the working resolution.
func (p *Preprocessor) TargetSize() image.Point {
	return p.targetSize
}

// Preprocess validates raw, upscales it and resizes it to the working
// resolution with bicubic interpolation. raw is left untouched.
func (p *Preprocessor) Preprocess(raw gocv.Mat) (gocv.Mat, error) {
	if err := core.ValidateColorImage(raw); err != nil {
		return gocv.NewMat(), err
	}

	upscaled, err := p.upscaler.Upscale(raw)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: upscale: %v", core.ErrInvalidInput, err)
	}
	defer upscaled.Close()

	if err := checkUpscaled(raw, upscaled); err != nil {
		return gocv.NewMat(), err
	}

	working := gocv.NewMat()
	if err := gocv.Resize(upscaled, &working, p.targetSize, 0, 0, gocv.InterpolationCubic); err != nil {
		working.Close()
		return gocv.NewMat(), fmt.Errorf("%w: resize: %v", core.ErrInvalidInput, err)
	}

	p.logger.WithFields(logrus.Fields{
		"input":    core.MetadataOf(raw).String(),
		"upscaled": core.MetadataOf(upscaled).String(),
		"working":  core.MetadataOf(working).String(),
	}).Debug("Crop preprocessed")

	return working, nil
}

// checkUpscaled enforces the Upscaler contract on its output.
func checkUpscaled(raw, upscaled gocv.Mat) error {
	if upscaled.Empty() {
		return fmt.Errorf("%w: upscaler returned an empty image", core.ErrInvalidInput)
	}
	if upscaled.Channels() != raw.Channels() {
		return fmt.Errorf("%w: upscaler changed channel count %d -> %d", core.ErrInvalidInput, raw.Channels(), upscaled.Channels())
	}
	if upscaled.Cols() < raw.Cols() || upscaled.Rows() < raw.Rows() {
		return fmt.Errorf("%w: upscaler shrank the image %dx%d -> %dx%d", core.ErrInvalidInput,
			raw.Cols(), raw.Rows(), upscaled.Cols(), upscaled.Rows())
	}
	return nil
}
