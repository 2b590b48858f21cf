package alpr

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"plate-rectification/internal/logging"
	"plate-rectification/internal/pipeline"
)

// Reader runs detection, rectification and segmentation over a frame.
type Reader struct {
	Detector      Detector
	Segmenter     Segmenter
	Rectifier     pipeline.Processor
	PaddingLevels []int
	MinConfidence float64
	Logger        logrus.FieldLogger
}

// Read returns one PlateRead per accepted detection and padding level. Each
// crop is rectified; when rectification fails recoverably the unrectified
// crop is segmented instead. Invalid crops are logged and skipped.
func (r *Reader) Read(ctx context.Context, frame gocv.Mat) ([]PlateRead, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithField("component", "reader")

	detections, err := r.Detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	paddings := r.PaddingLevels
	if len(paddings) == 0 {
		paddings = []int{0}
	}

	var reads []PlateRead
	for _, det := range detections {
		if det.Confidence < r.MinConfidence {
			logger.WithField("confidence", det.Confidence).Debug("Detection below confidence threshold")
			continue
		}
		for _, pad := range paddings {
			if err := ctx.Err(); err != nil {
				return reads, err
			}

			read, ok, err := r.readOne(ctx, frame, det, pad, logger)
			if err != nil {
				return reads, err
			}
			if ok {
				reads = append(reads, read)
			}
		}
	}
	return reads, nil
}

func (r *Reader) readOne(ctx context.Context, frame gocv.Mat, det Detection, pad int, logger logrus.FieldLogger) (PlateRead, bool, error) {
	log := logger.WithFields(logrus.Fields{"box": det.Box.String(), "padding": pad})

	crop, err := CropWithPadding(frame, det.Box, pad)
	if err != nil {
		log.WithError(err).Warn("Crop skipped")
		return PlateRead{}, false, nil
	}
	defer crop.Close()

	res, err := r.Rectifier.Process(crop)
	if err != nil {
		if res != nil {
			res.Close()
		}
		log.WithError(err).Warn("Crop rejected by rectifier")
		return PlateRead{}, false, nil
	}
	defer res.Close()

	plate := crop
	if res.OK() {
		plate = res.Image
	} else if !res.Reason.Recoverable() {
		return PlateRead{}, false, nil
	}

	chars, err := r.Segmenter.Segment(ctx, plate)
	if err != nil {
		return PlateRead{}, false, fmt.Errorf("segment: %w", err)
	}

	read := PlateRead{
		Detection:  det,
		Padding:    pad,
		Text:       AssemblePlate(chars),
		Rectified:  res.OK(),
		Reason:     res.Reason,
		Characters: len(chars),
	}
	log.WithFields(logrus.Fields{
		"text":      read.Text,
		"rectified": read.Rectified,
	}).Info("Plate read")
	return read, true, nil
}
