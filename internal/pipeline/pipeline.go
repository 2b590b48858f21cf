// Package pipeline orchestrates preprocessing, variant search, corner ordering
// and warping for a single plate crop.
package pipeline

import (
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"plate-rectification/internal/contour"
	"plate-rectification/internal/core"
	"plate-rectification/internal/geometry"
	"plate-rectification/internal/logging"
	"plate-rectification/internal/metrics"
	"plate-rectification/internal/preprocess"
	"plate-rectification/internal/variants"
)

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	WorkingSize  image.Point
	OutputSize   image.Point
	AreaFraction float64
	Variants     *variants.Config
	Upscaler     preprocess.Upscaler
	Logger       logrus.FieldLogger
}

// quadFinder searches one variant for a plate boundary.
type quadFinder interface {
	FindPlateQuad(variant gocv.Mat, expectedTotalArea, areaFraction float64) (core.Quad, bool)
}

// Pipeline rectifies plate crops. It holds no per-crop state, so one Pipeline
// may serve concurrent Process calls.
type Pipeline struct {
	preprocessor *preprocess.Preprocessor
	generator    *variants.Generator
	detector     quadFinder
	rectifier    *geometry.Rectifier
	evaluator    *metrics.Evaluator
	areaFraction float64
	logger       logrus.FieldLogger
}

// New builds a pipeline from opts.
func New(opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	workingSize := opts.WorkingSize
	if workingSize == (image.Point{}) {
		workingSize = preprocess.DefaultWorkingSize
	}
	outputSize := opts.OutputSize
	if outputSize == (image.Point{}) {
		outputSize = geometry.DefaultOutputSize
	}
	areaFraction := opts.AreaFraction
	if areaFraction == 0 {
		areaFraction = contour.DefaultAreaFraction
	}
	if areaFraction <= 0.5 || areaFraction >= 1 {
		return nil, fmt.Errorf("%w: area fraction %.3f must be in (0.5, 1)", core.ErrConfiguration, areaFraction)
	}

	cfg := variants.DefaultConfig()
	if opts.Variants != nil {
		cfg = *opts.Variants
	}

	pre, err := preprocess.New(opts.Upscaler, workingSize, logger)
	if err != nil {
		return nil, err
	}
	rect, err := geometry.NewRectifier(outputSize, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		preprocessor: pre,
		generator:    variants.NewGenerator(cfg, logger),
		detector:     contour.NewDetector(logger),
		rectifier:    rect,
		evaluator:    metrics.NewEvaluator(),
		areaFraction: areaFraction,
		logger:       logger.WithField("component", "pipeline"),
	}, nil
}

// Process rectifies one crop. The only error returned is an invalid input
// (wrapping core.ErrInvalidInput); expected failures such as a missing plate
// boundary or degenerate corners come back as a failed Result with a nil
// error. The caller owns the Result and must close it. crop is not modified.
func (p *Pipeline) Process(crop gocv.Mat) (*Result, error) {
	start := time.Now()
	log := p.logger.WithField("crop", core.MetadataOf(crop).String())

	// Preprocessing
	working, err := p.preprocessor.Preprocess(crop)
	if err != nil {
		log.WithError(err).Warn("Crop rejected")
		return failed(StagePreprocessing, err), err
	}
	defer working.Close()

	// GeneratingVariants and SearchingQuad
	expectedArea := float64(working.Cols() * working.Rows())
	var (
		quad  core.Quad
		found bool
		label string
		tried int
	)
	index := -1
	err = p.generator.Each(working, func(v variants.Variant) bool {
		defer v.Close()
		tried++
		q, ok := p.detector.FindPlateQuad(v.Image, expectedArea, p.areaFraction)
		if !ok {
			return true
		}
		quad, found, label, index = q, true, v.Label, v.Index
		return false
	})
	if err != nil {
		err = fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
		log.WithError(err).Error("Variant generation failed")
		return failed(StageGeneratingVariants, err), err
	}
	if !found {
		log.WithField("variants_tried", tried).Info("No plate boundary found")
		res := failed(StageSearchingQuad, core.ErrNoPlateBoundaryFound)
		res.VariantsTried = tried
		return res, nil
	}

	// Ordering
	ordered := geometry.OrderCorners(quad)

	// Warping, always from the working image
	rectified, err := p.rectifier.Rectify(working, ordered)
	if err != nil {
		log.WithError(err).WithField("variant", label).Info("Rectification failed")
		res := failed(StageWarping, err)
		res.Quad, res.Variant, res.VariantIndex, res.VariantsTried = ordered, label, index, tried
		return res, nil
	}

	res := &Result{
		Stage:         StageDone,
		Image:         rectified,
		Quad:          ordered,
		Variant:       label,
		VariantIndex:  index,
		VariantsTried: tried,
		Metrics:       p.evaluator.CalculateAll(rectified),
	}

	log.WithFields(logrus.Fields{
		"variant":        label,
		"variants_tried": tried,
		"corners":        fmt.Sprint(ordered),
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Plate rectified")

	return res, nil
}

// VariantCount returns how many variants a full search would examine.
func (p *Pipeline) VariantCount() int {
	return variants.Count(p.generator.Config(), p.preprocessor.TargetSize())
}
