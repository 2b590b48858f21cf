package pipeline

import (
	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
)

// Stage is a state of the rectification state machine.
type Stage string

const (
	StagePreprocessing      Stage = "preprocessing"
	StageGeneratingVariants Stage = "generating_variants"
	StageSearchingQuad      Stage = "searching_quad"
	StageWarping            Stage = "warping"
	StageDone               Stage = "done"
	StageFailed             Stage = "failed"
)

// Result is the outcome of rectifying one crop. On success Stage is
// StageDone, Image holds the rectified plate and Reason is empty. On failure
// Stage is StageFailed, FailedAt names the stage that failed and Image is
// empty. Corner ordering cannot fail, so it never appears in FailedAt.
type Result struct {
	Stage    Stage
	FailedAt Stage
	Reason   core.FailureReason
	Err      error

	Image   gocv.Mat
	Quad    core.Quad
	Variant string

	VariantIndex  int
	VariantsTried int
	Metrics       map[string]float64
}

// OK reports whether a rectified image was produced.
func (r *Result) OK() bool {
	return r.Reason == core.ReasonNone && r.Stage == StageDone
}

// Close releases the rectified image.
func (r *Result) Close() {
	r.Image.Close()
}

func failed(stage Stage, err error) *Result {
	return &Result{
		Stage:        StageFailed,
		FailedAt:     stage,
		Reason:       core.ReasonFor(err),
		Err:          err,
		Image:        gocv.NewMat(),
		VariantIndex: -1,
	}
}
