package variants

import (
	"fmt"
	"image"

	"plate-rectification/internal/algorithms"
)

// Named intermediates a plan step can read from or publish.
const (
	SourceWorking          = "working"
	SourceGray             = "gray"
	SourceVignette         = "vignette_gray"
	SourceSmoothed         = "smoothed"
	SourceSmoothedVignette = "smoothed_vignette"
)

// PlanStep is one entry of the ordered generation plan: a pure transform
// applied to a named source image. When Output is set the result is also
// published under that name for later steps. Steps with Emit unset only
// produce intermediates.
type PlanStep struct {
	Label     string
	Source    string
	Output    string
	Emit      bool
	Transform algorithms.Transform
}

// Plan returns the generation plan for a working image of the given size.
// The order is the search order of the quad detector.
func Plan(cfg Config, size image.Point) []PlanStep {
	p := cfg.params
	grayscale := algorithms.NewGrayscale()

	plan := []PlanStep{{
		Label:     "gray",
		Source:    SourceWorking,
		Output:    SourceGray,
		Emit:      cfg.Enabled(StepGrayscale),
		Transform: grayscale,
	}}

	if cfg.Enabled(StepCLAHE) {
		plan = append(plan, PlanStep{
			Label:     "clahe",
			Source:    SourceGray,
			Emit:      true,
			Transform: algorithms.NewCLAHE(p.CLAHEClipLimit, p.CLAHETileGrid),
		})
	}

	if cfg.Enabled(StepGamma) {
		plan = append(plan, PlanStep{
			Label:     "gamma",
			Source:    SourceWorking,
			Emit:      true,
			Transform: algorithms.Chain{algorithms.NewGamma(p.GammaExponent), grayscale},
		})
	}

	if cfg.Enabled(StepDarkenGray) {
		plan = append(plan, PlanStep{
			Label:     "darkened_gray",
			Source:    SourceWorking,
			Emit:      true,
			Transform: algorithms.Chain{algorithms.NewDarkenGray(p.GrayRangeThreshold), grayscale},
		})
	}

	vignette := cfg.Enabled(StepVignette) && size.X >= p.VignetteMinSize && size.Y >= p.VignetteMinSize
	if vignette {
		plan = append(plan, PlanStep{
			Label:     "vignette",
			Source:    SourceWorking,
			Output:    SourceVignette,
			Emit:      true,
			Transform: algorithms.Chain{algorithms.NewVignette(p.VignetteSigma), grayscale},
		})
	}

	if cfg.Enabled(StepBilateral) {
		bilateral := algorithms.NewBilateralFilter(p.BilateralDiameter, p.BilateralSigmaCol, p.BilateralSigmaSpc)
		smoothed := []string{SourceSmoothed}

		plan = append(plan, PlanStep{
			Label:     "smoothed",
			Source:    SourceGray,
			Output:    SourceSmoothed,
			Emit:      true,
			Transform: bilateral,
		})
		if vignette {
			plan = append(plan, PlanStep{
				Label:     "smoothed_vignette",
				Source:    SourceVignette,
				Output:    SourceSmoothedVignette,
				Emit:      true,
				Transform: bilateral,
			})
			smoothed = append(smoothed, SourceSmoothedVignette)
		}

		for _, source := range smoothed {
			for _, level := range cfg.Ladder() {
				plan = append(plan, PlanStep{
					Label:     fmt.Sprintf("%s_thresh_%d", source, level),
					Source:    source,
					Emit:      true,
					Transform: algorithms.NewBinaryThreshold(float32(level)),
				})
			}
		}
	}

	if cfg.Enabled(StepCanny) {
		plan = append(plan, PlanStep{
			Label:     "canny",
			Source:    SourceGray,
			Emit:      true,
			Transform: algorithms.NewCanny(p.CannyLow, p.CannyHigh),
		})
	}

	if cfg.Enabled(StepLaplacian) {
		plan = append(plan, PlanStep{
			Label:  "laplacian",
			Source: SourceGray,
			Emit:   true,
			Transform: algorithms.Chain{
				algorithms.NewGaussianFilter(p.LaplacianBlur, 0),
				algorithms.NewAbsLaplacian(p.LaplacianKernel),
			},
		})
	}

	return plan
}

// Count returns how many variants the plan emits for a working image of the
// given size.
func Count(cfg Config, size image.Point) int {
	n := 0
	for _, step := range Plan(cfg, size) {
		if step.Emit {
			n++
		}
	}
	return n
}

// Labels returns the emitted variant labels in generation order.
func Labels(cfg Config, size image.Point) []string {
	var labels []string
	for _, step := range Plan(cfg, size) {
		if step.Emit {
			labels = append(labels, step.Label)
		}
	}
	return labels
}
