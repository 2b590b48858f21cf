// Package variants derives the ordered battery of single-channel images that
// the quad detector searches for a plate boundary.
package variants

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"plate-rectification/internal/core"
	"plate-rectification/internal/logging"
)

// Variant is a derived single-channel image and the label of the step that
// produced it.
type Variant struct {
	Index int
	Label string
	Image gocv.Mat
}

// Close releases the variant image.
func (v *Variant) Close() {
	v.Image.Close()
}

// Generator runs the generation plan of a Config.
type Generator struct {
	cfg    Config
	logger logrus.FieldLogger
}

// NewGenerator creates a generator for cfg.
func NewGenerator(cfg Config, logger logrus.FieldLogger) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{
		cfg:    cfg,
		logger: logger.WithField("component", "variants"),
	}
}

// Config returns the generator configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Each generates variants in plan order and hands each one to fn, which takes
// ownership of the variant image. Generation stops early when fn returns
// false; later variants are never computed.
func (g *Generator) Each(working gocv.Mat, fn func(Variant) bool) error {
	if err := core.ValidateColorImage(working); err != nil {
		return err
	}

	size := image.Pt(working.Cols(), working.Rows())
	intermediates := map[string]gocv.Mat{}
	defer func() {
		for _, m := range intermediates {
			m.Close()
		}
	}()

	index := 0
	for _, step := range Plan(g.cfg, size) {
		src := working
		if step.Source != SourceWorking {
			m, ok := intermediates[step.Source]
			if !ok {
				return fmt.Errorf("variant %s: missing source %s", step.Label, step.Source)
			}
			src = m
		}

		out, err := step.Transform.Apply(src)
		if err != nil {
			return fmt.Errorf("variant %s: %w", step.Label, err)
		}

		variant := out
		if step.Output != "" {
			intermediates[step.Output] = out
			if !step.Emit {
				continue
			}
			variant = out.Clone()
		}

		g.logger.WithFields(logrus.Fields{
			"variant": step.Label,
			"index":   index,
		}).Debug("Variant generated")

		if !fn(Variant{Index: index, Label: step.Label, Image: variant}) {
			return nil
		}
		index++
	}
	return nil
}

// Generate returns every variant in plan order. The caller owns the returned
// images and must close them.
func (g *Generator) Generate(working gocv.Mat) ([]Variant, error) {
	var out []Variant
	err := g.Each(working, func(v Variant) bool {
		out = append(out, v)
		return true
	})
	if err != nil {
		for i := range out {
			out[i].Close()
		}
		return nil, err
	}
	return out, nil
}
