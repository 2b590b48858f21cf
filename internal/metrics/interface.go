// Image statistics reported for rectified plates
package metrics

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"
)

// Metric computes one statistic of an image
type Metric interface {
	// Calculate computes the metric value
	Calculate(img gocv.Mat) (float64, error)

	// GetName returns the metric name
	GetName() string

	// GetDescription returns the metric description
	GetDescription() string
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with the default metrics registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.RegisterDefaultMetrics()
	return e
}

// RegisterDefaultMetrics registers brightness, contrast and sharpness
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register(MeanBrightnessName, NewMeanBrightness())
	e.Register(ContrastName, NewContrast())
	e.Register(SharpnessName, NewSharpness())
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names, sorted
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, img gocv.Mat) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(img)
}

// CalculateAll calculates all registered metrics, skipping failures
func (e *Evaluator) CalculateAll(img gocv.Mat) map[string]float64 {
	results := make(map[string]float64)
	for name, metric := range e.metrics {
		if value, err := metric.Calculate(img); err == nil {
			results[name] = value
		}
	}
	return results
}
