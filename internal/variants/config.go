package variants

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"plate-rectification/internal/core"
)

// Step identifies one optional variant-generation step.
type Step uint16

const (
	StepGrayscale Step = 1 << iota
	StepCLAHE
	StepGamma
	StepDarkenGray
	StepVignette
	StepBilateral
	StepCanny
	StepLaplacian
)

// AllSteps enables every generation step.
const AllSteps = StepGrayscale | StepCLAHE | StepGamma | StepDarkenGray |
	StepVignette | StepBilateral | StepCanny | StepLaplacian

var stepNames = []struct {
	step Step
	name string
}{
	{StepGrayscale, "grayscale"},
	{StepCLAHE, "clahe"},
	{StepGamma, "gamma"},
	{StepDarkenGray, "darken_gray"},
	{StepVignette, "vignette"},
	{StepBilateral, "bilateral"},
	{StepCanny, "canny"},
	{StepLaplacian, "laplacian"},
}

// Has reports whether every step in other is enabled.
func (s Step) Has(other Step) bool {
	return s&other == other
}

func (s Step) String() string {
	var names []string
	for _, sn := range stepNames {
		if s.Has(sn.step) {
			names = append(names, sn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseSteps parses a comma separated list of step names. "all" enables
// every step.
func ParseSteps(list string) (Step, error) {
	var steps Step
	for _, raw := range strings.Split(list, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if name == "all" {
			steps |= AllSteps
			continue
		}
		found := false
		for _, sn := range stepNames {
			if sn.name == name {
				steps |= sn.step
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown variant step %q", core.ErrConfiguration, name)
		}
	}
	return steps, nil
}

// Params holds the numeric parameters of every step.
type Params struct {
	CLAHEClipLimit     float64 `validate:"gt=0,lte=40"`
	CLAHETileGrid      int     `validate:"gte=1,lte=64"`
	GammaExponent      float64 `validate:"gt=0,lte=10"`
	GrayRangeThreshold int     `validate:"gte=0,lte=255"`
	VignetteSigma      float64 `validate:"gt=0"`
	VignetteMinSize    int     `validate:"gte=1"`
	BilateralDiameter  int     `validate:"gte=3,lte=15"`
	BilateralSigmaCol  float64 `validate:"gte=10,lte=200"`
	BilateralSigmaSpc  float64 `validate:"gte=10,lte=200"`
	CannyLow           float32 `validate:"gte=0"`
	CannyHigh          float32 `validate:"gtefield=CannyLow"`
	LaplacianBlur      int     `validate:"gte=1,lte=21"`
	LaplacianKernel    int     `validate:"gte=1,lte=31"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		CLAHEClipLimit:     2.0,
		CLAHETileGrid:      8,
		GammaExponent:      0.5,
		GrayRangeThreshold: 15,
		VignetteSigma:      200,
		VignetteMinSize:    64,
		BilateralDiameter:  9,
		BilateralSigmaCol:  78,
		BilateralSigmaSpc:  40,
		CannyLow:           100,
		CannyHigh:          180,
		LaplacianBlur:      3,
		LaplacianKernel:    1,
	}
}

// Config selects which variants are generated. It is immutable once built;
// use NewConfig to construct one.
type Config struct {
	steps      Step
	powerLevel int
	params     Params
}

// Option customizes a Config under construction.
type Option func(*Config)

// WithSteps replaces the enabled step set.
func WithSteps(steps Step) Option {
	return func(c *Config) {
		c.steps = steps
	}
}

// WithPowerLevel selects the threshold ladder (0..3).
func WithPowerLevel(level int) Option {
	return func(c *Config) {
		c.powerLevel = level
	}
}

// WithParams replaces the numeric step parameters.
func WithParams(p Params) Option {
	return func(c *Config) {
		c.params = p
	}
}

var validate = validator.New()

// NewConfig builds a validated Config. Defaults: every step, power level 3.
// A configuration with no step enabled fails with core.ErrConfiguration.
func NewConfig(opts ...Option) (Config, error) {
	c := Config{
		steps:      AllSteps,
		powerLevel: MaxPowerLevel,
		params:     DefaultParams(),
	}
	for _, opt := range opts {
		opt(&c)
	}

	if c.steps&AllSteps == 0 {
		return Config{}, fmt.Errorf("%w: all variant steps disabled", core.ErrConfiguration)
	}
	if c.steps&^AllSteps != 0 {
		return Config{}, fmt.Errorf("%w: unknown step bits %#x", core.ErrConfiguration, uint16(c.steps&^AllSteps))
	}
	if c.powerLevel < 0 || c.powerLevel > MaxPowerLevel {
		return Config{}, fmt.Errorf("%w: power level %d outside 0..%d", core.ErrConfiguration, c.powerLevel, MaxPowerLevel)
	}
	if err := validate.Struct(c.params); err != nil {
		return Config{}, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	return c, nil
}

// DefaultConfig returns the all-steps, power level 3 configuration.
func DefaultConfig() Config {
	c, err := NewConfig()
	if err != nil {
		panic(err)
	}
	return c
}

func (c Config) Steps() Step     { return c.steps }
func (c Config) PowerLevel() int { return c.powerLevel }
func (c Config) Params() Params  { return c.params }

// Ladder returns a copy of the selected threshold ladder.
func (c Config) Ladder() []int {
	return Ladder(c.powerLevel)
}

// Enabled reports whether step is enabled.
func (c Config) Enabled(step Step) bool {
	return c.steps.Has(step)
}
