// Package config loads rectification settings from the environment.
package config

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"plate-rectification/internal/core"
	"plate-rectification/internal/pipeline"
	"plate-rectification/internal/preprocess"
	"plate-rectification/internal/variants"
)

// Config holds every environment setting of the rectifier.
type Config struct {
	WorkingWidth  int     `validate:"gte=32,lte=4096"`
	WorkingHeight int     `validate:"gte=32,lte=4096"`
	OutputWidth   int     `validate:"gte=1,lte=8192"`
	OutputHeight  int     `validate:"gte=1,lte=8192"`
	AreaFraction  float64 `validate:"gt=0.5,lt=1"`
	PowerLevel    int     `validate:"gte=0,lte=3"`
	Steps         string  `validate:"required"`
	UpscaleFactor float64 `validate:"gte=1,lte=8"`
	Workers       int     `validate:"gte=1"`

	LogLevel string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFile  string
	Debug    bool
}

// Load reads an optional .env file from the working directory, then the
// environment. Unset variables take their defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads and validates the configuration from the environment only.
func FromEnv() (*Config, error) {
	var errs []error
	intVar := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	floatVar := func(key string, def float64) float64 {
		v, err := getEnvFloat(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		WorkingWidth:  intVar("RECTIFY_WORKING_WIDTH", preprocess.DefaultWorkingSize.X),
		WorkingHeight: intVar("RECTIFY_WORKING_HEIGHT", preprocess.DefaultWorkingSize.Y),
		OutputWidth:   intVar("RECTIFY_OUTPUT_WIDTH", 794),
		OutputHeight:  intVar("RECTIFY_OUTPUT_HEIGHT", 400),
		AreaFraction:  floatVar("RECTIFY_AREA_FRACTION", 0.8),
		PowerLevel:    intVar("RECTIFY_POWER_LEVEL", variants.MaxPowerLevel),
		Steps:         getEnv("RECTIFY_STEPS", "all"),
		UpscaleFactor: floatVar("RECTIFY_UPSCALE_FACTOR", 2),
		Workers:       intVar("RECTIFY_WORKERS", runtime.NumCPU()),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		Debug:         getEnv("APP_DEBUG", "false") == "true",
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, errors.Join(errs...))
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrConfiguration, err)
	}
	if _, err := variants.ParseSteps(cfg.Steps); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PipelineOptions converts the configuration into pipeline options.
func (c *Config) PipelineOptions(logger logrus.FieldLogger) (pipeline.Options, error) {
	steps, err := variants.ParseSteps(c.Steps)
	if err != nil {
		return pipeline.Options{}, err
	}
	vc, err := variants.NewConfig(
		variants.WithSteps(steps),
		variants.WithPowerLevel(c.PowerLevel),
	)
	if err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		WorkingSize:  image.Pt(c.WorkingWidth, c.WorkingHeight),
		OutputSize:   image.Pt(c.OutputWidth, c.OutputHeight),
		AreaFraction: c.AreaFraction,
		Variants:     &vc,
		Upscaler:     preprocess.NewResizeUpscaler(c.UpscaleFactor),
		Logger:       logger,
	}, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
