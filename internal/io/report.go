package io

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ReportEntry summarizes the outcome of one rectified crop.
type ReportEntry struct {
	JobID         string             `json:"job_id"`
	Source        string             `json:"source"`
	Output        string             `json:"output,omitempty"`
	Stage         string             `json:"stage"`
	FailedAt      string             `json:"failed_at,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	Rectified     bool               `json:"rectified"`
	Fallback      bool               `json:"fallback"`
	Variant       string             `json:"variant,omitempty"`
	VariantsTried int                `json:"variants_tried"`
	Corners       [][2]float64       `json:"corners,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
	DurationMS    int64              `json:"duration_ms"`
	Error         string             `json:"error,omitempty"`
}

// Report is the JSON document written after a batch run.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Images      int           `json:"images"`
	Rectified   int           `json:"rectified"`
	Fallback    int           `json:"fallback"`
	Failed      int           `json:"failed"`
	Entries     []ReportEntry `json:"entries"`
}

var reportJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteReport writes r as indented JSON to path.
func WriteReport(path string, r Report) error {
	data, err := reportJSON.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := reportJSON.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}
