// Plate rectification batch tool
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"plate-rectification/internal/config"
	imgio "plate-rectification/internal/io"
	"plate-rectification/internal/logging"
	"plate-rectification/internal/pipeline"
)

const (
	AppName    = "plate-rectify"
	AppVersion = "1.0.0"
)

func main() {
	inDir := flag.String("in", "", "Directory (or single file) of plate crops")
	outDir := flag.String("out", "", "Directory for rectified plates")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	fallback := flag.Bool("fallback", false, "Write the unrectified crop when no plate boundary is found")
	reportPath := flag.String("report", "", "Write a JSON report of every crop to this file")
	flag.Parse()

	if *inDir == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "usage: rectify -in <dir> -out <dir> [-debug] [-fallback] [-report <file>]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level: cfg.LogLevel,
		Debug: cfg.Debug || *debugMode,
		File:  cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"in":         *inDir,
		"out":        *outDir,
	}).Info("Starting " + AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *inDir, *outDir, *fallback, *reportPath); err != nil {
		logger.WithError(err).Error("Rectification run failed")
		os.Exit(1)
	}

	logger.Info("Shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, inDir, outDir string, fallback bool, reportPath string) error {
	opts, err := cfg.PipelineOptions(logger)
	if err != nil {
		return err
	}
	p, err := pipeline.New(opts)
	if err != nil {
		return err
	}
	logger.WithField("variants", p.VariantCount()).Debug("Pipeline ready")

	loader := imgio.NewImageLoader(logger)
	paths, err := loader.ListImages(inDir)
	if err != nil {
		return err
	}

	var jobs []pipeline.Job
	for _, path := range paths {
		mat, err := loader.LoadImage(path)
		if err != nil {
			logger.WithError(err).WithField("filepath", path).Warn("Skipping unreadable image")
			continue
		}
		jobs = append(jobs, pipeline.NewJob(path, mat))
	}
	defer func() {
		for _, job := range jobs {
			job.Crop.Close()
		}
	}()

	outcomes := pipeline.RunBatch(ctx, p, jobs, pipeline.BatchOptions{
		Workers: cfg.Workers,
		Logger:  logger,
	})

	report := imgio.Report{GeneratedAt: time.Now().UTC(), Images: len(jobs)}
	for _, o := range outcomes {
		output, wasRectified := writeOutcome(loader, o, outDir, fallback, logger)
		switch {
		case output != "" && wasRectified:
			report.Rectified++
		case output != "":
			report.Fallback++
		default:
			report.Failed++
		}
		report.Entries = append(report.Entries, reportEntry(o, output, wasRectified))
		o.Close()
	}

	logger.WithFields(logrus.Fields{
		"images":    report.Images,
		"rectified": report.Rectified,
		"fallback":  report.Fallback,
		"failed":    report.Failed,
	}).Info("Batch complete")

	if reportPath != "" {
		if err := imgio.WriteReport(reportPath, report); err != nil {
			return err
		}
		logger.WithField("report", reportPath).Info("Report written")
	}

	return ctx.Err()
}

func reportEntry(o pipeline.Outcome, output string, rectified bool) imgio.ReportEntry {
	e := imgio.ReportEntry{
		JobID:      o.Job.ID,
		Source:     o.Job.Name,
		Output:     output,
		Rectified:  rectified,
		Fallback:   output != "" && !rectified,
		DurationMS: o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	if o.Result == nil {
		e.Stage = "skipped"
	}
	if res := o.Result; res != nil {
		e.Stage = string(res.Stage)
		e.FailedAt = string(res.FailedAt)
		e.Reason = string(res.Reason)
		e.Variant = res.Variant
		e.VariantsTried = res.VariantsTried
		e.Metrics = res.Metrics
		if res.OK() {
			for _, p := range res.Quad {
				e.Corners = append(e.Corners, [2]float64{p.X, p.Y})
			}
		}
	}
	return e
}

// writeOutcome saves the image for one outcome and returns its path, or ""
// when nothing was written.
func writeOutcome(loader *imgio.ImageLoader, o pipeline.Outcome, outDir string, fallback bool, logger logrus.FieldLogger) (output string, rectified bool) {
	log := logger.WithFields(logrus.Fields{"job_id": o.Job.ID, "name": o.Job.Name})

	var img gocv.Mat
	var ok bool
	img, rectified, ok = o.Fallback()
	defer img.Close()

	if !ok || (!rectified && !fallback) {
		if o.Result != nil {
			log = log.WithFields(logrus.Fields{"failed_at": o.Result.FailedAt, "reason": o.Result.Reason})
		}
		log.WithError(o.Err).Info("No output written")
		return "", false
	}

	dst := filepath.Join(outDir, imgio.RectifiedName(o.Job.Name))
	if err := loader.SaveImage(img, dst); err != nil {
		log.WithError(err).Error("Failed to write output")
		return "", false
	}
	return dst, rectified
}
