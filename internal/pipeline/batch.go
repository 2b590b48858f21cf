package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"plate-rectification/internal/logging"
)

// Processor rectifies a single crop. *Pipeline implements it.
type Processor interface {
	Process(crop gocv.Mat) (*Result, error)
}

// Job is one crop queued for rectification. The batch never closes Crop.
type Job struct {
	ID   string
	Name string
	Crop gocv.Mat
}

// NewJob creates a job with a random id.
func NewJob(name string, crop gocv.Mat) Job {
	return Job{ID: uuid.NewString(), Name: name, Crop: crop}
}

// Outcome pairs a job with its result. Result is nil when the job never ran
// because the context was cancelled; Err then holds the context error.
type Outcome struct {
	Job      Job
	Result   *Result
	Err      error
	Duration time.Duration
}

// Fallback returns the image to hand to segmentation: a copy of the rectified
// plate, or a copy of the original crop when rectification failed in a
// recoverable way. ok is false for invalid input or jobs that never ran.
func (o Outcome) Fallback() (img gocv.Mat, rectified bool, ok bool) {
	if o.Result == nil {
		return gocv.NewMat(), false, false
	}
	if o.Result.OK() {
		return o.Result.Image.Clone(), true, true
	}
	if o.Result.Reason.Recoverable() && !o.Job.Crop.Empty() {
		return o.Job.Crop.Clone(), false, true
	}
	return gocv.NewMat(), false, false
}

// Close releases the result image.
func (o Outcome) Close() {
	if o.Result != nil {
		o.Result.Close()
	}
}

// BatchOptions configures RunBatch.
type BatchOptions struct {
	Workers int
	Logger  logrus.FieldLogger
}

// RunBatch rectifies jobs on a fixed pool of workers and returns outcomes in
// job order. Crops are independent, so workers share nothing but the
// stateless processor. Cancelling ctx stops dispatching; jobs already being
// processed run to completion.
func RunBatch(ctx context.Context, p Processor, jobs []Job, opts BatchOptions) []Outcome {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithField("component", "batch")

	outcomes := make([]Outcome, len(jobs))
	queue := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := range queue {
				job := jobs[i]
				start := time.Now()
				res, err := p.Process(job.Crop)
				outcomes[i] = Outcome{Job: job, Result: res, Err: err, Duration: time.Since(start)}

				entry := logger.WithFields(logrus.Fields{
					"job_id": job.ID,
					"name":   job.Name,
					"worker": worker,
				})
				if err != nil {
					entry.WithError(err).Warn("Job failed")
				} else {
					entry.WithField("stage", res.Stage).Debug("Job finished")
				}
			}
		}(w)
	}

	next := 0
dispatch:
	for ; next < len(jobs); next++ {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- next:
		}
	}
	close(queue)
	wg.Wait()

	for i := next; i < len(jobs); i++ {
		outcomes[i] = Outcome{Job: jobs[i], Err: ctx.Err()}
	}
	if next < len(jobs) {
		logger.WithField("skipped", len(jobs)-next).Warn("Batch cancelled")
	}

	return outcomes
}
