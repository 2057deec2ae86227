// package tasks implements the sequential batch analyzer.
//
// The core abstraction is AnalysisEngine, which drives a set of media items
// through submit → poll → terminal state one at a time. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/UI
// layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/pictag/internal/models"
	"github.com/desertthunder/pictag/internal/services"
	"github.com/desertthunder/pictag/internal/shared"
)

// Backend defines the analysis operations the engine needs from the API
// client. This abstraction allows for easier testing and decoupling from the
// concrete implementation.
type Backend interface {
	SubmitAnalysis(ctx context.Context, token, mediaID string, opts models.AnalysisOptions) (string, error)
	AnalysisStatus(ctx context.Context, token, analysisID string) (*services.AnalysisStatus, error)
}

// AnalysisEngine defines the batch analysis operation.
type AnalysisEngine interface {
	// Run analyzes the given media sequentially: one submission in flight at a
	// time, in input order, with per-item failure isolation.
	Run(ctx context.Context, progress chan<- ProgressUpdate, media []models.Media, opts models.AnalysisOptions) (*models.BatchRun, error)
}

// BatchOpts carries the timing knobs for a run. Zero values fall back to the
// production defaults; tests shrink them instead of simulating clocks.
type BatchOpts struct {
	PollInterval time.Duration // delay between status polls (default 1s)
	TaskTimeout  time.Duration // per-task give-up deadline (default 600s)
	TaskDelay    time.Duration // pause between consecutive tasks (default 1s)
}

func (o BatchOpts) withDefaults() BatchOpts {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.TaskTimeout <= 0 {
		o.TaskTimeout = 600 * time.Second
	}
	if o.TaskDelay <= 0 {
		o.TaskDelay = time.Second
	}
	return o
}

// OptsFromConfig builds batch options from the analysis configuration section.
func OptsFromConfig(cfg shared.AnalysisConfig) BatchOpts {
	return BatchOpts{
		PollInterval: cfg.PollInterval(),
		TaskTimeout:  cfg.TaskTimeout(),
		TaskDelay:    cfg.TaskDelay(),
	}
}

// BatchEngine implements AnalysisEngine against the media backend.
type BatchEngine struct {
	backend Backend
	token   string
	bus     *shared.Bus
	opts    BatchOpts
}

// NewBatchEngine creates a batch engine. The token is attached to every
// backend call; the bus, when present, receives a media.updated event after
// each run so open views can refresh.
func NewBatchEngine(backend Backend, token string, bus *shared.Bus, opts BatchOpts) *BatchEngine {
	return &BatchEngine{
		backend: backend,
		token:   token,
		bus:     bus,
		opts:    opts.withDefaults(),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *BatchEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes the batch. Non-image media are filtered out up front; a run
// with zero eligible items never starts. Each task's failure is contained to
// that task, so a mid-batch error never aborts the remaining items.
func (e *BatchEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, media []models.Media, opts models.AnalysisOptions) (*models.BatchRun, error) {
	if e.backend == nil {
		return nil, fmt.Errorf("%w: backend client not initialized", shared.ErrServiceUnavailable)
	}

	eligible := make([]models.Media, 0, len(media))
	for _, m := range media {
		if m.IsImage() {
			eligible = append(eligible, m)
		}
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: selection contains no image media", shared.ErrNoEligibleMedia)
	}

	run := models.NewBatchRun(opts.Model, eligible)
	run.SetID(shared.GenerateID())
	run.Start()

	total := len(eligible)
	for i := range eligible {
		run.Advance(i)
		e.processTask(ctx, progress, run.Task(i), i+1, total, opts)

		if ctx.Err() != nil {
			break
		}
		if i < total-1 {
			e.sendProgress(progress, waitingUpdate(i+1, total))
			if !sleepCtx(ctx, e.opts.TaskDelay) {
				break
			}
		}
	}

	run.Finish()

	counts := run.Counts()
	e.sendProgress(progress, runFinishedUpdate(counts))
	if e.bus != nil {
		e.bus.Publish(shared.TopicMediaUpdated, counts)
	}

	return run, ctx.Err()
}

// processTask drives one task to a terminal state. Submission errors,
// backend-reported failures and timeouts all land in MarkFailed; only the
// error message distinguishes them.
func (e *BatchEngine) processTask(ctx context.Context, progress chan<- ProgressUpdate, task *models.AnalysisTask, step, total int, opts models.AnalysisOptions) {
	e.sendProgress(progress, submitUpdate(step, total, task.MediaID))

	analysisID, err := e.backend.SubmitAnalysis(ctx, e.token, task.MediaID, opts)
	if err != nil {
		task.MarkFailed(err.Error())
		e.sendProgress(progress, taskFailedUpdate(step, total, task.MediaID, err.Error()))
		return
	}

	task.AnalysisID = analysisID
	task.MarkProcessing()

	deadline := time.Now().Add(e.opts.TaskTimeout)
	for {
		if !sleepCtx(ctx, e.opts.PollInterval) {
			task.MarkFailed(fmt.Sprintf("cancelled: %v", ctx.Err()))
			return
		}
		if time.Now().After(deadline) {
			message := fmt.Sprintf("%v after %s", shared.ErrTaskTimeout, e.opts.TaskTimeout)
			task.MarkFailed(message)
			e.sendProgress(progress, taskFailedUpdate(step, total, task.MediaID, message))
			return
		}

		status, err := e.backend.AnalysisStatus(ctx, e.token, analysisID)
		if err != nil {
			// Transient poll failure; keep polling until the deadline.
			continue
		}

		switch models.TaskStatus(status.Status) {
		case models.TaskCompleted:
			task.MarkCompleted(status.Result)
			e.sendProgress(progress, taskCompletedUpdate(step, total, task.MediaID))
			return
		case models.TaskFailed:
			message := status.Error
			if message == "" {
				message = "analysis failed"
			}
			task.MarkFailed(message)
			e.sendProgress(progress, taskFailedUpdate(step, total, task.MediaID, message))
			return
		default:
			task.UpdatePolling(models.TaskStatus(status.Status))
			e.sendProgress(progress, pollUpdate(step, total, task.MediaID, task.Progress))
		}
	}
}

// sleepCtx waits for d, returning false if the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
