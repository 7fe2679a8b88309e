package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driving"
	"github.com/custodia-labs/courselens/internal/logger"
)

// Ensure BatchProgressTracker implements the interface.
var _ driving.BatchService = (*BatchProgressTracker)(nil)

// BatchProgressTracker drives page-sized generate calls until nothing is
// pending for the requested scope. Batches run one after another.
type BatchProgressTracker struct {
	generator  driving.EmbeddingService
	pageSize   int
	maxBatches int
	now        func() time.Time

	mu    sync.Mutex
	state domain.BatchState
}

// NewBatchProgressTracker creates an idle tracker.
func NewBatchProgressTracker(generator driving.EmbeddingService, settings domain.GenerationSettings) *BatchProgressTracker {
	return &BatchProgressTracker{
		generator:  generator,
		pageSize:   settings.PageSize,
		maxBatches: settings.MaxBatches,
		now:        time.Now,
		state:      domain.BatchStateIdle,
	}
}

// State returns the current state of the tracker.
func (t *BatchProgressTracker) State() domain.BatchState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *BatchProgressTracker) setState(s domain.BatchState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
}

// run holds the running totals of one Run call.
type run struct {
	start     time.Time
	batches   int
	processed int
	failed    int
	pending   int
}

// Run drives generation with the configured page size.
func (t *BatchProgressTracker) Run(
	ctx context.Context, scope domain.SourceKind, force bool, onProgress func(domain.ProgressEvent),
) (*domain.ProgressReport, error) {
	return t.RunPages(ctx, scope, force, t.pageSize, onProgress)
}

// RunPages repeatedly generates pageSize items and re-reads stats until
// pending reaches zero. Any error moves the tracker to failed and is returned
// with its message intact. Records already written are kept.
func (t *BatchProgressTracker) RunPages(
	ctx context.Context, scope domain.SourceKind, force bool, pageSize int, onProgress func(domain.ProgressEvent),
) (*domain.ProgressReport, error) {
	if pageSize <= 0 {
		pageSize = t.pageSize
	}

	t.mu.Lock()
	if t.state == domain.BatchStateRunning {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: batch generation already running", domain.ErrValidation)
	}
	t.state = domain.BatchStateRunning
	t.mu.Unlock()

	logger.Section("Batch Generation")

	r := &run{start: t.now()}
	emit := func(state domain.BatchState, msg string) {
		if onProgress != nil {
			onProgress(t.event(r, state, msg))
		}
	}

	staleBefore := time.Time{}
	if force {
		staleBefore = r.start
	}

	stats, err := t.generator.Stats(ctx, scope, staleBefore)
	if err != nil {
		return t.fail(r, err, emit)
	}
	r.pending = stats.Pending(scope)
	emit(domain.BatchStateRunning, "")

	for r.pending > 0 {
		if r.batches >= t.maxBatches {
			return t.fail(r, domain.ErrBatchLimitExceeded, emit)
		}

		res, err := t.generator.Generate(ctx, domain.GenerateRequest{
			Kind:        scope,
			Limit:       pageSize,
			Force:       force,
			ForceBefore: staleBefore,
		})
		r.batches++
		if res != nil {
			r.processed += res.Processed
			r.failed += res.Failed
		}
		if err != nil {
			return t.fail(r, err, emit)
		}

		stats, err = t.generator.Stats(ctx, scope, staleBefore)
		if err != nil {
			return t.fail(r, err, emit)
		}
		r.pending = stats.Pending(scope)

		logger.Debug("Batch %d: processed=%d pending=%d", r.batches, r.processed, r.pending)
		emit(domain.BatchStateRunning, "")
	}

	t.setState(domain.BatchStateComplete)
	emit(domain.BatchStateComplete, "")
	logger.Info("Batch generation complete: %d processed in %d batches", r.processed, r.batches)
	return t.report(r, domain.BatchStateComplete, ""), nil
}

func (t *BatchProgressTracker) fail(
	r *run, err error, emit func(domain.BatchState, string),
) (*domain.ProgressReport, error) {
	t.setState(domain.BatchStateFailed)
	emit(domain.BatchStateFailed, err.Error())
	logger.Warn("Batch generation failed after %d batches: %v", r.batches, err)
	return t.report(r, domain.BatchStateFailed, err.Error()), err
}

// rate is items per second over the whole run, not the last batch.
func (t *BatchProgressTracker) rate(r *run) (float64, time.Duration) {
	elapsed := t.now().Sub(r.start)
	if elapsed <= 0 {
		return 0, elapsed
	}
	return float64(r.processed) / elapsed.Seconds(), elapsed
}

func (t *BatchProgressTracker) event(r *run, state domain.BatchState, msg string) domain.ProgressEvent {
	rate, elapsed := t.rate(r)
	return domain.ProgressEvent{
		State:     state,
		Batch:     r.batches,
		Processed: r.processed,
		Failed:    r.failed,
		Pending:   r.pending,
		Rate:      rate,
		Elapsed:   elapsed,
		Message:   msg,
	}
}

func (t *BatchProgressTracker) report(r *run, state domain.BatchState, msg string) *domain.ProgressReport {
	rate, elapsed := t.rate(r)
	return &domain.ProgressReport{
		State:            state,
		Batches:          r.batches,
		Processed:        r.processed,
		Failed:           r.failed,
		RemainingPending: r.pending,
		Rate:             rate,
		Elapsed:          elapsed,
		Message:          msg,
	}
}
