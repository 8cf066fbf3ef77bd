package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/service"
	"github.com/scanvault/api/internal/store"
)

// Poller is the part of the reconciliation engine the sweep drives
type Poller interface {
	PollFrom(ctx context.Context, jobID string, source service.ObservationSource) (*model.JobRecord, error)
}

// SweepWorker re-polls every non-terminal job so records converge even when
// no client is polling and webhooks are lost.
type SweepWorker struct {
	store       store.JobStore
	poller      Poller
	concurrency int
	logger      *zap.Logger
}

// SweepStats summarizes one sweep run
type SweepStats struct {
	Checked  int
	Changed  int
	Failed   int
	Duration time.Duration
}

func NewSweepWorker(jobStore store.JobStore, poller Poller, concurrency int, logger *zap.Logger) *SweepWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &SweepWorker{
		store:       jobStore,
		poller:      poller,
		concurrency: concurrency,
		logger:      logger.Named("sweep"),
	}
}

// ProcessTask handles the periodic jobs:sweep task
func (w *SweepWorker) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	_, err := w.Sweep(ctx)
	return err
}

// Sweep polls all active jobs with bounded concurrency. Per-job failures are
// logged and counted; only failing to list jobs is an error.
func (w *SweepWorker) Sweep(ctx context.Context) (SweepStats, error) {
	start := time.Now()

	jobs, err := w.store.ListActive(ctx)
	if err != nil {
		return SweepStats{}, err
	}

	var changed, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			updated, err := w.poller.PollFrom(gctx, job.ID, service.SourceSweep)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				failed.Add(1)
				w.logger.Warn("sweep poll failed", zap.String("job_id", job.ID), zap.Error(err))
				return nil
			}
			if updated.Status != job.Status {
				changed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SweepStats{}, err
	}

	stats := SweepStats{
		Checked:  len(jobs),
		Changed:  int(changed.Load()),
		Failed:   int(failed.Load()),
		Duration: time.Since(start),
	}
	w.logger.Info("sweep finished",
		zap.Int("checked", stats.Checked),
		zap.Int("changed", stats.Changed),
		zap.Int("failed", stats.Failed),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}
