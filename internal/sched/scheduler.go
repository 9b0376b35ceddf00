package sched

import (
	"context"
	"log/slog"
	"time"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/ledger"
)

// BatchRunner dispatches one batch of adsorbates and blocks until it is done.
type BatchRunner interface {
	RunBatch(ctx context.Context, adsorbates []string) (runID string, err error)
}

type Scheduler struct {
	ledger       *ledger.Ledger
	runner       BatchRunner
	pollInterval time.Duration
}

func New(l *ledger.Ledger, runner BatchRunner, pollInterval time.Duration) *Scheduler {
	return &Scheduler{
		ledger:       l,
		runner:       runner,
		pollInterval: pollInterval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s.pollInterval == 0 {
		s.pollInterval = 30 * time.Second
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	slog.Info("scheduler started", "poll_interval", s.pollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context) {
	batches, err := s.ledger.DueBatches(time.Now())
	if err != nil {
		slog.Error("failed to get due batches", "error", err)
		return
	}

	for _, batch := range batches {
		s.execute(ctx, batch)
	}
}

func (s *Scheduler) execute(ctx context.Context, batch ledger.Batch) {
	slog.Info("executing scheduled batch", "id", batch.ID, "name", batch.Name, "adsorbates", len(batch.Adsorbates))

	runID, err := s.runner.RunBatch(ctx, batch.Adsorbates)

	var lastStatus, lastError string
	if err != nil {
		lastStatus = "error"
		lastError = err.Error()
		slog.Error("scheduled batch failed", "id", batch.ID, "error", err)
	} else {
		lastStatus = "success"
		slog.Info("scheduled batch finished", "id", batch.ID, "run", runID)
	}

	nextRun := NextRun(batch.Schedule)
	if nextRun == nil {
		slog.Info("no next run, marking one-off batch as completed", "id", batch.ID, "name", batch.Name)
	}

	if err := s.ledger.UpdateBatchRun(batch.ID, lastStatus, lastError, nextRun); err != nil {
		slog.Error("failed to update batch run", "id", batch.ID, "error", err)
	}
}
