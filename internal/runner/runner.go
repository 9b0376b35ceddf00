// Package runner wires one batch run end to end: ledger row, progress
// events, pipeline dispatch, report, and completion notice.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/uuid"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/bus"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/dispatch"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/engine"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/ledger"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/notify"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/pipeline"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/report"
)

type Runner struct {
	cfg      *config.Config
	engine   engine.Engine
	ledger   *ledger.Ledger
	events   *bus.Client
	notifier *notify.Notifier
}

// New assembles a runner. ledger is required; events and notifier may be nil
// and are then simply skipped.
func New(cfg *config.Config, eng engine.Engine, l *ledger.Ledger, events *bus.Client, notifier *notify.Notifier) *Runner {
	return &Runner{
		cfg:      cfg,
		engine:   eng,
		ledger:   l,
		events:   events,
		notifier: notifier,
	}
}

// RunBatch dispatches the named adsorbates, blocks until all of them have
// completed or failed, and returns the run ID. One failing item never fails
// the batch; only infrastructure faults (base dir, ledger) do.
func (r *Runner) RunBatch(ctx context.Context, adsorbates []string) (string, error) {
	runID := uuid.New().String()

	workers := r.cfg.Batch.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if err := r.ledger.CreateRun(&ledger.Run{
		ID:      runID,
		BaseDir: r.cfg.Batch.BaseDir,
		Workers: workers,
		Total:   len(adsorbates),
	}); err != nil {
		return "", err
	}

	pub := bus.NewPublisher(r.events, runID)
	pub.Emit(bus.EventRunStarted, "", "", map[string]any{
		"items":   len(adsorbates),
		"workers": workers,
	})
	slog.Info("run started", "run", runID, "items", len(adsorbates), "workers", workers)

	exec := pipeline.NewExecutor(r.engine, pipeline.Options{
		BaseDir:       r.cfg.Batch.BaseDir,
		Centering:     r.cfg.Screening.Centering,
		Exhaustive:    r.cfg.Screening.Exhaustive,
		Images:        r.cfg.NEB.Images,
		RotationAngle: r.cfg.NEB.RotationAngle,
	}, pub)

	// The ledger rows written per outcome are the durable form of the
	// batch result; the in-memory map is rebuilt on demand by Results.
	var outcomes []pipeline.Outcome
	_, err := dispatch.Dispatch(ctx, adsorbates, exec, dispatch.Options{
		BaseDir: r.cfg.Batch.BaseDir,
		Workers: workers,
		OnOutcome: func(o pipeline.Outcome) {
			outcomes = append(outcomes, o)
			if err := r.ledger.RecordOutcome(runID, o); err != nil {
				slog.Error("failed to record outcome", "run", runID, "item", o.Item, "error", err)
			}
		},
	})
	if err != nil {
		_ = r.ledger.CompleteRun(runID, "failed", 0, 0, err.Error())
		pub.Emit(bus.EventRunCompleted, "", "", map[string]any{"status": "failed"})
		return runID, err
	}

	summary := report.Build(outcomes)
	rendered := summary.Render()

	status := "completed"
	if summary.Failed > 0 && summary.OK == 0 && summary.Total > 0 {
		status = "failed"
	}
	if err := r.ledger.CompleteRun(runID, status, summary.OK, summary.Failed, rendered); err != nil {
		return runID, err
	}

	pub.Emit(bus.EventRunCompleted, "", "", map[string]any{
		"status": status,
		"ok":     summary.OK,
		"failed": summary.Failed,
	})
	slog.Info("run finished", "run", runID, "status", status, "ok", summary.OK, "failed", summary.Failed)

	r.notifier.BatchFinished(ctx, runID, summary.OK, summary.Failed, rendered)

	return runID, nil
}

// Results reconstructs the batch result mapping for a finished run from the
// ledger, absent sentinel included.
func (r *Runner) Results(runID string) (dispatch.BatchResult, error) {
	items, err := r.ledger.GetRunItems(runID)
	if err != nil {
		return nil, err
	}
	out := make(dispatch.BatchResult, len(items))
	for _, it := range items {
		if it.Status != "ok" {
			out[it.Item] = nil
			continue
		}
		var res pipeline.TaskResult
		if len(it.Barriers) > 0 {
			var barriers struct {
				Translation *engine.NEBResult `json:"translation"`
				Rotation    *engine.NEBResult `json:"rotation"`
			}
			if err := json.Unmarshal(it.Barriers, &barriers); err != nil {
				return nil, fmt.Errorf("parse barriers for %s: %w", it.Item, err)
			}
			res.Translation = barriers.Translation
			res.Rotation = barriers.Rotation
		}
		out[it.Item] = &res
	}
	return out, nil
}
