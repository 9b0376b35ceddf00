// Package pipeline runs the full single-adsorbate workflow: workspace setup,
// optimization, site screening, validate/clean/recover, reload, best-site
// selection, and the translation and rotation NEB preparations. One Executor
// invocation is the unit of work handed to the dispatch pool.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/bus"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/engine"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/screening"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/workspace"
)

// TaskResult is the all-or-nothing per-item payload: both barriers computed,
// or nothing at all. There is no partial-barrier success state.
type TaskResult struct {
	Translation *engine.NEBResult `json:"translation"`
	Rotation    *engine.NEBResult `json:"rotation"`
	BestSite    screening.Site    `json:"best_site"`
}

// Outcome is what one pipeline run hands back to the dispatcher. Result nil
// means the item failed; Err then carries the stage fault that sank it.
type Outcome struct {
	Item    string
	Result  *TaskResult
	Ranking screening.Ranking
	Err     error
	Stages  []StageTiming
}

// StageTiming records how long one stage of the pipeline took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Options carries the per-run knobs the executor needs beyond the engine.
type Options struct {
	BaseDir       string
	Centering     string
	Exhaustive    bool
	Images        int
	RotationAngle float64
}

type Executor struct {
	engine engine.Engine
	opts   Options
	events *bus.Publisher
}

func NewExecutor(eng engine.Engine, opts Options, events *bus.Publisher) *Executor {
	if opts.Images == 0 {
		opts.Images = 10
	}
	if opts.RotationAngle == 0 {
		opts.RotationAngle = 120
	}
	if opts.Centering == "" {
		opts.Centering = "site"
	}
	return &Executor{engine: eng, opts: opts, events: events}
}

// Run executes every stage for one adsorbate. It never lets a fault escape:
// stage errors and collaborator panics alike are logged with the item's
// identity and folded into an absent Outcome, so one item can never abort
// the batch.
func (e *Executor) Run(ctx context.Context, item string) (outcome Outcome) {
	outcome.Item = item

	defer func() {
		if r := recover(); r != nil {
			outcome.Result = nil
			outcome.Err = fmt.Errorf("panic in pipeline: %v", r)
		}
		if outcome.Err != nil {
			slog.Error("adsorbate failed", "item", item, "error", outcome.Err)
			e.events.Emit(bus.EventItemFailed, item, "", map[string]any{"error": outcome.Err.Error()})
		}
	}()

	slog.Info("starting adsorbate", "item", item)
	e.events.Emit(bus.EventItemStarted, item, "", nil)

	result, ranking, err := e.run(ctx, item, &outcome.Stages)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.Result = result
	outcome.Ranking = ranking
	slog.Info("adsorbate completed", "item", item,
		"translation_barrier_ev", result.Translation.BarrierEV,
		"rotation_barrier_ev", result.Rotation.BarrierEV)
	e.events.Emit(bus.EventItemCompleted, item, "", map[string]any{
		"best_site":              result.BestSite.ID,
		"translation_barrier_ev": result.Translation.BarrierEV,
		"rotation_barrier_ev":    result.Rotation.BarrierEV,
	})
	return outcome
}

func (e *Executor) run(ctx context.Context, item string, timings *[]StageTiming) (*TaskResult, screening.Ranking, error) {
	ws := workspace.Layout{BaseDir: e.opts.BaseDir, Item: item}

	stage := func(name string, fn func() error) error {
		e.events.Emit(bus.EventItemStage, item, name, nil)
		start := time.Now()
		err := fn()
		*timings = append(*timings, StageTiming{Stage: name, Duration: time.Since(start)})
		if err != nil {
			return &StageError{Item: item, Stage: name, Err: err}
		}
		return nil
	}

	if err := stage("workspace", ws.Ensure); err != nil {
		return nil, nil, err
	}

	var slab, ads chem.Structure
	if err := stage("optimize-slab", func() error {
		var err error
		slab, err = e.engine.OptimizeSlab(ctx)
		return err
	}); err != nil {
		return nil, nil, err
	}
	if err := stage("optimize-adsorbate", func() error {
		raw, err := e.engine.Initialize(ctx, item)
		if err != nil {
			return err
		}
		ads, err = e.engine.Optimize(ctx, raw)
		return err
	}); err != nil {
		return nil, nil, err
	}

	if err := stage("screening", func() error {
		// The in-memory return is deliberately discarded; downstream
		// stages only trust the reloaded canonical file.
		_, err := e.engine.Screen(ctx, slab, ads, engine.ScreenOptions{
			Centering:  e.opts.Centering,
			Exhaustive: e.opts.Exhaustive,
			Workdir:    ws.ScreeningDir(),
		})
		return err
	}); err != nil {
		return nil, nil, err
	}

	if err := stage("validate", func() error {
		rep, err := screening.Validate(ws.ScreeningDir())
		if err != nil {
			return err
		}
		if !rep.OK() {
			slog.Warn("screening output incomplete", "item", item,
				"partial", len(rep.Partial), "corrupt", len(rep.Corrupt))
		}
		return nil
	}); err != nil {
		return nil, nil, err
	}

	if err := stage("clean", func() error {
		removed, err := screening.Clean(ws.ScreeningDir(), true)
		if err != nil {
			return err
		}
		if len(removed) > 0 {
			slog.Info("cleaned stale screening files", "item", item, "removed", len(removed))
		}
		return nil
	}); err != nil {
		return nil, nil, err
	}

	if err := stage("recover", func() error {
		return screening.Recover(ws.ScreeningDir())
	}); err != nil {
		return nil, nil, err
	}

	// Reload is the commit point: the object used from here on reflects
	// the repaired on-disk state, never the screening stage's memory.
	var results *screening.Results
	if err := stage("reload", func() error {
		var err error
		results, err = screening.Load(ws.ResultsPath())
		return err
	}); err != nil {
		return nil, nil, err
	}

	var ranking screening.Ranking
	var best screening.Site
	if err := stage("rank", func() error {
		var err error
		ranking, best, err = screening.Rank(results)
		return err
	}); err != nil {
		return nil, nil, err
	}
	slog.Info("best site selected", "item", item, "site", best.ID, "energy_ev", best.Energy)

	var startT, endT, startR, endR chem.Structure
	if err := stage("endpoints-translation", func() error {
		var err error
		startT, endT, err = e.engine.TranslationEndpoints(best, results)
		return err
	}); err != nil {
		return nil, nil, err
	}
	if err := stage("endpoints-rotation", func() error {
		var err error
		startR, endR, err = e.engine.RotationEndpoints(best, results, e.opts.RotationAngle)
		return err
	}); err != nil {
		return nil, nil, err
	}

	result := &TaskResult{BestSite: best}
	if err := stage("neb-translation", func() error {
		var err error
		result.Translation, err = e.engine.RunNEB(ctx, startT, endT, engine.NEBOptions{
			Images:  e.opts.Images,
			Kind:    engine.Translation,
			Workdir: ws.TranslationDir(),
		})
		return err
	}); err != nil {
		return nil, nil, err
	}
	if err := stage("neb-rotation", func() error {
		var err error
		result.Rotation, err = e.engine.RunNEB(ctx, startR, endR, engine.NEBOptions{
			Images:  e.opts.Images,
			Kind:    engine.Rotation,
			Workdir: ws.RotationDir(),
		})
		return err
	}); err != nil {
		return nil, nil, err
	}

	return result, ranking, nil
}
