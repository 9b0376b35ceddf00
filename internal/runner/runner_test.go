package runner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/engine"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/ledger"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/screening"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/workspace"
)

type fakeEngine struct {
	fail map[string]bool
}

func (f *fakeEngine) Initialize(ctx context.Context, name string) (chem.Structure, error) {
	return chem.Structure{Name: name}, nil
}

func (f *fakeEngine) Optimize(ctx context.Context, s chem.Structure) (chem.Structure, error) {
	return s, nil
}

func (f *fakeEngine) OptimizeSlab(ctx context.Context) (chem.Structure, error) {
	return chem.Structure{Name: "slab"}, nil
}

func (f *fakeEngine) Screen(ctx context.Context, slab, ads chem.Structure, opts engine.ScreenOptions) (*screening.Results, error) {
	if f.fail[ads.Name] {
		return nil, errors.New("injected fault")
	}
	res := screening.NewResults(ads.Name, slab)
	res.Sites["0_0"] = screening.Site{ID: "0_0", Energy: -2, Converged: true, Structure: ads}
	return res, res.Save(filepath.Join(opts.Workdir, workspace.ResultsFileName))
}

func (f *fakeEngine) TranslationEndpoints(best screening.Site, res *screening.Results) (chem.Structure, chem.Structure, error) {
	return best.Structure, best.Structure, nil
}

func (f *fakeEngine) RotationEndpoints(best screening.Site, res *screening.Results, angleDeg float64) (chem.Structure, chem.Structure, error) {
	return best.Structure, best.Structure, nil
}

func (f *fakeEngine) RunNEB(ctx context.Context, start, end chem.Structure, opts engine.NEBOptions) (*engine.NEBResult, error) {
	return &engine.NEBResult{Kind: opts.Kind, BarrierEV: 0.25, Converged: true}, nil
}

func newTestRunner(t *testing.T, fail map[string]bool) (*Runner, *ledger.Ledger) {
	t.Helper()

	l, err := ledger.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	cfg := &config.Config{}
	cfg.Batch.BaseDir = filepath.Join(t.TempDir(), "Adsorbates")
	cfg.Batch.Workers = 2
	cfg.Screening.Exhaustive = true
	cfg.NEB.Images = 10
	cfg.NEB.RotationAngle = 120

	return New(cfg, &fakeEngine{fail: fail}, l, nil, nil), l
}

func TestRunBatchRecordsEverything(t *testing.T) {
	r, l := newTestRunner(t, map[string]bool{"NH3": true})

	runID, err := r.RunBatch(context.Background(), []string{"CO", "OH", "NH3"})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}

	run, err := l.GetRun(runID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run == nil || run.Status != "completed" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.OK != 2 || run.Failed != 1 {
		t.Errorf("counts: ok=%d failed=%d", run.OK, run.Failed)
	}
	if run.Report == "" {
		t.Error("run has no report")
	}

	items, err := l.GetRunItems(runID)
	if err != nil {
		t.Fatalf("get run items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
}

func TestRunBatchAllFailedMarksRunFailed(t *testing.T) {
	r, l := newTestRunner(t, map[string]bool{"CO": true})

	runID, err := r.RunBatch(context.Background(), []string{"CO"})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}

	run, _ := l.GetRun(runID)
	if run.Status != "failed" {
		t.Errorf("status: got %s, want failed", run.Status)
	}
}

func TestResultsRebuildsMapping(t *testing.T) {
	r, _ := newTestRunner(t, map[string]bool{"NH3": true})

	runID, err := r.RunBatch(context.Background(), []string{"CO", "NH3"})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}

	results, err := r.Results(runID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(results))
	}
	if results["CO"] == nil || results["CO"].Translation == nil || results["CO"].Rotation == nil {
		t.Errorf("CO result incomplete: %+v", results["CO"])
	}
	if res, ok := results["NH3"]; !ok || res != nil {
		t.Errorf("NH3 should be the absent sentinel, got %+v", res)
	}
}
