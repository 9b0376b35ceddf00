package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/engine"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/screening"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/workspace"
)

// stubEngine is a scriptable engine: each hook can be overridden to fail or
// misbehave in exactly one stage. The default behavior succeeds end to end
// and writes real artifacts, so the reload stage exercises the same on-disk
// path production code does.
type stubEngine struct {
	failScreen    error
	panicOptimize bool
	failNEB       map[engine.BarrierKind]error
	// ghostSite, when set, is present in Screen's in-memory return but
	// withheld from the canonical file on disk.
	ghostSite *screening.Site
}

func (s *stubEngine) Initialize(ctx context.Context, name string) (chem.Structure, error) {
	return chem.Structure{Name: name, Atoms: []chem.Atom{{Symbol: "C"}}}, nil
}

func (s *stubEngine) Optimize(ctx context.Context, st chem.Structure) (chem.Structure, error) {
	if s.panicOptimize {
		panic("optimizer exploded")
	}
	st.Energy = -1
	return st, nil
}

func (s *stubEngine) OptimizeSlab(ctx context.Context) (chem.Structure, error) {
	return chem.Structure{Name: "slab"}, nil
}

func (s *stubEngine) Screen(ctx context.Context, slab, ads chem.Structure, opts engine.ScreenOptions) (*screening.Results, error) {
	if s.failScreen != nil {
		return nil, s.failScreen
	}

	res := screening.NewResults(ads.Name, slab)
	for i, energy := range []float64{-1.0, -2.5, -1.8} {
		site := screening.Site{
			ID:        fmt.Sprintf("%d_0", i),
			Energy:    energy,
			Converged: true,
			Structure: ads,
		}
		res.Sites[site.ID] = site
		if err := screening.WriteSiteArtifact(opts.Workdir, site); err != nil {
			return nil, err
		}
	}
	if err := res.Save(canonicalPath(opts.Workdir)); err != nil {
		return nil, err
	}

	if s.ghostSite != nil {
		// In memory only: simulates a site the screening stage believed
		// in but never committed to disk.
		res.Sites[s.ghostSite.ID] = *s.ghostSite
	}
	return res, nil
}

func (s *stubEngine) TranslationEndpoints(best screening.Site, res *screening.Results) (chem.Structure, chem.Structure, error) {
	return best.Structure, best.Structure, nil
}

func (s *stubEngine) RotationEndpoints(best screening.Site, res *screening.Results, angleDeg float64) (chem.Structure, chem.Structure, error) {
	return best.Structure, best.Structure, nil
}

func (s *stubEngine) RunNEB(ctx context.Context, start, end chem.Structure, opts engine.NEBOptions) (*engine.NEBResult, error) {
	if err := s.failNEB[opts.Kind]; err != nil {
		return nil, err
	}
	return &engine.NEBResult{Kind: opts.Kind, BarrierEV: 0.4, Converged: true}, nil
}

func canonicalPath(dir string) string {
	return filepath.Join(dir, workspace.ResultsFileName)
}

func newTestExecutor(t *testing.T, eng engine.Engine) *Executor {
	t.Helper()
	return NewExecutor(eng, Options{
		BaseDir:       t.TempDir(),
		Exhaustive:    true,
		Images:        10,
		RotationAngle: 120,
	}, nil)
}

func TestRunSuccessHasBothBarriers(t *testing.T) {
	e := newTestExecutor(t, &stubEngine{})

	out := e.Run(context.Background(), "CO")
	if out.Err != nil {
		t.Fatalf("run: %v", out.Err)
	}
	if out.Result == nil {
		t.Fatal("expected a present result")
	}
	if out.Result.Translation == nil || out.Result.Rotation == nil {
		t.Fatal("a present result must carry both barriers")
	}
	if out.Result.BestSite.ID != "1_0" {
		t.Errorf("best site: got %s, want 1_0", out.Result.BestSite.ID)
	}
	if len(out.Ranking) != 3 {
		t.Errorf("ranking: got %d entries, want 3", len(out.Ranking))
	}
}

func TestRunRecordsStageTimings(t *testing.T) {
	e := newTestExecutor(t, &stubEngine{})

	out := e.Run(context.Background(), "CO")
	if out.Err != nil {
		t.Fatalf("run: %v", out.Err)
	}

	want := []string{
		"workspace", "optimize-slab", "optimize-adsorbate", "screening",
		"validate", "clean", "recover", "reload", "rank",
		"endpoints-translation", "endpoints-rotation",
		"neb-translation", "neb-rotation",
	}
	if len(out.Stages) != len(want) {
		t.Fatalf("expected %d stage timings, got %d", len(want), len(out.Stages))
	}
	for i, name := range want {
		if out.Stages[i].Stage != name {
			t.Errorf("stage %d: got %s, want %s", i, out.Stages[i].Stage, name)
		}
	}
}

func TestRunStageFaultYieldsAbsent(t *testing.T) {
	boom := errors.New("screening crashed")
	e := newTestExecutor(t, &stubEngine{failScreen: boom})

	out := e.Run(context.Background(), "CO")
	if out.Result != nil {
		t.Fatal("expected absent result after stage fault")
	}

	var stageErr *StageError
	if !errors.As(out.Err, &stageErr) {
		t.Fatalf("expected StageError, got %T", out.Err)
	}
	if stageErr.Stage != "screening" || stageErr.Item != "CO" {
		t.Errorf("stage error: %+v", stageErr)
	}
	if !errors.Is(out.Err, boom) {
		t.Error("stage error must unwrap to the collaborator fault")
	}
}

func TestRunSingleBarrierFailureSinksItem(t *testing.T) {
	e := newTestExecutor(t, &stubEngine{
		failNEB: map[engine.BarrierKind]error{engine.Rotation: errors.New("saddle search diverged")},
	})

	out := e.Run(context.Background(), "CO")
	if out.Result != nil {
		t.Fatal("no partial-barrier success: result must be absent")
	}

	var stageErr *StageError
	if !errors.As(out.Err, &stageErr) || stageErr.Stage != "neb-rotation" {
		t.Fatalf("expected neb-rotation stage error, got %v", out.Err)
	}
}

func TestRunRecoversCollaboratorPanic(t *testing.T) {
	e := newTestExecutor(t, &stubEngine{panicOptimize: true})

	out := e.Run(context.Background(), "CO")
	if out.Result != nil {
		t.Fatal("expected absent result after panic")
	}
	if out.Err == nil {
		t.Fatal("expected an error describing the panic")
	}
}

func TestRunUsesReloadedResultsNotScreeningMemory(t *testing.T) {
	// The ghost site would win the ranking if the pipeline trusted the
	// screening stage's in-memory object. It only exists in memory, so the
	// reload stage must exclude it.
	ghost := &screening.Site{ID: "ghost", Energy: -99, Converged: true}
	e := newTestExecutor(t, &stubEngine{ghostSite: ghost})

	out := e.Run(context.Background(), "CO")
	if out.Err != nil {
		t.Fatalf("run: %v", out.Err)
	}
	if out.Result.BestSite.ID == "ghost" {
		t.Fatal("best site came from pre-reload in-memory results")
	}
	for _, site := range out.Ranking {
		if site.ID == "ghost" {
			t.Fatal("ghost site leaked into the ranking")
		}
	}
}

func TestStageErrorFormatting(t *testing.T) {
	err := &StageError{Item: "NH3", Stage: "reload", Err: errors.New("no such file")}
	want := "NH3: stage reload: no such file"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
