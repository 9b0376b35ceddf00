// Package engine defines the boundary to the numerical subsystems. The
// orchestrator only calls through this interface and persists whatever comes
// back; it never inspects the numerics.
package engine

import (
	"context"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/screening"
)

// BarrierKind tags the two independent NEB sub-pipelines.
type BarrierKind string

const (
	Translation BarrierKind = "translation"
	Rotation    BarrierKind = "rotation"
)

// ScreenOptions configures the site screening search.
type ScreenOptions struct {
	// Centering selects how the adsorbate is positioned over a candidate
	// site ("site" centers on the site itself).
	Centering string
	// Exhaustive evaluates every symmetry-distinct site instead of the
	// abbreviated subset.
	Exhaustive bool
	// Workdir receives streamed per-site artifacts as the search runs.
	Workdir string
}

// NEBOptions configures one path-search run.
type NEBOptions struct {
	Images  int
	Kind    BarrierKind
	Workdir string
}

// NEBResult is the path-search outcome. The pipeline carries it into the
// batch result and the ledger without interpreting it.
type NEBResult struct {
	Kind       BarrierKind `json:"kind"`
	BarrierEV  float64     `json:"barrier_ev"`
	Energies   []float64   `json:"energies_ev"`
	Converged  bool        `json:"converged"`
	Iterations int         `json:"iterations"`
}

// Engine is implemented by each calculator backend. Long-running calls take
// a context; cancelling it is the only way to abort an in-flight operation.
type Engine interface {
	// Initialize builds the named adsorbate's starting geometry.
	Initialize(ctx context.Context, name string) (chem.Structure, error)
	// Optimize relaxes a free-standing structure.
	Optimize(ctx context.Context, s chem.Structure) (chem.Structure, error)
	// OptimizeSlab relaxes the shared substrate slab.
	OptimizeSlab(ctx context.Context) (chem.Structure, error)
	// Screen searches candidate adsorption sites, streaming per-site
	// artifacts and the canonical results file into opts.Workdir.
	Screen(ctx context.Context, slab, ads chem.Structure, opts ScreenOptions) (*screening.Results, error)
	// TranslationEndpoints picks start/end structures for the lateral
	// displacement barrier relative to the best site.
	TranslationEndpoints(best screening.Site, res *screening.Results) (chem.Structure, chem.Structure, error)
	// RotationEndpoints picks start/end structures for the in-place
	// rotation barrier, rotating by angleDeg.
	RotationEndpoints(best screening.Site, res *screening.Results, angleDeg float64) (chem.Structure, chem.Structure, error)
	// RunNEB interpolates an image chain between the endpoints and runs
	// the path search, writing into opts.Workdir.
	RunNEB(ctx context.Context, start, end chem.Structure, opts NEBOptions) (*NEBResult, error)
}
