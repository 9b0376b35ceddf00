// Package surrogate is a deterministic stand-in calculator. It makes no
// physics claims: energies come from a smooth closed-form potential seeded by
// the adsorbate name, so a given batch always reproduces the same numbers.
// It writes the same artifact shapes a production calculator would, which
// makes it the default backend for dry runs and tests.
package surrogate

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/engine"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/screening"
)

type Engine struct {
	slab config.SlabConfig
}

func New(slab config.SlabConfig) *Engine {
	if slab.Material == "" {
		slab.Material = "Pt"
	}
	if slab.Size == 0 {
		slab.Size = 4
	}
	if slab.LatticeConstant == 0 {
		slab.LatticeConstant = 3.92
	}
	return &Engine{slab: slab}
}

// seed maps a name to a stable value in [0, 1).
func seed(name string) float64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return float64(h.Sum64()%1_000_000) / 1_000_000
}

func (e *Engine) Initialize(ctx context.Context, name string) (chem.Structure, error) {
	counts, err := chem.ParseFormula(name)
	if err != nil {
		return chem.Structure{}, fmt.Errorf("initialize %s: %w", name, err)
	}

	// Place atoms on a ring around the first symbol, radius a typical bond
	// length. Good enough for a geometry the optimizer will move anyway.
	s := chem.Structure{Name: name}
	i := 0
	total := chem.AtomCount(counts)
	for _, sym := range sortedSymbols(counts) {
		for n := 0; n < counts[sym]; n++ {
			angle := 2 * math.Pi * float64(i) / float64(total)
			s.Atoms = append(s.Atoms, chem.Atom{
				Symbol:   sym,
				Position: [3]float64{1.1 * math.Cos(angle), 1.1 * math.Sin(angle), 0},
			})
			i++
		}
	}
	return s, nil
}

func (e *Engine) Optimize(ctx context.Context, s chem.Structure) (chem.Structure, error) {
	if err := ctx.Err(); err != nil {
		return chem.Structure{}, err
	}
	out := s.Copy()
	// Pull the geometry toward its centroid a little and assign the relaxed
	// energy from the surrogate potential.
	c := out.Centroid()
	for i := range out.Atoms {
		for k := 0; k < 3; k++ {
			out.Atoms[i].Position[k] = c[k] + 0.95*(out.Atoms[i].Position[k]-c[k])
		}
	}
	out.Energy = -1.0 - 3.0*seed(out.Name) - 0.1*float64(len(out.Atoms))
	return out, nil
}

func (e *Engine) OptimizeSlab(ctx context.Context) (chem.Structure, error) {
	if err := ctx.Err(); err != nil {
		return chem.Structure{}, err
	}

	a := e.slab.LatticeConstant / math.Sqrt2
	n := e.slab.Size
	s := chem.Structure{
		Name: fmt.Sprintf("%s(111)-%dx%d", e.slab.Material, n, n),
		Cell: [3][3]float64{
			{float64(n) * a, 0, 0},
			{float64(n) * a / 2, float64(n) * a * math.Sqrt(3) / 2, 0},
			{0, 0, 20},
		},
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s.Atoms = append(s.Atoms, chem.Atom{
				Symbol:   e.slab.Material,
				Position: [3]float64{float64(i) * a, float64(j) * a, 0},
			})
		}
	}
	s.Energy = -5.5 * float64(len(s.Atoms))
	return s, nil
}

// siteEnergy is the surrogate binding potential: a smooth corrugation over
// the surface offset by the adsorbate's seed.
func siteEnergy(name string, x, y float64) float64 {
	s := seed(name)
	return -2.0 - s + 0.4*math.Cos(x+2*math.Pi*s) + 0.3*math.Sin(y-2*math.Pi*s)
}

func (e *Engine) Screen(ctx context.Context, slab, ads chem.Structure, opts engine.ScreenOptions) (*screening.Results, error) {
	a := e.slab.LatticeConstant / math.Sqrt2
	n := e.slab.Size
	step := 1
	if !opts.Exhaustive {
		step = 2
	}

	res := screening.NewResults(ads.Name, slab)
	for i := 0; i < n; i += step {
		for j := 0; j < n; j += step {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			x, y := float64(i)*a, float64(j)*a
			placed := ads.Copy()
			if opts.Centering == "site" {
				c := placed.Centroid()
				placed.Translate(x-c[0], y-c[1], 2.0-c[2])
			}
			placed.Energy = siteEnergy(ads.Name, x, y)

			site := screening.Site{
				ID:        fmt.Sprintf("%d_%d", i, j),
				Position:  [3]float64{x, y, 2.0},
				Energy:    placed.Energy,
				Converged: true,
				Structure: placed,
			}
			if err := screening.WriteSiteArtifact(opts.Workdir, site); err != nil {
				return nil, err
			}
			res.Sites[site.ID] = site
		}
	}

	if err := res.Save(canonical(opts.Workdir)); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) TranslationEndpoints(best screening.Site, res *screening.Results) (chem.Structure, chem.Structure, error) {
	start := best.Structure.Copy()
	end := best.Structure.Copy()
	// Slide one nearest-neighbor spacing along the surface.
	end.Translate(e.slab.LatticeConstant/math.Sqrt2, 0, 0)
	end.Energy = siteEnergy(res.Adsorbate, best.Position[0]+e.slab.LatticeConstant/math.Sqrt2, best.Position[1])
	return start, end, nil
}

func (e *Engine) RotationEndpoints(best screening.Site, res *screening.Results, angleDeg float64) (chem.Structure, chem.Structure, error) {
	start := best.Structure.Copy()
	end := best.Structure.Copy()
	end.RotateZ(angleDeg, best.Position[0], best.Position[1])
	end.Energy = start.Energy + 0.05*seed(res.Adsorbate)
	return start, end, nil
}

func (e *Engine) RunNEB(ctx context.Context, start, end chem.Structure, opts engine.NEBOptions) (*engine.NEBResult, error) {
	if opts.Images < 2 {
		return nil, fmt.Errorf("neb needs at least 2 images, got %d", opts.Images)
	}

	// Linear interpolation with a parabolic barrier on top; height depends
	// on the barrier kind and the adsorbate seed.
	height := 0.3 + 0.5*seed(start.Name+string(opts.Kind))
	energies := make([]float64, opts.Images)
	peak := 0.0
	for i := range energies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := float64(i) / float64(opts.Images-1)
		energies[i] = (1-t)*start.Energy + t*end.Energy + 4*height*t*(1-t)
		if energies[i]-energies[0] > peak {
			peak = energies[i] - energies[0]
		}

		img := interpolate(start, end, t)
		img.Energy = energies[i]
		if err := writeImage(opts.Workdir, i, img); err != nil {
			return nil, err
		}
	}

	result := &engine.NEBResult{
		Kind:       opts.Kind,
		BarrierEV:  peak,
		Energies:   energies,
		Converged:  true,
		Iterations: 12 + int(50*seed(start.Name)),
	}
	if err := writeResult(opts.Workdir, result); err != nil {
		return nil, err
	}
	return result, nil
}

func interpolate(start, end chem.Structure, t float64) chem.Structure {
	img := start.Copy()
	for i := range img.Atoms {
		if i >= len(end.Atoms) {
			break
		}
		for k := 0; k < 3; k++ {
			img.Atoms[i].Position[k] = (1-t)*start.Atoms[i].Position[k] + t*end.Atoms[i].Position[k]
		}
	}
	return img
}
