package chem

import "math"

// Atom is a single atom: a chemical symbol and a Cartesian position in angstroms.
type Atom struct {
	Symbol   string     `json:"symbol"`
	Position [3]float64 `json:"position"`
}

// Structure is an atomic configuration: an isolated molecule, a bare slab,
// or an adsorbate placed on a slab. Energy carries the total energy in eV
// assigned by whichever calculator produced the configuration.
type Structure struct {
	Name   string        `json:"name"`
	Atoms  []Atom        `json:"atoms"`
	Cell   [3][3]float64 `json:"cell"`
	Energy float64       `json:"energy_ev"`
}

// Copy returns a deep copy so callers can mutate geometry freely.
func (s Structure) Copy() Structure {
	out := s
	out.Atoms = make([]Atom, len(s.Atoms))
	copy(out.Atoms, s.Atoms)
	return out
}

// Translate shifts every atom by the given displacement.
func (s *Structure) Translate(dx, dy, dz float64) {
	for i := range s.Atoms {
		s.Atoms[i].Position[0] += dx
		s.Atoms[i].Position[1] += dy
		s.Atoms[i].Position[2] += dz
	}
}

// RotateZ rotates every atom about the vertical axis through (cx, cy) by
// angleDeg degrees, counterclockwise when viewed from above the surface.
func (s *Structure) RotateZ(angleDeg, cx, cy float64) {
	sin, cos := math.Sincos(angleDeg * math.Pi / 180)
	for i := range s.Atoms {
		x := s.Atoms[i].Position[0] - cx
		y := s.Atoms[i].Position[1] - cy
		s.Atoms[i].Position[0] = cx + x*cos - y*sin
		s.Atoms[i].Position[1] = cy + x*sin + y*cos
	}
}

// Centroid returns the mean atom position.
func (s Structure) Centroid() [3]float64 {
	var c [3]float64
	if len(s.Atoms) == 0 {
		return c
	}
	for _, a := range s.Atoms {
		c[0] += a.Position[0]
		c[1] += a.Position[1]
		c[2] += a.Position[2]
	}
	n := float64(len(s.Atoms))
	c[0] /= n
	c[1] /= n
	c[2] /= n
	return c
}
