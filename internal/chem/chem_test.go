package chem

import (
	"math"
	"testing"
)

func TestParseFormula(t *testing.T) {
	cases := []struct {
		formula string
		want    map[string]int
	}{
		{"CH2", map[string]int{"C": 1, "H": 2}},
		{"CH3", map[string]int{"C": 1, "H": 3}},
		{"OH", map[string]int{"O": 1, "H": 1}},
		{"NH2", map[string]int{"N": 1, "H": 2}},
		{"CO", map[string]int{"C": 1, "O": 1}},
		{"CO2", map[string]int{"C": 1, "O": 2}},
		{"NH3", map[string]int{"N": 1, "H": 3}},
		{"Pt", map[string]int{"Pt": 1}},
		{"C2H5OH", map[string]int{"C": 2, "H": 6, "O": 1}},
	}

	for _, tc := range cases {
		got, err := ParseFormula(tc.formula)
		if err != nil {
			t.Fatalf("ParseFormula(%q): %v", tc.formula, err)
		}
		if len(got) != len(tc.want) {
			t.Errorf("ParseFormula(%q) = %v, want %v", tc.formula, got, tc.want)
			continue
		}
		for sym, n := range tc.want {
			if got[sym] != n {
				t.Errorf("ParseFormula(%q)[%s] = %d, want %d", tc.formula, sym, got[sym], n)
			}
		}
	}
}

func TestParseFormulaRejectsGarbage(t *testing.T) {
	for _, formula := range []string{"", "h2o", "C-H", "CH0", "2CO"} {
		if _, err := ParseFormula(formula); err == nil {
			t.Errorf("ParseFormula(%q): expected error", formula)
		}
	}
}

func TestAtomCount(t *testing.T) {
	counts, err := ParseFormula("NH3")
	if err != nil {
		t.Fatal(err)
	}
	if n := AtomCount(counts); n != 4 {
		t.Errorf("expected 4 atoms in NH3, got %d", n)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	s := Structure{
		Name:  "CO",
		Atoms: []Atom{{Symbol: "C"}, {Symbol: "O", Position: [3]float64{0, 0, 1.13}}},
	}
	c := s.Copy()
	c.Atoms[0].Position[2] = 5

	if s.Atoms[0].Position[2] != 0 {
		t.Error("mutating the copy changed the original")
	}
}

func TestTranslate(t *testing.T) {
	s := Structure{Atoms: []Atom{{Symbol: "H", Position: [3]float64{1, 2, 3}}}}
	s.Translate(0.5, -1, 2)

	want := [3]float64{1.5, 1, 5}
	if s.Atoms[0].Position != want {
		t.Errorf("expected %v, got %v", want, s.Atoms[0].Position)
	}
}

func TestRotateZQuarterTurn(t *testing.T) {
	s := Structure{Atoms: []Atom{{Symbol: "H", Position: [3]float64{1, 0, 0.5}}}}
	s.RotateZ(90, 0, 0)

	p := s.Atoms[0].Position
	if math.Abs(p[0]) > 1e-12 || math.Abs(p[1]-1) > 1e-12 {
		t.Errorf("expected (0, 1), got (%v, %v)", p[0], p[1])
	}
	if p[2] != 0.5 {
		t.Errorf("z must be unchanged, got %v", p[2])
	}
}

func TestRotateZAboutOffCenterPivot(t *testing.T) {
	s := Structure{Atoms: []Atom{{Symbol: "H", Position: [3]float64{2, 1, 0}}}}
	s.RotateZ(180, 1, 1)

	p := s.Atoms[0].Position
	if math.Abs(p[0]) > 1e-12 || math.Abs(p[1]-1) > 1e-12 {
		t.Errorf("expected (0, 1), got (%v, %v)", p[0], p[1])
	}
}

func TestCentroid(t *testing.T) {
	s := Structure{Atoms: []Atom{
		{Position: [3]float64{0, 0, 0}},
		{Position: [3]float64{2, 4, 6}},
	}}
	c := s.Centroid()
	want := [3]float64{1, 2, 3}
	if c != want {
		t.Errorf("expected %v, got %v", want, c)
	}

	var empty Structure
	if empty.Centroid() != ([3]float64{}) {
		t.Error("empty structure centroid must be the origin")
	}
}
