package screening

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
)

// Report is the advisory outcome of a validation pass. It describes the
// screening directory without modifying it.
type Report struct {
	Complete  []string `json:"complete"`
	Partial   []string `json:"partial"`
	Corrupt   []string `json:"corrupt"`
	HasCanon  bool     `json:"has_canonical"`
	CanonOK   bool     `json:"canonical_ok"`
	CanonSize int      `json:"canonical_sites"`
}

// OK reports whether the directory holds no partial or corrupt artifacts and
// the canonical file, if present, parses.
func (r Report) OK() bool {
	return len(r.Partial) == 0 && len(r.Corrupt) == 0 && (!r.HasCanon || r.CanonOK)
}

// Validate inspects the screening directory for structural completeness.
// It never repairs anything and never fails on malformed content; only an
// unreadable directory is an error.
func Validate(dir string) (Report, error) {
	var rep Report

	entries, err := os.ReadDir(dir)
	if err != nil {
		return rep, fmt.Errorf("read screening dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		switch {
		case isPartialArtifact(name):
			rep.Partial = append(rep.Partial, name)
		case isSiteArtifact(name):
			if _, err := readSiteArtifact(filepath.Join(dir, name)); err != nil {
				rep.Corrupt = append(rep.Corrupt, name)
			} else {
				rep.Complete = append(rep.Complete, name)
			}
		case name == filepath.Base(canonicalPath(dir)):
			rep.HasCanon = true
			if res, err := Load(canonicalPath(dir)); err == nil {
				rep.CanonOK = true
				rep.CanonSize = len(res.Sites)
			}
		}
	}

	return rep, nil
}

// Clean removes partial and corrupt site artifacts, and the canonical file if
// it no longer parses. With destructive false it only lists what would go.
func Clean(dir string, destructive bool) ([]string, error) {
	rep, err := Validate(dir)
	if err != nil {
		return nil, err
	}

	doomed := append([]string{}, rep.Partial...)
	doomed = append(doomed, rep.Corrupt...)
	if rep.HasCanon && !rep.CanonOK {
		doomed = append(doomed, filepath.Base(canonicalPath(dir)))
	}

	if !destructive {
		return doomed, nil
	}

	for _, name := range doomed {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return doomed, fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return doomed, nil
}

// Recover folds complete per-site artifacts that are missing from the
// canonical results file back into it and rewrites it. Best-effort: sites
// whose artifacts were lost stay missing. Run Clean first so corrupt
// artifacts do not poison the merge.
func Recover(dir string) error {
	path := canonicalPath(dir)

	res, err := Load(path)
	if err != nil {
		// No usable canonical file; rebuild from artifacts alone.
		res = NewResults("", chem.Structure{})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read screening dir: %w", err)
	}

	merged := 0
	for _, entry := range entries {
		if !isSiteArtifact(entry.Name()) {
			continue
		}
		site, err := readSiteArtifact(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if _, ok := res.Sites[site.ID]; ok {
			continue
		}
		res.Sites[site.ID] = site
		merged++
	}

	if merged == 0 {
		return nil
	}
	return res.Save(path)
}

func canonicalPath(dir string) string {
	return filepath.Join(dir, "screening_results.json")
}
