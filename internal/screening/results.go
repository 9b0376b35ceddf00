// Package screening holds the on-disk artifact layer shared by the site
// screening stage and the validate/clean/recover/reload stages. The canonical
// results file plus the per-site artifact files are the only contract between
// them: a later stage never trusts an earlier stage's in-memory state.
package screening

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
)

// Site is one candidate adsorption site outcome.
type Site struct {
	ID        string         `json:"id"`
	Position  [3]float64     `json:"position"`
	Energy    float64        `json:"energy_ev"`
	Converged bool           `json:"converged"`
	Structure chem.Structure `json:"structure"`
}

// Results is the persisted collection of per-site outcomes for one adsorbate.
type Results struct {
	Adsorbate string          `json:"adsorbate"`
	Slab      chem.Structure  `json:"slab"`
	Sites     map[string]Site `json:"sites"`
}

// NewResults returns an empty result set for the named adsorbate.
func NewResults(adsorbate string, slab chem.Structure) *Results {
	return &Results{
		Adsorbate: adsorbate,
		Slab:      slab,
		Sites:     make(map[string]Site),
	}
}

// SiteIDs returns the site IDs in sorted order.
func (r *Results) SiteIDs() []string {
	ids := make([]string, 0, len(r.Sites))
	for id := range r.Sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save writes the canonical results file atomically (write to a temp file in
// the same directory, then rename), so a crash mid-write never leaves a
// truncated canonical file behind.
func (r *Results) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

// Load reads the canonical results file.
func Load(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}

	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse results %s: %w", path, err)
	}
	if r.Sites == nil {
		r.Sites = make(map[string]Site)
	}
	return &r, nil
}

// SiteArtifactPath is the per-site artifact file the screening stage streams
// as each site completes. A ".partial" suffix marks an in-flight write.
func SiteArtifactPath(dir, siteID string) string {
	return filepath.Join(dir, "site_"+siteID+".json")
}

// WriteSiteArtifact streams one completed site outcome into the screening dir.
func WriteSiteArtifact(dir string, site Site) error {
	data, err := json.Marshal(site)
	if err != nil {
		return fmt.Errorf("marshal site %s: %w", site.ID, err)
	}
	if err := os.WriteFile(SiteArtifactPath(dir, site.ID), data, 0o644); err != nil {
		return fmt.Errorf("write site %s: %w", site.ID, err)
	}
	return nil
}

func readSiteArtifact(path string) (Site, error) {
	var site Site
	data, err := os.ReadFile(path)
	if err != nil {
		return site, err
	}
	if err := json.Unmarshal(data, &site); err != nil {
		return site, err
	}
	if site.ID == "" {
		return site, fmt.Errorf("site artifact %s: missing id", path)
	}
	return site, nil
}

func isSiteArtifact(name string) bool {
	return strings.HasPrefix(name, "site_") && strings.HasSuffix(name, ".json")
}

func isPartialArtifact(name string) bool {
	return strings.HasPrefix(name, "site_") && strings.HasSuffix(name, ".partial")
}
