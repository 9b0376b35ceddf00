package screening

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
)

func testSite(id string, energy float64) Site {
	return Site{
		ID:        id,
		Position:  [3]float64{1, 2, 3},
		Energy:    energy,
		Converged: true,
		Structure: chem.Structure{Name: "CO-on-slab", Energy: energy},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "screening_results.json")

	res := NewResults("CO", chem.Structure{Name: "slab"})
	res.Sites["0_0"] = testSite("0_0", -1.5)
	res.Sites["1_0"] = testSite("1_0", -0.8)

	if err := res.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Adsorbate != "CO" {
		t.Errorf("adsorbate: got %s", loaded.Adsorbate)
	}
	if len(loaded.Sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(loaded.Sites))
	}
	if loaded.Sites["0_0"].Energy != -1.5 {
		t.Errorf("site energy: got %v", loaded.Sites["0_0"].Energy)
	}
}

func TestValidateClassifiesArtifacts(t *testing.T) {
	dir := t.TempDir()

	if err := WriteSiteArtifact(dir, testSite("0_0", -1)); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	mustWrite(t, filepath.Join(dir, "site_1_0.json"), "{not json")
	mustWrite(t, filepath.Join(dir, "site_2_0.json.partial"), "")

	rep, err := Validate(dir)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if len(rep.Complete) != 1 || rep.Complete[0] != "site_0_0.json" {
		t.Errorf("complete: got %v", rep.Complete)
	}
	if len(rep.Corrupt) != 1 || rep.Corrupt[0] != "site_1_0.json" {
		t.Errorf("corrupt: got %v", rep.Corrupt)
	}
	if len(rep.Partial) != 1 || rep.Partial[0] != "site_2_0.json.partial" {
		t.Errorf("partial: got %v", rep.Partial)
	}
	if rep.OK() {
		t.Error("report should not be OK with corrupt and partial files")
	}
}

func TestCleanDryRunRemovesNothing(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "site_0_0.json.partial"), "")

	doomed, err := Clean(dir, false)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if len(doomed) != 1 {
		t.Fatalf("expected 1 doomed file, got %v", doomed)
	}
	if _, err := os.Stat(filepath.Join(dir, "site_0_0.json.partial")); err != nil {
		t.Error("dry-run clean removed a file")
	}
}

func TestCleanDestructive(t *testing.T) {
	dir := t.TempDir()

	if err := WriteSiteArtifact(dir, testSite("0_0", -1)); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	mustWrite(t, filepath.Join(dir, "site_1_0.json"), "truncated{")
	mustWrite(t, filepath.Join(dir, "site_2_0.json.partial"), "")

	doomed, err := Clean(dir, true)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if len(doomed) != 2 {
		t.Fatalf("expected 2 doomed files, got %v", doomed)
	}

	// The complete artifact survives, the rest is gone.
	if _, err := os.Stat(filepath.Join(dir, "site_0_0.json")); err != nil {
		t.Error("clean removed a complete artifact")
	}
	for _, name := range doomed {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s still present after destructive clean", name)
		}
	}
}

func TestRecoverMergesMissingSites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "screening_results.json")

	// Canonical file knows one site; a second completed artifact never made
	// it in because the run was interrupted.
	res := NewResults("OH", chem.Structure{Name: "slab"})
	res.Sites["0_0"] = testSite("0_0", -1.2)
	if err := res.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := WriteSiteArtifact(dir, testSite("1_0", -2.4)); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	if err := Recover(dir); err != nil {
		t.Fatalf("recover: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(reloaded.Sites) != 2 {
		t.Fatalf("expected 2 sites after recovery, got %d", len(reloaded.Sites))
	}
	if reloaded.Sites["1_0"].Energy != -2.4 {
		t.Errorf("recovered site energy: got %v", reloaded.Sites["1_0"].Energy)
	}
}

func TestRecoverRebuildsMissingCanonicalFile(t *testing.T) {
	dir := t.TempDir()

	if err := WriteSiteArtifact(dir, testSite("0_0", -1)); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	if err := Recover(dir); err != nil {
		t.Fatalf("recover: %v", err)
	}

	res, err := Load(filepath.Join(dir, "screening_results.json"))
	if err != nil {
		t.Fatalf("load rebuilt results: %v", err)
	}
	if len(res.Sites) != 1 {
		t.Fatalf("expected 1 site, got %d", len(res.Sites))
	}
}

func TestRankOrdersByEnergy(t *testing.T) {
	res := NewResults("CO", chem.Structure{})
	res.Sites["a"] = testSite("a", -0.5)
	res.Sites["b"] = testSite("b", -2.1)
	res.Sites["c"] = testSite("c", -1.3)

	ranking, best, err := Rank(res)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if best.ID != "b" {
		t.Errorf("best site: got %s, want b", best.ID)
	}

	want := []string{"b", "c", "a"}
	for i, id := range want {
		if ranking[i].ID != id {
			t.Errorf("ranking[%d]: got %s, want %s", i, ranking[i].ID, id)
		}
	}
}

func TestRankEmptyResultsFails(t *testing.T) {
	if _, _, err := Rank(NewResults("CO", chem.Structure{})); err == nil {
		t.Fatal("expected error ranking empty results")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
