package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Fixed directory and file names inside an adsorbate workspace. The results
// file is the hand-off artifact between the screening stage and the reload
// stage; everything downstream reads the persisted file, never the in-memory
// screening output.
const (
	ScreeningDirName   = "Screening_Data"
	TranslationDirName = "NEB_Translation"
	RotationDirName    = "NEB_Rotation"
	ResultsFileName    = "screening_results.json"
)

// Layout resolves the exclusive filesystem subtree owned by one adsorbate's
// pipeline run.
type Layout struct {
	BaseDir string
	Item    string
}

func (l Layout) Root() string {
	return filepath.Join(l.BaseDir, l.Item)
}

func (l Layout) ScreeningDir() string {
	return filepath.Join(l.Root(), ScreeningDirName)
}

func (l Layout) TranslationDir() string {
	return filepath.Join(l.Root(), TranslationDirName)
}

func (l Layout) RotationDir() string {
	return filepath.Join(l.Root(), RotationDirName)
}

// ResultsPath is the canonical screening results file.
func (l Layout) ResultsPath() string {
	return filepath.Join(l.ScreeningDir(), ResultsFileName)
}

// Ensure creates the workspace subtree. Idempotent: already-existing
// directories are not an error.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.ScreeningDir(), l.TranslationDir(), l.RotationDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
