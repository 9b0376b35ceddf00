package surrogate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/chem"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/engine"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/workspace"
)

func canonical(dir string) string {
	return filepath.Join(dir, workspace.ResultsFileName)
}

func sortedSymbols(counts map[string]int) []string {
	symbols := make([]string, 0, len(counts))
	for sym := range counts {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

func writeImage(dir string, index int, img chem.Structure) error {
	data, err := json.Marshal(img)
	if err != nil {
		return fmt.Errorf("marshal image %d: %w", index, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("image_%02d.json", index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image %d: %w", index, err)
	}
	return nil
}

func writeResult(dir string, result *engine.NEBResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal neb result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "neb_result.json"), data, 0o644); err != nil {
		return fmt.Errorf("write neb result: %w", err)
	}
	return nil
}
