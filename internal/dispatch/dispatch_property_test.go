package dispatch

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/pipeline"
)

// TestProperty_KeySetEqualsInput checks that for any list of distinct item
// names and any worker count, the result map's key set exactly equals the
// input set, with failed items present as the absent sentinel.
func TestProperty_KeySetEqualsInput(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		items := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[A-Z][A-Z0-9]{1,4}`), 1, 12,
			func(s string) string { return s },
		).Draw(rt, "items")
		workers := rapid.IntRange(1, len(items)+2).Draw(rt, "workers")

		// Fail an arbitrary subset of the items.
		fail := make(map[string]bool)
		for _, item := range items {
			if rapid.Bool().Draw(rt, "fail_"+item) {
				fail[item] = true
			}
		}

		baseDir := t.TempDir()
		exec := pipeline.NewExecutor(&batchEngine{fail: fail}, pipeline.Options{BaseDir: baseDir}, nil)
		results, err := Dispatch(context.Background(), items, exec, Options{
			BaseDir: baseDir,
			Workers: workers,
		})
		if err != nil {
			rt.Fatalf("dispatch: %v", err)
		}

		if len(results) != len(items) {
			rt.Fatalf("expected %d entries, got %d", len(items), len(results))
		}
		for _, item := range items {
			res, ok := results[item]
			if !ok {
				rt.Fatalf("missing entry for %s", item)
			}
			if fail[item] && res != nil {
				rt.Fatalf("%s should be absent", item)
			}
			if !fail[item] && res == nil {
				rt.Fatalf("%s should be present", item)
			}
		}
	})
}
