// Package dispatch fans the per-adsorbate pipeline out across a bounded
// worker pool and folds the outcomes back into a single batch result. Workers
// share no mutable state: an item name goes in, an Outcome comes out over a
// channel, and a single collector goroutine owns the result map.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/pipeline"
)

// BatchResult maps each item name to its task result. A nil value is the
// absent sentinel for a failed item; the key is always present.
type BatchResult map[string]*pipeline.TaskResult

// Options configures one batch dispatch.
type Options struct {
	BaseDir string
	// Workers bounds the pool; 0 means one worker per available CPU.
	Workers int
	// OnOutcome, when set, observes every outcome from the collector
	// goroutine as it arrives. Used for ledger writes and reporting.
	OnOutcome func(pipeline.Outcome)
}

// Dispatch runs every item through the executor and blocks until all of them
// have completed or failed. Items are pulled by whichever worker frees up
// first, not statically sharded. Duplicate names are processed independently
// and the later outcome overwrites the earlier one in the result map.
func Dispatch(ctx context.Context, items []string, exec *pipeline.Executor, opts Options) (BatchResult, error) {
	if err := os.MkdirAll(opts.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) {
		workers = len(items)
	}

	slog.Info("dispatching batch", "items", len(items), "workers", workers)

	jobs := make(chan string)
	outcomes := make(chan pipeline.Outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				outcomes <- exec.Run(ctx, item)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, item := range items {
			select {
			case jobs <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make(BatchResult, len(items))
	for outcome := range outcomes {
		results[outcome.Item] = outcome.Result
		if opts.OnOutcome != nil {
			opts.OnOutcome(outcome)
		}
	}

	return results, nil
}
