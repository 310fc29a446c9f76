package pool

import (
	"context"

	"golang.org/x/sync/errgroup"

	"trinity/internal/logging"
	"trinity/internal/provider"
)

// RunParallel launches one worker per task, all concurrently, and blocks
// until every worker settles. Every provider is resolved before anything
// spawns: one unknown name fails the whole call synchronously with no
// workers registered. Results come back in task order regardless of which
// worker settled first; a failed task is visible only on its own worker.
func (p *Pool) RunParallel(ctx context.Context, tasks []Task) ([]*Worker, error) {
	if len(tasks) == 0 {
		return []*Worker{}, nil
	}

	// Resolve every provider before anything spawns
	defs := make([]provider.Definition, len(tasks))
	for i, task := range tasks {
		def, err := p.registry.Lookup(task.Provider)
		if err != nil {
			return nil, err
		}
		defs[i] = def
	}

	logging.Pool("RunParallel: dispatching %d tasks", len(tasks))

	results := make([]*Worker, len(tasks))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		eg.Go(func() error {
			results[i] = p.spawnResolved(egCtx, defs[i], task.Prompt)
			return nil
		})
	}
	// Workers never propagate launch failures through the group, so this
	// only collects a wholesale misuse.
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
