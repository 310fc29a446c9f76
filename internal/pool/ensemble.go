package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"trinity/internal/logging"
	"trinity/internal/provider"
)

// RunTrinityMeeting runs the same prompt across several providers as one
// ensemble. No providers means the default three (claude, gemini, codex).
// Duplicate or unknown providers fail synchronously before anything spawns.
// The ensemble's Workers map holds an entry for exactly the requested
// providers; Success is true only when every member completed. Returns only
// after every member is terminal.
func (p *Pool) RunTrinityMeeting(ctx context.Context, prompt string, providers ...provider.Name) (*Ensemble, error) {
	if len(providers) == 0 {
		providers = provider.DefaultTrinity()
	}

	// Validate all members before anything spawns
	seen := make(map[provider.Name]bool, len(providers))
	defs := make([]provider.Definition, len(providers))
	for i, name := range providers {
		if seen[name] {
			return nil, fmt.Errorf("duplicate provider in meeting: %s", name)
		}
		seen[name] = true

		def, err := p.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		defs[i] = def
	}

	ensemble := &Ensemble{
		ID:        newEnsembleID(),
		Prompt:    prompt,
		Workers:   make(map[provider.Name]*Worker, len(providers)),
		StartedAt: time.Now(),
	}

	logging.Pool("Trinity meeting %s: convening %d providers", ensemble.ID, len(providers))
	p.emitEnsembleEvent(EventEnsembleStarted, ensemble.Clone())

	// Fan out all members before waiting on any
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	for i, name := range providers {
		eg.Go(func() error {
			w := p.spawnResolved(egCtx, defs[i], prompt)
			mu.Lock()
			ensemble.Workers[name] = w
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	success := len(ensemble.Workers) == len(providers)
	for _, w := range ensemble.Workers {
		if w.Status != StatusCompleted {
			success = false
			break
		}
	}
	ensemble.Success = success

	now := time.Now()
	ensemble.FinishedAt = &now

	logging.Pool("Trinity meeting %s: finished, success=%v", ensemble.ID, ensemble.Success)
	p.emitEnsembleEvent(EventEnsembleCompleted, ensemble.Clone())

	return ensemble, nil
}
