// Package pool tracks concurrent AI provider CLI invocations as workers.
// Each worker runs one provider subprocess through an injected launcher and
// settles to exactly one terminal status; kills and natural completion race
// safely with the registry transition as the single arbiter. Process
// failures (launch errors, timeouts, non-zero exits) are recorded on the
// worker, never returned as Go errors.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"trinity/internal/launcher"
	"trinity/internal/logging"
	"trinity/internal/provider"
)

// Config is the pool configuration.
type Config struct {
	// Timeout is the default per-worker watchdog. Provider definitions
	// with their own TimeoutMs override it.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Minute,
	}
}

// workerState pairs a worker with its runtime handles. All fields are
// guarded by the pool mutex.
type workerState struct {
	worker *Worker

	// cancel terminates the underlying subprocess. Set at the running
	// transition, used by KillWorker.
	cancel context.CancelFunc

	// done closes when the worker reaches a terminal status.
	done chan struct{}

	// startedEventSent records that the worker_started event has been
	// delivered, so a racing kill knows whether to emit the terminal
	// event itself or leave it to the spawning goroutine.
	startedEventSent bool
}

// Pool is a registry of workers plus the machinery to run them. Pools are
// independent: workers, stats and event subscriptions never cross pool
// boundaries.
type Pool struct {
	mu      sync.RWMutex
	workers map[string]*workerState
	order   []string // registration order

	config    Config
	registry  *provider.Registry
	launcher  launcher.Launcher
	callbacks []EventCallback
}

// New creates a pool. A nil registry resolves the default providers; a nil
// launcher runs real CLI processes.
func New(cfg Config, registry *provider.Registry, l launcher.Launcher) *Pool {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if registry == nil {
		registry = provider.NewRegistry(nil)
	}
	if l == nil {
		l = launcher.NewCLILauncher()
	}

	logging.PoolDebug("Creating pool: timeout=%s, providers=%v", cfg.Timeout, registry.Names())

	return &Pool{
		workers:  make(map[string]*workerState),
		config:   cfg,
		registry: registry,
		launcher: l,
	}
}

// Registry returns the pool's provider registry.
func (p *Pool) Registry() *provider.Registry {
	return p.registry
}

func newWorkerID() string {
	return fmt.Sprintf("worker_%s", uuid.New().String()[:8])
}

func newEnsembleID() string {
	return fmt.Sprintf("trinity_%s", uuid.New().String()[:8])
}

// register adds a pending worker to the registry and returns its state.
func (p *Pool) register(name provider.Name, prompt string) *workerState {
	ws := &workerState{
		worker: &Worker{
			ID:       newWorkerID(),
			Provider: name,
			Prompt:   prompt,
			Status:   StatusPending,
		},
		done: make(chan struct{}),
	}

	p.mu.Lock()
	p.workers[ws.worker.ID] = ws
	p.order = append(p.order, ws.worker.ID)
	p.mu.Unlock()

	logging.PoolDebug("Registered worker %s (provider=%s)", ws.worker.ID, name)
	return ws
}

// markRunning transitions a pending worker to running, stamps StartedAt and
// stores the subprocess cancel func. Returns a snapshot for the started
// event, or nil if the worker is not pending.
func (p *Pool) markRunning(id string, cancel context.CancelFunc) *Worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	ws, ok := p.workers[id]
	if !ok || ws.worker.Status != StatusPending {
		return nil
	}

	now := time.Now()
	ws.worker.Status = StatusRunning
	ws.worker.StartedAt = &now
	ws.cancel = cancel
	return ws.worker.Clone()
}

// settle transitions a worker to a terminal status. Exactly one settle wins:
// the first caller stamps FinishedAt, records output or error, and closes the
// done channel; later callers get nil. This is the arbiter between natural
// completion, timeout and kill.
func (p *Pool) settle(id string, status Status, output, errMsg string) *Worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	ws, ok := p.workers[id]
	if !ok || ws.worker.Status.Terminal() {
		return nil
	}

	now := time.Now()
	ws.worker.Status = status
	ws.worker.FinishedAt = &now
	switch status {
	case StatusCompleted:
		ws.worker.Output = output
	case StatusFailed, StatusKilled:
		ws.worker.Error = errMsg
	}
	ws.cancel = nil
	close(ws.done)
	return ws.worker.Clone()
}

// ackStartedEvent marks the started event as delivered. If a kill settled
// the worker in the window before delivery, the terminal snapshot is
// returned so the spawning goroutine can emit the failure event in order.
func (p *Pool) ackStartedEvent(id string) *Worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	ws, ok := p.workers[id]
	if !ok {
		return nil
	}
	ws.startedEventSent = true
	if ws.worker.Status.Terminal() {
		return ws.worker.Clone()
	}
	return nil
}

// GetAllWorkers returns point-in-time clones of every worker in
// registration order.
func (p *Pool) GetAllWorkers() []*Worker {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*Worker, 0, len(p.order))
	for _, id := range p.order {
		if ws, ok := p.workers[id]; ok {
			out = append(out, ws.worker.Clone())
		}
	}
	return out
}

// GetWorker returns a clone of one worker.
func (p *Pool) GetWorker(id string) (*Worker, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ws, ok := p.workers[id]
	if !ok {
		return nil, false
	}
	return ws.worker.Clone(), true
}

// GetWorkerStats counts workers by status.
func (p *Pool) GetWorkerStats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var s Stats
	for _, ws := range p.workers {
		switch ws.worker.Status {
		case StatusPending:
			s.Pending++
		case StatusRunning:
			s.Running++
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		case StatusKilled:
			s.Killed++
		}
	}
	s.Total = len(p.workers)
	return s
}

// ClearFinishedWorkers removes every terminal worker and returns how many
// were removed. Pending and running workers are untouched.
func (p *Pool) ClearFinishedWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	keep := p.order[:0]
	for _, id := range p.order {
		ws, ok := p.workers[id]
		if !ok {
			continue
		}
		if ws.worker.Status.Terminal() {
			delete(p.workers, id)
			removed++
		} else {
			keep = append(keep, id)
		}
	}
	p.order = keep

	logging.PoolDebug("Cleared %d finished workers, %d remain", removed, len(p.workers))
	return removed
}

// HasRunningWorkers reports whether any worker is currently running.
func (p *Pool) HasRunningWorkers() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ws := range p.workers {
		if ws.worker.Status == StatusRunning {
			return true
		}
	}
	return false
}
