package pool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trinity/internal/launcher"
	"trinity/internal/logging"
	"trinity/internal/provider"
)

// SpawnWorker launches one provider invocation and blocks until it settles.
// Unknown providers fail synchronously with *provider.UnknownProviderError
// before any worker is registered. Every failure of the process itself
// (launch error, timeout, non-zero exit) is recorded on the returned worker
// as status failed, never returned as a Go error.
func (p *Pool) SpawnWorker(ctx context.Context, name provider.Name, prompt string) (*Worker, error) {
	def, err := p.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return p.spawnResolved(ctx, def, prompt), nil
}

// SpawnWorkerAsync validates and registers a worker, then runs it in the
// background. The returned id can be polled with GetWorker or awaited with
// WaitForWorker.
func (p *Pool) SpawnWorkerAsync(ctx context.Context, name provider.Name, prompt string) (string, error) {
	def, err := p.registry.Lookup(name)
	if err != nil {
		return "", err
	}

	ws := p.register(def.Name, prompt)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.PoolError("PANIC RECOVERED in worker %s: %v", ws.worker.ID, r)
				if settled := p.settle(ws.worker.ID, StatusFailed, "", fmt.Sprintf("worker panicked: %v", r)); settled != nil {
					p.emitWorkerEvent(EventWorkerFailed, settled)
				}
			}
		}()
		p.runWorker(ctx, ws, def)
	}()

	return ws.worker.ID, nil
}

// WaitForWorker blocks until the worker settles or ctx is done, then
// returns the terminal snapshot.
func (p *Pool) WaitForWorker(ctx context.Context, id string) (*Worker, error) {
	p.mu.RLock()
	ws, ok := p.workers[id]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown worker: %s", id)
	}

	select {
	case <-ws.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.RLock()
	snapshot := ws.worker.Clone()
	p.mu.RUnlock()
	return snapshot, nil
}

// spawnResolved registers and runs a worker for an already-resolved
// definition and returns the terminal snapshot.
func (p *Pool) spawnResolved(ctx context.Context, def provider.Definition, prompt string) *Worker {
	ws := p.register(def.Name, prompt)
	p.runWorker(ctx, ws, def)

	p.mu.RLock()
	snapshot := ws.worker.Clone()
	p.mu.RUnlock()
	return snapshot
}

// runWorker drives one worker from pending to a terminal status. The
// registry lock is never held across the launch; the settle call arbitrates
// against a concurrent kill.
func (p *Pool) runWorker(ctx context.Context, ws *workerState, def provider.Definition) {
	id := ws.worker.ID

	timeout := p.config.Timeout
	if def.TimeoutMs > 0 {
		timeout = time.Duration(def.TimeoutMs) * time.Millisecond
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshot := p.markRunning(id, cancel)
	if snapshot == nil {
		return
	}
	p.emitWorkerEvent(EventWorkerStarted, snapshot)

	if terminal := p.ackStartedEvent(id); terminal != nil {
		// A kill landed before the started event went out; deliver its
		// terminal event now so started always precedes it.
		p.emitWorkerEvent(EventWorkerFailed, terminal)
		return
	}

	timer := logging.StartTimer(logging.CategoryPool, fmt.Sprintf("worker %s (%s)", id, def.Name))
	result, err := p.launcher.Launch(workerCtx, launcher.Request{
		Binary:  def.Binary,
		Args:    def.Args,
		Payload: ws.worker.Prompt,
		Env:     def.Env,
		Limits:  &launcher.Limits{TimeoutMs: int64(timeout / time.Millisecond)},
	})
	timer.Stop()

	var settled *Worker
	event := EventWorkerFailed
	switch {
	case err != nil:
		settled = p.settle(id, StatusFailed, "", err.Error())
	case result.TimedOut:
		settled = p.settle(id, StatusFailed, "", fmt.Sprintf("timed out after %s", timeout))
	case result.Canceled:
		settled = p.settle(id, StatusFailed, "", "canceled before completion")
	case result.ExitCode != 0:
		settled = p.settle(id, StatusFailed, "", exitError(def.Binary, result))
	default:
		settled = p.settle(id, StatusCompleted, result.Output, "")
		event = EventWorkerCompleted
	}

	if settled == nil {
		// A kill won the settle race; its event is already delivered.
		logging.PoolDebug("Worker %s settled elsewhere, dropping launch result", id)
		return
	}

	logging.Pool("Worker %s settled: %s", id, settled.Status)
	p.emitWorkerEvent(event, settled)
}

// exitError builds the worker error text for a non-zero exit.
func exitError(binary string, result *launcher.Result) string {
	msg := fmt.Sprintf("%s exited with code %d", binary, result.ExitCode)
	if s := strings.TrimSpace(result.Stderr); s != "" {
		if len(s) > 500 {
			s = s[:500] + "..."
		}
		msg += ": " + s
	}
	return msg
}
