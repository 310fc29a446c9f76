package pool

import (
	"time"

	"trinity/internal/logging"
)

// KillWorker terminates a running worker. Returns false for unknown ids and
// for workers that are not running (pending or already terminal) without
// touching them. A race with natural completion is safe: the registry
// transition arbitrates, so exactly one of kill or completion wins.
//
// The killed worker settles with status killed, and the failure is
// published as a worker_failed event.
func (p *Pool) KillWorker(id string) bool {
	p.mu.Lock()
	ws, ok := p.workers[id]
	if !ok || ws.worker.Status != StatusRunning {
		p.mu.Unlock()
		return false
	}

	now := time.Now()
	ws.worker.Status = StatusKilled
	ws.worker.Error = "killed by request"
	ws.worker.FinishedAt = &now
	cancel := ws.cancel
	ws.cancel = nil
	emitNow := ws.startedEventSent
	snapshot := ws.worker.Clone()
	close(ws.done)
	p.mu.Unlock()

	// Stop the subprocess after the transition: its canceled launch result
	// then loses the settle race and gets dropped.
	if cancel != nil {
		cancel()
	}

	if emitNow {
		p.emitWorkerEvent(EventWorkerFailed, snapshot)
	}
	// Otherwise the spawning goroutine delivers the event right after
	// worker_started, preserving per-worker ordering.

	logging.Pool("Worker %s killed", id)
	return true
}

// KillAll kills every running worker and returns how many were actually
// killed. Workers that settle naturally during the sweep are not counted.
func (p *Pool) KillAll() int {
	p.mu.RLock()
	running := make([]string, 0)
	for _, id := range p.order {
		if ws, ok := p.workers[id]; ok && ws.worker.Status == StatusRunning {
			running = append(running, id)
		}
	}
	p.mu.RUnlock()

	killed := 0
	for _, id := range running {
		if p.KillWorker(id) {
			killed++
		}
	}

	logging.Pool("KillAll: killed %d of %d running workers", killed, len(running))
	return killed
}
