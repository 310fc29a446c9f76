package pool

import (
	"time"

	"trinity/internal/logging"
)

// EventType identifies a lifecycle event.
type EventType string

const (
	EventWorkerStarted     EventType = "worker_started"
	EventWorkerCompleted   EventType = "worker_completed"
	EventWorkerFailed      EventType = "worker_failed"
	EventEnsembleStarted   EventType = "ensemble_started"
	EventEnsembleCompleted EventType = "ensemble_completed"
)

// Event is one lifecycle notification. Worker and Ensemble are clones taken
// at the transition; exactly one of them is set depending on Type. A killed
// worker arrives as EventWorkerFailed carrying Status killed.
type Event struct {
	Type      EventType `json:"type"`
	Worker    *Worker   `json:"worker,omitempty"`
	Ensemble  *Ensemble `json:"ensemble,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventCallback receives lifecycle events. Delivery is synchronous and
// best-effort: callbacks run on the goroutine performing the transition,
// so they should return quickly.
type EventCallback func(Event)

// Subscribe registers a callback for this pool's events. Subscriptions are
// per pool; two pools never share listeners.
func (p *Pool) Subscribe(cb EventCallback) {
	p.mu.Lock()
	p.callbacks = append(p.callbacks, cb)
	p.mu.Unlock()
}

// deliver invokes all callbacks outside the registry lock.
func (p *Pool) deliver(ev Event) {
	p.mu.RLock()
	callbacks := make([]EventCallback, len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.mu.RUnlock()

	for _, cb := range callbacks {
		cb(ev)
	}
}

func (p *Pool) emitWorkerEvent(t EventType, w *Worker) {
	logging.EventsDebug("%s: worker=%s status=%s", t, w.ID, w.Status)
	p.deliver(Event{Type: t, Worker: w, Timestamp: time.Now()})
}

func (p *Pool) emitEnsembleEvent(t EventType, e *Ensemble) {
	logging.EventsDebug("%s: ensemble=%s members=%d", t, e.ID, len(e.Workers))
	p.deliver(Event{Type: t, Ensemble: e, Timestamp: time.Now()})
}
