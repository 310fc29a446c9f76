package pool

import (
	"time"

	"trinity/internal/provider"
)

// Status is a worker's lifecycle state. Transitions are forward-only:
// pending -> running -> exactly one of completed, failed, killed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusKilled    Status = "killed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusKilled
}

// Worker is one tracked provider invocation. ID, Provider and Prompt are
// immutable after creation. Output is set only on completed; Error only on
// failed or killed. StartedAt and FinishedAt are each set exactly once.
type Worker struct {
	ID         string        `json:"id"`
	Provider   provider.Name `json:"provider"`
	Prompt     string        `json:"prompt"`
	Status     Status        `json:"status"`
	Output     string        `json:"output,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// Clone returns a deep copy safe to hand outside the pool.
func (w *Worker) Clone() *Worker {
	if w == nil {
		return nil
	}
	clone := *w
	if w.StartedAt != nil {
		t := *w.StartedAt
		clone.StartedAt = &t
	}
	if w.FinishedAt != nil {
		t := *w.FinishedAt
		clone.FinishedAt = &t
	}
	return &clone
}

// Ensemble is one trinity meeting: a group of workers running the same
// prompt across providers. Workers holds an entry for exactly the requested
// providers, nothing else. Success is true only when every member completed.
type Ensemble struct {
	ID         string                    `json:"id"`
	Prompt     string                    `json:"prompt"`
	Workers    map[provider.Name]*Worker `json:"workers"`
	Success    bool                      `json:"success"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt *time.Time                `json:"finished_at,omitempty"`
}

// Clone returns a deep copy safe to hand outside the pool.
func (e *Ensemble) Clone() *Ensemble {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Workers = make(map[provider.Name]*Worker, len(e.Workers))
	for name, w := range e.Workers {
		clone.Workers[name] = w.Clone()
	}
	if e.FinishedAt != nil {
		t := *e.FinishedAt
		clone.FinishedAt = &t
	}
	return &clone
}

// Task is one RunParallel element.
type Task struct {
	Provider provider.Name `json:"provider"`
	Prompt   string        `json:"prompt"`
}

// Stats are aggregate worker counts. The five status counters always sum
// to Total.
type Stats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Killed    int `json:"killed"`
	Total     int `json:"total"`
}
