// Package launcher runs provider CLI processes on the host. The pool talks
// to processes only through the Launcher interface, so tests substitute
// scripted implementations without touching os/exec.
//
// Launch distinguishes four outcomes:
//   - success:       err == nil, ExitCode == 0
//   - non-zero exit: err == nil, ExitCode != 0
//   - launch failure: err != nil (binary missing or unstartable)
//   - timeout:       err == nil, TimedOut == true
//
// A non-nil error therefore always means the process never ran.
package launcher

import (
	"context"
	"time"
)

// Launcher starts a provider CLI process and waits for it to finish.
type Launcher interface {
	Launch(ctx context.Context, req Request) (*Result, error)
}

// Request describes one process invocation. The payload is staged to a
// temp file and fed to the process on stdin.
type Request struct {
	// Binary is the executable to run (name resolved via PATH, or a path).
	Binary string

	// Args are the command-line arguments, without the binary itself.
	Args []string

	// Payload is the prompt text delivered on stdin.
	Payload string

	// WorkingDir is the process working directory ("" = launcher default).
	WorkingDir string

	// Env holds extra KEY=VALUE pairs appended to the allowed environment.
	Env []string

	// Limits override the launcher defaults when set.
	Limits *Limits
}

// Limits bound one invocation.
type Limits struct {
	// TimeoutMs is the watchdog in milliseconds. Zero means use the
	// launcher default.
	TimeoutMs int64

	// MaxOutputBytes caps stdout and stderr capture (each). Zero means
	// use the launcher default.
	MaxOutputBytes int64
}

// Result reports what a launched process did.
type Result struct {
	// Output is the captured stdout.
	Output string

	// Stderr is the captured stderr.
	Stderr string

	// ExitCode is the process exit code. -1 when the process was
	// terminated by timeout or cancellation.
	ExitCode int

	// TimedOut reports that the watchdog killed the process.
	TimedOut bool

	// Canceled reports that the caller's context killed the process.
	Canceled bool

	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration

	// Truncated reports that output exceeded the cap.
	Truncated      bool
	TruncatedBytes int64
}
