package launcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"trinity/internal/logging"
)

// Config is the configuration for a CLILauncher.
type Config struct {
	// DefaultWorkingDir is used when Request.WorkingDir is empty.
	DefaultWorkingDir string

	// DefaultTimeout is used when no timeout is specified. AI CLI calls
	// run long, so this is generous.
	DefaultTimeout time.Duration

	// MaxTimeout caps all timeout values.
	MaxTimeout time.Duration

	// MaxOutputBytes caps stdout/stderr capture (default 10MB).
	MaxOutputBytes int64

	// StagingDir is where payload temp files are created ("" = os.TempDir).
	StagingDir string

	// AllowedEnvironment lists environment variables to pass through.
	AllowedEnvironment []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultWorkingDir:  ".",
		DefaultTimeout:     300 * time.Second,
		MaxTimeout:         60 * time.Minute,
		MaxOutputBytes:     10 * 1024 * 1024, // 10MB
		AllowedEnvironment: []string{"PATH", "HOME", "USER", "SHELL", "TERM", "LANG", "XDG_CONFIG_HOME"},
	}
}

// Merge combines this config with request-specific settings.
// Request settings override config defaults.
func (c Config) Merge(req Request) Request {
	result := req

	if result.WorkingDir == "" {
		result.WorkingDir = c.DefaultWorkingDir
	}

	if result.Limits == nil {
		result.Limits = &Limits{
			TimeoutMs:      int64(c.DefaultTimeout / time.Millisecond),
			MaxOutputBytes: c.MaxOutputBytes,
		}
	} else {
		limits := *result.Limits
		if limits.TimeoutMs == 0 {
			limits.TimeoutMs = int64(c.DefaultTimeout / time.Millisecond)
		}
		if limits.MaxOutputBytes == 0 {
			limits.MaxOutputBytes = c.MaxOutputBytes
		}
		result.Limits = &limits
	}

	// Cap timeout at max
	if c.MaxTimeout > 0 {
		maxMs := int64(c.MaxTimeout / time.Millisecond)
		if result.Limits.TimeoutMs > maxMs {
			result.Limits.TimeoutMs = maxMs
		}
	}

	return result
}

// CLILauncher launches real OS processes using os/exec.
type CLILauncher struct {
	config Config
}

// NewCLILauncher creates a launcher with default config.
func NewCLILauncher() *CLILauncher {
	return NewCLILauncherWithConfig(DefaultConfig())
}

// NewCLILauncherWithConfig creates a launcher with custom config.
func NewCLILauncherWithConfig(config Config) *CLILauncher {
	logging.LauncherDebug("Creating CLILauncher: timeout=%s, maxOutput=%d bytes",
		config.DefaultTimeout, config.MaxOutputBytes)
	return &CLILauncher{config: config}
}

// Validate checks if a request can be launched.
func (l *CLILauncher) Validate(req Request) error {
	if req.Binary == "" {
		return fmt.Errorf("binary is required")
	}
	if req.Limits != nil {
		if req.Limits.TimeoutMs < 0 {
			return fmt.Errorf("timeout must not be negative, got %d", req.Limits.TimeoutMs)
		}
		if req.Limits.MaxOutputBytes < 0 {
			return fmt.Errorf("max output bytes must not be negative, got %d", req.Limits.MaxOutputBytes)
		}
	}
	return nil
}

// Launch runs the process and waits for it to finish. The payload is staged
// to a temp file fed on stdin; the file is removed on every exit path.
func (l *CLILauncher) Launch(ctx context.Context, req Request) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryLauncher, "CLI process launch")
	defer timer.Stop()

	if err := l.Validate(req); err != nil {
		logging.LauncherWarn("Request validation failed: %s %v - %v", req.Binary, req.Args, err)
		return nil, err
	}

	req = l.config.Merge(req)

	logging.LauncherDebug("Launching: %s %v (dir=%s, timeout=%dms, payload=%d bytes)",
		req.Binary, req.Args, req.WorkingDir, req.Limits.TimeoutMs, len(req.Payload))

	stdin, cleanup, err := l.stagePayload(req.Payload)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result := &Result{ExitCode: -1}

	timeout := l.config.DefaultTimeout
	if req.Limits.TimeoutMs > 0 {
		timeout = time.Duration(req.Limits.TimeoutMs) * time.Millisecond
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, req.Binary, req.Args...)
	cmd.Dir = req.WorkingDir
	cmd.Env = l.buildEnvironment(req.Env)
	cmd.Stdin = stdin

	maxOutput := l.config.MaxOutputBytes
	if req.Limits.MaxOutputBytes > 0 {
		maxOutput = req.Limits.MaxOutputBytes
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: maxOutput}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: maxOutput}
	cmd.Stdout = stdoutLimited
	cmd.Stderr = stderrLimited

	result.StartedAt = time.Now()

	runErr := cmd.Run()

	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	result.Output = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	if stdoutLimited.truncated || stderrLimited.truncated {
		result.Truncated = true
		result.TruncatedBytes = stdoutLimited.discarded + stderrLimited.discarded
		logging.LauncherWarn("Process output truncated: %d bytes discarded", result.TruncatedBytes)
	}

	if runErr != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			result.TimedOut = true
			logging.LauncherWarn("Process killed (timeout): %s after %s", req.Binary, timeout)
		} else if execCtx.Err() == context.Canceled {
			result.Canceled = true
			logging.LauncherDebug("Process canceled: %s", req.Binary)
		} else if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			logging.LauncherDebug("Process exited non-zero: %s -> %d", req.Binary, result.ExitCode)
		} else {
			logging.LauncherError("Process failed to launch: %s - %v", req.Binary, runErr)
			return nil, fmt.Errorf("failed to launch %s: %w", req.Binary, runErr)
		}
	} else {
		result.ExitCode = 0
	}

	logging.Launcher("Process finished: %s -> exit=%d, duration=%s, stdout=%d bytes",
		req.Binary, result.ExitCode, result.Duration, len(result.Output))

	return result, nil
}

// stagePayload writes the payload to a temp file and returns it positioned
// at the start, ready to serve as the process stdin. The cleanup func closes
// and removes the file; callers must defer it on every path.
func (l *CLILauncher) stagePayload(payload string) (*os.File, func(), error) {
	dir := l.config.StagingDir
	if dir == "" {
		dir = os.TempDir()
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create staging dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "trinity_payload_*.txt")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	cleanup := func() {
		f.Close()
		os.Remove(f.Name())
	}

	if _, err := f.WriteString(payload); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to write staging file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to rewind staging file: %w", err)
	}

	return f, cleanup, nil
}

// buildEnvironment creates the environment variable list.
func (l *CLILauncher) buildEnvironment(reqEnv []string) []string {
	env := make([]string, 0)

	// Pass through allowed variables from the current environment
	for _, key := range l.config.AllowedEnvironment {
		if val := os.Getenv(key); val != "" {
			env = append(env, fmt.Sprintf("%s=%s", key, val))
		}
	}

	env = append(env, reqEnv...)

	return env
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		// Partial write
		lw.truncated = true
		toWrite := p[:remaining]
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(toWrite)
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
