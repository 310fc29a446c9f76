// Package config holds the trinity configuration: the worker pool watchdog,
// per-provider CLI invocations, execution policy for spawned processes, and
// logging controls. Configuration lives at <workspace>/.trinity/config.yaml
// and every field has a usable default, so a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the trinity release version.
const Version = "1.2.0"

// DefaultPoolTimeoutMs is the per-process watchdog applied when the config
// does not set one. AI CLI calls routinely run for minutes.
const DefaultPoolTimeoutMs = 300_000

// Config holds all trinity configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Worker pool settings
	Pool PoolConfig `yaml:"pool"`

	// Provider CLI invocations
	Providers ProvidersConfig `yaml:"providers"`

	// Execution settings for spawned processes
	Execution ExecutionConfig `yaml:"execution"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	// TimeoutMs is the default watchdog for every spawned process in
	// milliseconds. Individual providers may override it.
	TimeoutMs int64 `yaml:"timeout_ms"`
}

// ExecutionConfig configures how provider processes are launched.
type ExecutionConfig struct {
	// StagingDir is where prompt payloads are staged as temp files before
	// being fed to the provider process. Empty means os.TempDir().
	StagingDir string `yaml:"staging_dir"`

	// Working directory for spawned processes
	WorkingDirectory string `yaml:"working_directory"`

	// Environment variables passed through to spawned processes
	AllowedEnvVars []string `yaml:"allowed_env_vars"`

	// MaxOutputBytes caps captured stdout/stderr per process
	MaxOutputBytes int64 `yaml:"max_output_bytes"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "trinity",
		Version: Version,

		Pool: PoolConfig{
			TimeoutMs: DefaultPoolTimeoutMs,
		},

		Providers: ProvidersConfig{
			Claude: DefaultClaudeCLIConfig(),
			Gemini: DefaultGeminiCLIConfig(),
			Codex:  DefaultCodexCLIConfig(),
		},

		Execution: ExecutionConfig{
			StagingDir:       "",
			WorkingDirectory: ".",
			AllowedEnvVars:   []string{"PATH", "HOME", "USER", "SHELL", "TERM", "LANG", "XDG_CONFIG_HOME"},
			MaxOutputBytes:   10 * 1024 * 1024,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the configuration for values the pool cannot work with.
func (c *Config) Validate() error {
	if c.Pool.TimeoutMs <= 0 {
		return fmt.Errorf("pool.timeout_ms must be positive, got %d", c.Pool.TimeoutMs)
	}
	if c.Providers.Claude.Binary == "" {
		return fmt.Errorf("providers.claude.binary must not be empty")
	}
	if c.Providers.Gemini.Binary == "" {
		return fmt.Errorf("providers.gemini.binary must not be empty")
	}
	if c.Providers.Codex.Binary == "" {
		return fmt.Errorf("providers.codex.binary must not be empty")
	}
	if c.Execution.MaxOutputBytes <= 0 {
		return fmt.Errorf("execution.max_output_bytes must be positive, got %d", c.Execution.MaxOutputBytes)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Provider binaries
	if bin := os.Getenv("TRINITY_CLAUDE_BIN"); bin != "" {
		c.Providers.Claude.Binary = bin
	}
	if bin := os.Getenv("TRINITY_GEMINI_BIN"); bin != "" {
		c.Providers.Gemini.Binary = bin
	}
	if bin := os.Getenv("TRINITY_CODEX_BIN"); bin != "" {
		c.Providers.Codex.Binary = bin
	}

	// Pool watchdog
	if ms := os.Getenv("TRINITY_TIMEOUT_MS"); ms != "" {
		if v, err := strconv.ParseInt(ms, 10, 64); err == nil && v > 0 {
			c.Pool.TimeoutMs = v
		}
	}

	// Staging directory for prompt payloads
	if dir := os.Getenv("TRINITY_STAGING_DIR"); dir != "" {
		c.Execution.StagingDir = dir
	}
}

// PoolTimeout returns the pool watchdog as a duration.
func (c *Config) PoolTimeout() time.Duration {
	if c.Pool.TimeoutMs <= 0 {
		return DefaultPoolTimeoutMs * time.Millisecond
	}
	return time.Duration(c.Pool.TimeoutMs) * time.Millisecond
}

// FindWorkspaceRoot walks up from the current directory looking for a
// .trinity directory, falling back to the nearest go.mod, and finally the
// current directory itself.
func FindWorkspaceRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}

	for dir := cwd; ; dir = filepath.Dir(dir) {
		if info, err := os.Stat(filepath.Join(dir, ".trinity")); err == nil && info.IsDir() {
			return dir, nil
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}

	for dir := cwd; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}

	return cwd, nil
}

// DefaultConfigPath returns <workspace>/.trinity/config.yaml.
func DefaultConfigPath() string {
	root, err := FindWorkspaceRoot()
	if err != nil {
		root = "."
	}
	return filepath.Join(root, ".trinity", "config.yaml")
}
