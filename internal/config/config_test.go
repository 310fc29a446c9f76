package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "trinity" {
		t.Errorf("expected Name=trinity, got %s", cfg.Name)
	}
	if cfg.Pool.TimeoutMs != DefaultPoolTimeoutMs {
		t.Errorf("expected TimeoutMs=%d, got %d", int64(DefaultPoolTimeoutMs), cfg.Pool.TimeoutMs)
	}
	if cfg.Providers.Claude.Binary != "claude" {
		t.Errorf("expected claude binary, got %s", cfg.Providers.Claude.Binary)
	}
	if cfg.Providers.Codex.Sandbox != "read-only" {
		t.Errorf("expected codex sandbox=read-only, got %s", cfg.Providers.Codex.Sandbox)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	// Ensure no env vars interfere
	t.Setenv("TRINITY_CLAUDE_BIN", "")
	t.Setenv("TRINITY_GEMINI_BIN", "")
	t.Setenv("TRINITY_CODEX_BIN", "")
	t.Setenv("TRINITY_TIMEOUT_MS", "")
	t.Setenv("TRINITY_STAGING_DIR", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Pool.TimeoutMs = 60_000
	cfg.Providers.Claude.Model = "opus"
	cfg.Providers.Codex.TimeoutMs = 120_000
	cfg.Execution.StagingDir = "/tmp/trinity-staging"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round-trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("TRINITY_CLAUDE_BIN", "")
	t.Setenv("TRINITY_TIMEOUT_MS", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load of missing file should not error, got %v", err)
	}
	if cfg.Pool.TimeoutMs != DefaultPoolTimeoutMs {
		t.Errorf("expected default TimeoutMs, got %d", cfg.Pool.TimeoutMs)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	os.Setenv("TRINITY_CLAUDE_BIN", "/opt/bin/claude")
	defer os.Unsetenv("TRINITY_CLAUDE_BIN")

	os.Setenv("TRINITY_TIMEOUT_MS", "45000")
	defer os.Unsetenv("TRINITY_TIMEOUT_MS")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Providers.Claude.Binary != "/opt/bin/claude" {
		t.Errorf("expected claude binary override, got %s", cfg.Providers.Claude.Binary)
	}
	if cfg.Pool.TimeoutMs != 45000 {
		t.Errorf("expected TimeoutMs=45000, got %d", cfg.Pool.TimeoutMs)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.Pool.TimeoutMs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero timeout")
	}

	cfg = DefaultConfig()
	cfg.Providers.Gemini.Binary = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty gemini binary")
	}
}

func TestConfig_PoolTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pool.TimeoutMs = 5000
	if got := cfg.PoolTimeout(); got != 5*time.Second {
		t.Errorf("PoolTimeout=%v, want 5s", got)
	}

	// Bad values fall back to the default rather than disabling the watchdog.
	cfg.Pool.TimeoutMs = -1
	if got := cfg.PoolTimeout(); got != DefaultPoolTimeoutMs*time.Millisecond {
		t.Errorf("PoolTimeout fallback=%v, want %v", got, DefaultPoolTimeoutMs*time.Millisecond)
	}
}

func TestFindWorkspaceRoot_PrefersTrinityDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".trinity"), 0o755); err != nil {
		t.Fatalf("mkdir .trinity: %v", err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	origWD, _ := os.Getwd()
	if err := os.Chdir(nested); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWD) })

	got, err := FindWorkspaceRoot()
	if err != nil {
		t.Fatalf("FindWorkspaceRoot: %v", err)
	}
	if got != root {
		t.Fatalf("FindWorkspaceRoot=%q, want %q", got, root)
	}
}

func TestFindWorkspaceRoot_FallsBackToGoMod(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/test\n\ngo 1.22\n"), 0o644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}
	nested := filepath.Join(root, "subdir")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	origWD, _ := os.Getwd()
	if err := os.Chdir(nested); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWD) })

	got, err := FindWorkspaceRoot()
	if err != nil {
		t.Fatalf("FindWorkspaceRoot: %v", err)
	}
	if got != root {
		t.Fatalf("FindWorkspaceRoot=%q, want %q", got, root)
	}
}
