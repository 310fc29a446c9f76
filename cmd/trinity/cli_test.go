package main

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trinity/internal/provider"
)

func setupWorkspace(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	ws := t.TempDir()
	oldWorkspace, oldConfig, oldTimeout := workspace, configPath, timeoutMs
	workspace = ws
	configPath = ""
	timeoutMs = 0
	t.Cleanup(func() {
		workspace, configPath, timeoutMs = oldWorkspace, oldConfig, oldTimeout
	})
}

func TestParseTasks(t *testing.T) {
	tasks, err := parseTasks([]string{
		"claude=summarize the readme",
		"gemini=x = y + z, explain",
		"claude=second claude task",
	})
	if err != nil {
		t.Fatalf("parseTasks failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].Provider != provider.Claude || tasks[0].Prompt != "summarize the readme" {
		t.Errorf("task 0 parsed wrong: %+v", tasks[0])
	}
	// Only the first = splits; the prompt keeps the rest
	if tasks[1].Prompt != "x = y + z, explain" {
		t.Errorf("prompt with = mangled: %q", tasks[1].Prompt)
	}
	if tasks[2].Provider != provider.Claude {
		t.Errorf("duplicate provider rejected: %+v", tasks[2])
	}
}

func TestParseTasks_Invalid(t *testing.T) {
	cases := []string{
		"no separator",
		"=prompt without provider",
		"claude=",
	}
	for _, c := range cases {
		if _, err := parseTasks([]string{c}); err == nil {
			t.Errorf("parseTasks(%q) should fail", c)
		}
	}
}

func TestJoinArgs(t *testing.T) {
	if got := joinArgs([]string{"explain", "this", "trace"}); got != "explain this trace" {
		t.Errorf("joinArgs = %q", got)
	}
	if got := joinArgs(nil); got != "" {
		t.Errorf("joinArgs(nil) = %q", got)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	setupWorkspace(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Providers.Claude.Binary != "claude" {
		t.Errorf("expected default claude binary, got %q", cfg.Providers.Claude.Binary)
	}
}

func TestLoadConfig_TimeoutFlagOverride(t *testing.T) {
	setupWorkspace(t)
	timeoutMs = 1234

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Pool.TimeoutMs != 1234 {
		t.Errorf("expected flag override 1234, got %d", cfg.Pool.TimeoutMs)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	setupWorkspace(t)

	dir := filepath.Join(workspace, ".trinity")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	yaml := "providers:\n  claude:\n    binary: claude-custom\n    model: opus\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Providers.Claude.Binary != "claude-custom" {
		t.Errorf("config file not honored: %q", cfg.Providers.Claude.Binary)
	}
}

func TestBuildPool(t *testing.T) {
	setupWorkspace(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	p := buildPool(cfg)
	names := p.Registry().Names()
	if len(names) != 3 {
		t.Fatalf("expected 3 providers, got %v", names)
	}
}

func TestRunWorker_UnknownProvider(t *testing.T) {
	setupWorkspace(t)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runWorker(cmd, []string{"gpt9000", "hello"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	var unknownErr *provider.UnknownProviderError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownProviderError, got %T: %v", err, err)
	}
}

func TestRunMeeting_UnknownProvider(t *testing.T) {
	setupWorkspace(t)
	oldProviders := meetProviders
	meetProviders = []string{"claude", "gpt9000"}
	defer func() { meetProviders = oldProviders }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runMeeting(cmd, []string{"hello"})
	if err == nil {
		t.Fatal("expected error for unknown provider in meeting")
	}
	var unknownErr *provider.UnknownProviderError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownProviderError, got %T: %v", err, err)
	}
}

func TestDoctor_NoCLIsInstalled(t *testing.T) {
	setupWorkspace(t)

	oldLook := execLookPath
	execLookPath = func(file string) (string, error) {
		return "", errors.New("not found")
	}
	defer func() { execLookPath = oldLook }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	if err := runDoctor(cmd, nil); err == nil {
		t.Fatal("doctor should fail when no provider CLI exists")
	}
}

func TestDoctor_StubbedCLI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("probe stub uses echo")
	}
	setupWorkspace(t)

	oldLook := execLookPath
	oldExec := newExecCommand
	execLookPath = func(file string) (string, error) {
		if file == "claude" {
			return "/usr/local/bin/claude", nil
		}
		return "", errors.New("not found")
	}
	newExecCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "echo", name, "1.0.0")
	}
	defer func() {
		execLookPath = oldLook
		newExecCommand = oldExec
	}()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	if err := runDoctor(cmd, nil); err != nil {
		t.Fatalf("doctor should pass with one usable provider: %v", err)
	}
}

func TestFindExecutable(t *testing.T) {
	oldLook := execLookPath
	execLookPath = func(file string) (string, error) {
		if file == "present" {
			return "/bin/present", nil
		}
		return "", errors.New("not found")
	}
	defer func() { execLookPath = oldLook }()

	path, err := findExecutable("present")
	if err != nil || path != "/bin/present" {
		t.Errorf("findExecutable(present) = %q, %v", path, err)
	}
	if _, err := findExecutable("absent"); err == nil {
		t.Error("findExecutable(absent) should fail")
	}
}

func TestInstallHint(t *testing.T) {
	for binary, fragment := range map[string]string{
		"claude": "@anthropic-ai/claude-code",
		"gemini": "@google/gemini-cli",
		"codex":  "@openai/codex",
		"other":  "install",
	} {
		if hint := installHint(binary); !strings.Contains(hint, fragment) {
			t.Errorf("installHint(%s) = %q, want %q inside", binary, hint, fragment)
		}
	}
}
