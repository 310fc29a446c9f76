package provider

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"trinity/internal/config"
)

func TestDefaultTrinity(t *testing.T) {
	got := DefaultTrinity()
	want := []Name{Claude, Gemini, Codex}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DefaultTrinity mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRegistry_DefaultDefinitions(t *testing.T) {
	reg := NewRegistry(nil)

	claude, err := reg.Lookup(Claude)
	if err != nil {
		t.Fatalf("Lookup(claude) failed: %v", err)
	}
	if claude.Binary != "claude" {
		t.Errorf("Expected binary 'claude', got %q", claude.Binary)
	}
	wantArgs := []string{"-p", "--output-format", "text", "--model", "sonnet"}
	if diff := cmp.Diff(wantArgs, claude.Args); diff != "" {
		t.Errorf("claude args mismatch (-want +got):\n%s", diff)
	}

	gemini, err := reg.Lookup(Gemini)
	if err != nil {
		t.Fatalf("Lookup(gemini) failed: %v", err)
	}
	wantArgs = []string{"--model", "gemini-2.5-pro"}
	if diff := cmp.Diff(wantArgs, gemini.Args); diff != "" {
		t.Errorf("gemini args mismatch (-want +got):\n%s", diff)
	}

	codex, err := reg.Lookup(Codex)
	if err != nil {
		t.Fatalf("Lookup(codex) failed: %v", err)
	}
	wantArgs = []string{"exec", "-", "--model", "gpt-5-codex", "--sandbox", "read-only", "--color", "never"}
	if diff := cmp.Diff(wantArgs, codex.Args); diff != "" {
		t.Errorf("codex args mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_LookupUnknown(t *testing.T) {
	reg := NewRegistry(nil)

	_, err := reg.Lookup("gpt9000")
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}

	var unknownErr *UnknownProviderError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected *UnknownProviderError, got %T", err)
	}
	if unknownErr.Provider != "gpt9000" {
		t.Errorf("Expected provider 'gpt9000' in error, got %q", unknownErr.Provider)
	}
	if len(unknownErr.Known) != 3 {
		t.Errorf("Expected 3 known providers in error, got %v", unknownErr.Known)
	}
	if !strings.Contains(err.Error(), "unknown provider: gpt9000") {
		t.Errorf("Error message should name the provider, got: %v", err)
	}
	if !strings.Contains(err.Error(), "claude") {
		t.Errorf("Error message should list valid providers, got: %v", err)
	}
}

func TestRegistry_RegisterPreservesOrder(t *testing.T) {
	reg := NewRegistry(nil)

	reg.Register(Definition{
		Name:   "mock",
		Binary: "/bin/echo",
	})

	want := []Name{Claude, Gemini, Codex, "mock"}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Errorf("Names mismatch after register (-want +got):\n%s", diff)
	}

	// Re-registering keeps the original position
	reg.Register(Definition{
		Name:   Claude,
		Binary: "/usr/local/bin/claude",
	})
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Errorf("Names mismatch after re-register (-want +got):\n%s", diff)
	}

	claude, err := reg.Lookup(Claude)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if claude.Binary != "/usr/local/bin/claude" {
		t.Errorf("Re-register should replace the definition, got binary %q", claude.Binary)
	}
}

func TestNewRegistry_ConfigOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.Claude.Binary = "/opt/ai/claude"
	cfg.Providers.Claude.Model = "opus"
	cfg.Providers.Claude.ExtraArgs = []string{"--dangerously-skip-permissions"}
	cfg.Providers.Gemini.TimeoutMs = 120000
	cfg.Providers.Codex.Sandbox = ""

	reg := NewRegistry(cfg)

	claude, err := reg.Lookup(Claude)
	if err != nil {
		t.Fatalf("Lookup(claude) failed: %v", err)
	}
	if claude.Binary != "/opt/ai/claude" {
		t.Errorf("Expected overridden binary, got %q", claude.Binary)
	}
	wantArgs := []string{"-p", "--output-format", "text", "--model", "opus", "--dangerously-skip-permissions"}
	if diff := cmp.Diff(wantArgs, claude.Args); diff != "" {
		t.Errorf("claude args mismatch (-want +got):\n%s", diff)
	}

	gemini, err := reg.Lookup(Gemini)
	if err != nil {
		t.Fatalf("Lookup(gemini) failed: %v", err)
	}
	if gemini.TimeoutMs != 120000 {
		t.Errorf("Expected per-provider timeout 120000, got %d", gemini.TimeoutMs)
	}

	// Empty sandbox drops the flag entirely
	codex, err := reg.Lookup(Codex)
	if err != nil {
		t.Fatalf("Lookup(codex) failed: %v", err)
	}
	for _, arg := range codex.Args {
		if arg == "--sandbox" {
			t.Errorf("Expected no --sandbox flag when sandbox is empty, got args %v", codex.Args)
		}
	}
}
