package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"trinity/cmd/trinity/ui"
)

// doctorCmd checks that the provider CLIs are installed and answering
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check provider CLI availability",
	Long: `Probes every configured provider binary: whether it is on PATH and
whether it answers a --version call. trinity never stores credentials;
each provider CLI authenticates itself (claude login, codex login, ...).`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	styles := ui.DefaultStyles()

	fmt.Printf("trinity %s\n", cfg.Version)
	fmt.Printf("workspace: %s\n", workspace)
	fmt.Printf("config:    %s\n", filepath.Join(workspace, ".trinity", "config.yaml"))
	fmt.Printf("watchdog:  %s\n\n", cfg.PoolTimeout())

	registry := buildPool(cfg).Registry()

	healthy := 0
	for _, name := range registry.Names() {
		def, err := registry.Lookup(name)
		if err != nil {
			continue
		}

		fmt.Printf("%s\n", styles.ProviderBadge(name))

		path, err := findExecutable(def.Binary)
		if err != nil {
			fmt.Printf("  ✗ %s not found in PATH\n", def.Binary)
			fmt.Printf("    %s\n\n", styles.Muted.Render(installHint(def.Binary)))
			continue
		}
		fmt.Printf("  ✓ binary: %s\n", path)

		probe := newExecCommand(cmd.Context(), def.Binary, "--version")
		if output, err := probe.CombinedOutput(); err != nil {
			fmt.Printf("  ✗ --version probe failed: %s\n", strings.TrimSpace(string(output)))
			fmt.Printf("    %s\n\n", styles.Muted.Render("run the provider's login command and retry"))
			continue
		} else {
			version := strings.TrimSpace(string(output))
			if i := strings.IndexByte(version, '\n'); i >= 0 {
				version = version[:i]
			}
			fmt.Printf("  ✓ version: %s\n", version)
		}

		fmt.Printf("  · argv: %s %s\n\n", def.Binary, strings.Join(def.Args, " "))
		healthy++
	}

	if healthy == 0 {
		return fmt.Errorf("no provider CLI is usable")
	}
	fmt.Println(styles.Success.Render(fmt.Sprintf("%d provider(s) ready", healthy)))
	return nil
}

// installHint names the install command for the known provider CLIs.
func installHint(binary string) string {
	switch binary {
	case "claude":
		return "npm install -g @anthropic-ai/claude-code"
	case "gemini":
		return "npm install -g @google/gemini-cli"
	case "codex":
		return "npm install -g @openai/codex"
	default:
		return "install it or point the config at the right binary"
	}
}

// findExecutable searches for an executable in PATH
func findExecutable(name string) (string, error) {
	path, err := execLookPath(name)
	if err == nil {
		return path, nil
	}

	// On Windows the npm shims carry extensions
	if strings.HasSuffix(os.Getenv("OS"), "Windows_NT") {
		for _, ext := range []string{".exe", ".cmd"} {
			if path, err = execLookPath(name + ext); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("%s not found in PATH", name)
}

// execLookPath wraps exec.LookPath for testability
var execLookPath = func(file string) (string, error) {
	return exec.LookPath(file)
}

// newExecCommand creates an exec.Cmd for testability
var newExecCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
