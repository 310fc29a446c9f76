package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trinity/cmd/trinity/ui"
	"trinity/internal/pool"
	"trinity/internal/provider"
)

var runJSON bool

// runCmd executes a single provider worker
var runCmd = &cobra.Command{
	Use:   "run [provider] [prompt...]",
	Short: "Run one prompt on one provider",
	Long: `Spawns a single worker: the provider's CLI is launched as a subprocess
with the prompt fed on stdin, and trinity waits for it to settle.

Examples:
  trinity run claude "explain this stack trace"
  trinity run codex --json "review the diff on stdin" < my.diff`,
	Args: cobra.MinimumNArgs(2),
	RunE: runWorker,
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the full worker record as JSON")
}

func runWorker(cmd *cobra.Command, args []string) error {
	name := provider.Name(args[0])
	prompt := joinArgs(args[1:])

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := buildPool(cfg)

	ctx, cancel := watchSignals(cmd.Context(), p)
	defer cancel()

	logger.Info("Spawning worker",
		zap.String("provider", string(name)),
		zap.Int("prompt_bytes", len(prompt)))

	w, err := p.SpawnWorker(ctx, name, prompt)
	if err != nil {
		return err
	}

	if runJSON {
		data, err := json.MarshalIndent(w, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode worker: %w", err)
		}
		fmt.Println(string(data))
		if w.Status != pool.StatusCompleted {
			return fmt.Errorf("worker %s: %s", w.Status, w.Error)
		}
		return nil
	}

	styles := ui.DefaultStyles()
	switch w.Status {
	case pool.StatusCompleted:
		fmt.Println(w.Output)
		fmt.Fprintln(os.Stderr, styles.Muted.Render(
			fmt.Sprintf("%s · %s · %s", w.ID, w.Provider, workerWallTime(w))))
		return nil
	default:
		return fmt.Errorf("worker %s %s: %s", w.ID, w.Status, w.Error)
	}
}
