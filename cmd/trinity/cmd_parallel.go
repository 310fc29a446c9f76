package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trinity/cmd/trinity/ui"
	"trinity/internal/pool"
	"trinity/internal/provider"
)

var (
	parallelTasks []string
	parallelJSON  bool
)

// parallelCmd fans several prompts out across providers at once
var parallelCmd = &cobra.Command{
	Use:   "parallel",
	Short: "Run several prompts concurrently",
	Long: `Fans out one worker per task and waits for all of them. Results are
reported in the order the tasks were given, not the order they finished.

Each task is provider=prompt; the same provider may appear more than once.

Example:
  trinity parallel \
    -t claude="summarize README.md" \
    -t gemini="summarize README.md" \
    -t claude="list the exported symbols"`,
	RunE: runParallelTasks,
}

func init() {
	parallelCmd.Flags().StringArrayVarP(&parallelTasks, "task", "t", nil, "Task as provider=prompt (repeatable)")
	parallelCmd.Flags().BoolVar(&parallelJSON, "json", false, "Print worker records as JSON")
	parallelCmd.MarkFlagRequired("task")
}

// parseTasks turns provider=prompt pairs into pool tasks.
func parseTasks(specs []string) ([]pool.Task, error) {
	tasks := make([]pool.Task, 0, len(specs))
	for _, spec := range specs {
		name, prompt, found := strings.Cut(spec, "=")
		if !found || name == "" || prompt == "" {
			return nil, fmt.Errorf("invalid task %q: expected provider=prompt", spec)
		}
		tasks = append(tasks, pool.Task{
			Provider: provider.Name(strings.TrimSpace(name)),
			Prompt:   prompt,
		})
	}
	return tasks, nil
}

func runParallelTasks(cmd *cobra.Command, args []string) error {
	tasks, err := parseTasks(parallelTasks)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := buildPool(cfg)

	ctx, cancel := watchSignals(cmd.Context(), p)
	defer cancel()

	logger.Info("Dispatching parallel tasks", zap.Int("count", len(tasks)))

	workers, err := p.RunParallel(ctx, tasks)
	if err != nil {
		return err
	}

	if parallelJSON {
		data, err := json.MarshalIndent(workers, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode workers: %w", err)
		}
		fmt.Println(string(data))
	} else {
		styles := ui.DefaultStyles()
		for i, w := range workers {
			fmt.Printf("%s %s\n", styles.ProviderBadge(w.Provider),
				styles.Muted.Render(fmt.Sprintf("task %d · %s · %s", i+1, w.ID, workerWallTime(w))))
			switch w.Status {
			case pool.StatusCompleted:
				fmt.Println(styles.OutputBlock.Render(w.Output))
			default:
				fmt.Println(styles.Error.Render(fmt.Sprintf("%s %s: %s",
					ui.StatusGlyph(w.Status), w.Status, w.Error)))
			}
			fmt.Println()
		}
		fmt.Println(ui.StatsLine(styles, p.GetWorkerStats()))
	}

	failed := 0
	for _, w := range workers {
		if w.Status != pool.StatusCompleted {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed, len(workers))
	}
	return nil
}
