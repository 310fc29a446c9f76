package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trinity/cmd/trinity/ui"
	"trinity/internal/pool"
	"trinity/internal/provider"
)

var (
	meetProviders []string
	meetWatch     bool
	meetRender    bool
	meetJSON      bool
)

// meetCmd convenes a trinity meeting
var meetCmd = &cobra.Command{
	Use:   "meet [prompt...]",
	Short: "Put one prompt to several providers as a trinity meeting",
	Long: `Convenes a trinity meeting: every provider answers the same prompt
concurrently, and the meeting succeeds only if every member completes.
Without --providers the full trinity (claude, gemini, codex) convenes.

Examples:
  trinity meet "should we use channels or mutexes here?"
  trinity meet --providers claude,codex --watch "review this API design"
  trinity meet --render "explain the tradeoffs of event sourcing"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMeeting,
}

func init() {
	meetCmd.Flags().StringSliceVar(&meetProviders, "providers", nil, "Comma-separated subset of providers")
	meetCmd.Flags().BoolVar(&meetWatch, "watch", false, "Show a live status view while the meeting runs")
	meetCmd.Flags().BoolVar(&meetRender, "render", false, "Render member outputs as markdown")
	meetCmd.Flags().BoolVar(&meetJSON, "json", false, "Print the ensemble record as JSON")
}

func runMeeting(cmd *cobra.Command, args []string) error {
	prompt := joinArgs(args)

	members := make([]provider.Name, 0, len(meetProviders))
	for _, name := range meetProviders {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			members = append(members, provider.Name(trimmed))
		}
	}
	if len(members) == 0 {
		members = provider.DefaultTrinity()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := buildPool(cfg)

	ctx, cancel := watchSignals(cmd.Context(), p)
	defer cancel()

	logger.Info("Convening trinity meeting",
		zap.Int("members", len(members)),
		zap.Bool("watch", meetWatch))

	var ensemble *pool.Ensemble
	if meetWatch && !meetJSON {
		ensemble, err = runMeetingWatched(ctx, p, prompt, members)
	} else {
		ensemble, err = runMeetingPlain(ctx, p, prompt, members)
	}
	if err != nil {
		return err
	}

	if meetJSON {
		data, err := json.MarshalIndent(ensemble, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode ensemble: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printMeetingResults(ensemble, members)
	}

	if !ensemble.Success {
		return fmt.Errorf("meeting %s failed: not all members completed", ensemble.ID)
	}
	return nil
}

// runMeetingPlain runs the meeting with progress lines on stderr.
func runMeetingPlain(ctx context.Context, p *pool.Pool, prompt string, members []provider.Name) (*pool.Ensemble, error) {
	styles := ui.DefaultStyles()
	if !meetJSON {
		p.Subscribe(func(ev pool.Event) {
			w := ev.Worker
			if w == nil {
				return
			}
			switch ev.Type {
			case pool.EventWorkerStarted:
				fmt.Fprintf(os.Stderr, "%s %s\n", styles.Info.Render("→"), w.Provider)
			case pool.EventWorkerCompleted:
				fmt.Fprintf(os.Stderr, "%s %s (%s)\n", styles.Success.Render("✓"), w.Provider, workerWallTime(w))
			case pool.EventWorkerFailed:
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", styles.Error.Render("✗"), w.Provider, w.Error)
			}
		})
	}

	return p.RunTrinityMeeting(ctx, prompt, members...)
}

// runMeetingWatched runs the meeting behind the live bubbletea view.
func runMeetingWatched(ctx context.Context, p *pool.Pool, prompt string, members []provider.Name) (*pool.Ensemble, error) {
	prog := tea.NewProgram(ui.NewMeetingModel(ui.DefaultStyles(), prompt, members))

	p.Subscribe(func(ev pool.Event) {
		prog.Send(ui.WorkerEventMsg{Event: ev})
	})

	done := make(chan struct{})
	var ensemble *pool.Ensemble
	var meetErr error
	go func() {
		defer close(done)
		ensemble, meetErr = p.RunTrinityMeeting(ctx, prompt, members...)
		prog.Send(ui.MeetingDoneMsg{Ensemble: ensemble, Err: meetErr})
	}()

	finalModel, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("meeting view failed: %w", err)
	}

	if m, ok := finalModel.(ui.MeetingModel); ok && m.Canceled() {
		logger.Info("Meeting aborted from the live view")
		p.KillAll()
	}

	// Join the meeting goroutine; after a kill the members settle quickly.
	<-done
	return ensemble, meetErr
}

// printMeetingResults renders the summary table and each member's output.
func printMeetingResults(ensemble *pool.Ensemble, members []provider.Name) {
	styles := ui.DefaultStyles()

	var renderer *glamour.TermRenderer
	if meetRender {
		if styles.Theme.IsDark {
			renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
		} else {
			renderer, _ = glamour.NewTermRenderer(
				glamour.WithStylePath("light"),
				glamour.WithWordWrap(100),
			)
		}
	}

	fmt.Println()
	ordered := make([]*pool.Worker, 0, len(members))
	for _, name := range members {
		if w, ok := ensemble.Workers[name]; ok {
			ordered = append(ordered, w)
		}
	}
	fmt.Print(ui.WorkerTable(styles, ordered).View(styles))
	fmt.Println()

	for _, w := range ordered {
		fmt.Printf("%s\n", styles.ProviderBadge(w.Provider))
		switch w.Status {
		case pool.StatusCompleted:
			fmt.Println(renderOutput(renderer, w.Output))
		default:
			fmt.Println(styles.Error.Render(w.Error))
		}
		fmt.Println()
	}

	verdict := styles.Error.Render(fmt.Sprintf("✗ %s failed", ensemble.ID))
	if ensemble.Success {
		verdict = styles.Success.Render(fmt.Sprintf("✓ %s succeeded", ensemble.ID))
	}
	duration := ""
	if ensemble.FinishedAt != nil {
		duration = styles.Muted.Render(" in " + ensemble.FinishedAt.Sub(ensemble.StartedAt).Round(10*time.Millisecond).String())
	}
	fmt.Println(verdict + duration)
}

// renderOutput renders markdown when a renderer is configured.
func renderOutput(renderer *glamour.TermRenderer, output string) string {
	if renderer == nil {
		return output
	}
	rendered, err := renderer.Render(output)
	if err != nil {
		return output
	}
	return strings.TrimRight(rendered, "\n")
}
