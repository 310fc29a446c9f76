package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trinity/internal/config"
	"trinity/internal/launcher"
	"trinity/internal/logging"
	"trinity/internal/pool"
	"trinity/internal/provider"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	timeoutMs  int64

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "trinity",
	Short: fmt.Sprintf("trinity - Parallel AI provider orchestrator (%s)", config.Version),
	Long: `trinity runs prompts across AI provider CLIs (claude, gemini, codex)
as managed subprocess workers.

A worker is one provider invocation with a tracked lifecycle. Workers can
run alone, fan out in parallel, or convene as a trinity meeting where every
provider answers the same prompt and the meeting succeeds only if all of
them do.

Providers are not called over HTTP: each one is the vendor's own CLI,
authenticated however that CLI is. Run 'trinity doctor' to check yours.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			ws, err := config.FindWorkspaceRoot()
			if err != nil {
				return err
			}
			workspace = ws
		}

		if err := logging.Initialize(workspace); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

// versionCmd prints the release version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the trinity version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("trinity %s\n", config.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: auto-detected)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <workspace>/.trinity/config.yaml)")
	rootCmd.PersistentFlags().Int64Var(&timeoutMs, "timeout-ms", 0, "Per-worker watchdog in milliseconds (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(parallelCmd)
	rootCmd.AddCommand(meetCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the workspace configuration honoring the global flags.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(workspace, ".trinity", "config.yaml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if timeoutMs > 0 {
		cfg.Pool.TimeoutMs = timeoutMs
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.Debug("Configuration loaded",
		zap.String("path", path),
		zap.Int64("timeout_ms", cfg.Pool.TimeoutMs))
	return cfg, nil
}

// buildPool assembles the worker pool from configuration.
func buildPool(cfg *config.Config) *pool.Pool {
	lcfg := launcher.DefaultConfig()
	lcfg.DefaultWorkingDir = cfg.Execution.WorkingDirectory
	lcfg.DefaultTimeout = cfg.PoolTimeout()
	lcfg.MaxOutputBytes = cfg.Execution.MaxOutputBytes
	lcfg.StagingDir = cfg.Execution.StagingDir
	lcfg.AllowedEnvironment = cfg.Execution.AllowedEnvVars

	registry := provider.NewRegistry(cfg)
	l := launcher.NewCLILauncherWithConfig(lcfg)

	return pool.New(pool.Config{Timeout: cfg.PoolTimeout()}, registry, l)
}

// watchSignals cancels ctx and kills all running workers on SIGINT/SIGTERM.
// The returned stop func releases the signal handler.
func watchSignals(ctx context.Context, p *pool.Pool) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
			killed := p.KillAll()
			logger.Info("Killed running workers", zap.Int("count", killed))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// joinArgs joins command arguments into a single prompt string
func joinArgs(args []string) string {
	result := ""
	for i, arg := range args {
		if i > 0 {
			result += " "
		}
		result += arg
	}
	return result
}

// workerWallTime formats how long a worker ran.
func workerWallTime(w *pool.Worker) string {
	if w.StartedAt == nil || w.FinishedAt == nil {
		return "-"
	}
	return w.FinishedAt.Sub(*w.StartedAt).Round(10 * time.Millisecond).String()
}
