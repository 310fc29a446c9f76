//go:build ignore

// Standalone pool concurrency verification
// Run with: go run test_performance.go
package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"trinity/internal/config"
	"trinity/internal/launcher"
	"trinity/internal/pool"
	"trinity/internal/provider"
)

// instantLauncher completes every request immediately.
type instantLauncher struct{}

func (instantLauncher) Launch(ctx context.Context, req launcher.Request) (*launcher.Result, error) {
	now := time.Now()
	return &launcher.Result{Output: "ok", ExitCode: 0, StartedAt: now, FinishedAt: now}, nil
}

// blockedLauncher parks every request until its context is canceled.
type blockedLauncher struct{}

func (blockedLauncher) Launch(ctx context.Context, req launcher.Request) (*launcher.Result, error) {
	<-ctx.Done()
	now := time.Now()
	return &launcher.Result{ExitCode: -1, Canceled: true, StartedAt: now, FinishedAt: now}, nil
}

func newPool(l launcher.Launcher) *pool.Pool {
	registry := provider.NewRegistry(config.DefaultConfig())
	return pool.New(pool.Config{Timeout: time.Minute}, registry, l)
}

func main() {
	fmt.Println("🧪 Verifying worker pool concurrency behavior")
	fmt.Println()

	// Test 1: Async spawn throughput
	fmt.Println("Test 1: Async Spawn Throughput (200 workers)")
	p := newPool(instantLauncher{})
	ctx := context.Background()

	const spawns = 200
	ids := make([]string, 0, spawns)
	start := time.Now()
	for i := 0; i < spawns; i++ {
		id, err := p.SpawnWorkerAsync(ctx, provider.Claude, fmt.Sprintf("prompt %d", i))
		if err != nil {
			fmt.Printf("  ⚠️  spawn %d failed: %v\n", i, err)
			return
		}
		ids = append(ids, id)
	}
	for _, id := range ids {
		if _, err := p.WaitForWorker(ctx, id); err != nil {
			fmt.Printf("  ⚠️  wait failed: %v\n", err)
			return
		}
	}
	elapsed := time.Since(start)

	stats := p.GetWorkerStats()
	fmt.Printf("  ✅ %d workers settled in %v (%.0f/sec)\n", spawns, elapsed, float64(spawns)/elapsed.Seconds())
	fmt.Printf("  ✅ Stats: %d completed, %d total\n", stats.Completed, stats.Total)
	fmt.Printf("  ✅ Counters sum to total: %v\n\n", stats.Pending+stats.Running+stats.Completed+stats.Failed+stats.Killed == stats.Total)

	// Test 2: Kill vs completion race coherence
	fmt.Println("Test 2: Kill/Completion Race (500 rounds)")
	p2 := newPool(instantLauncher{})
	incoherent := 0
	killedCount := 0
	for i := 0; i < 500; i++ {
		id, err := p2.SpawnWorkerAsync(ctx, provider.Gemini, "race")
		if err != nil {
			fmt.Printf("  ⚠️  spawn failed: %v\n", err)
			return
		}
		p2.KillWorker(id)
		w, err := p2.WaitForWorker(ctx, id)
		if err != nil {
			fmt.Printf("  ⚠️  wait failed: %v\n", err)
			return
		}
		switch w.Status {
		case pool.StatusKilled:
			killedCount++
			if w.Output != "" || w.Error != "killed by request" {
				incoherent++
			}
		case pool.StatusCompleted:
			if w.Output != "ok" || w.Error != "" {
				incoherent++
			}
		default:
			incoherent++
		}
	}
	fmt.Printf("  ✅ 500 rounds: %d killed, %d completed\n", killedCount, 500-killedCount)
	fmt.Printf("  ✅ Incoherent terminal states: %d\n\n", incoherent)

	// Test 3: KillAll drain latency
	fmt.Println("Test 3: KillAll Drain (25 blocked workers)")
	p3 := newPool(blockedLauncher{})
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		id, err := p3.SpawnWorkerAsync(ctx, provider.Codex, "blocked")
		if err != nil {
			fmt.Printf("  ⚠️  spawn failed: %v\n", err)
			return
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			p3.WaitForWorker(ctx, id)
		}(id)
	}
	for p3.GetWorkerStats().Running < 25 {
		time.Sleep(time.Millisecond)
	}
	start = time.Now()
	killed := p3.KillAll()
	wg.Wait()
	drain := time.Since(start)
	fmt.Printf("  ✅ KillAll terminated %d workers in %v\n", killed, drain)
	fmt.Printf("  ✅ Pool drained: %v\n\n", !p3.HasRunningWorkers())

	// Test 4: Snapshot isolation
	fmt.Println("Test 4: Snapshot Isolation")
	snapshot := p.GetAllWorkers()
	for _, w := range snapshot {
		w.Output = "tampered"
		w.Status = pool.StatusFailed
	}
	clean := true
	for _, w := range p.GetAllWorkers() {
		if w.Output != "ok" || w.Status != pool.StatusCompleted {
			clean = false
			break
		}
	}
	cleared := p.ClearFinishedWorkers()
	fmt.Printf("  ✅ Registry unaffected by snapshot mutation: %v\n", clean)
	fmt.Printf("  ✅ ClearFinishedWorkers removed %d, %d remain\n\n", cleared, p.GetWorkerStats().Total)

	// Summary
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("📊 Pool Verification Summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("✅ Throughput: %d workers in %v\n", spawns, elapsed)
	fmt.Printf("✅ Race coherence: %d incoherent states out of 500\n", incoherent)
	fmt.Printf("✅ KillAll drain: %d workers in %v\n", killed, drain)
	fmt.Printf("✅ Snapshot isolation: %v\n", clean)
}
