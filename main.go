package main

import (
	"context"
	"fmt"
	"time"

	"fourup/engine"
	"fourup/game"
	"fourup/orchestrator"
	"fourup/strategy"
)

type agentConfig struct {
	difficulty int
	budget     time.Duration
}

func main() {
	runSelfPlay()
}

func runSelfPlay() {
	numGames := 5
	configs := []agentConfig{
		{difficulty: 30, budget: 200 * time.Millisecond},
		{difficulty: 80, budget: 400 * time.Millisecond},
	}

	fmt.Printf("Running self-play...\n")
	orch := buildOrchestrator()
	defer orch.Close()

	for i := 0; i < numGames; i++ {
		red := &engine.Agent{Orch: orch, Difficulty: configs[0].difficulty, Budget: configs[0].budget}
		yellow := &engine.Agent{Orch: orch, Difficulty: configs[1].difficulty, Budget: configs[1].budget}

		winner, records, err := engine.Local(red, yellow).Run(context.Background())
		if err != nil {
			fmt.Printf("Game %d failed: %v\n", i+1, err)
			continue
		}
		fmt.Printf("Game %d over after %d moves! Winner: %s\n", i+1, len(records), winnerName(winner))
	}

	stats := orch.CacheStats()
	fmt.Printf("Cache: %d entries, %.0f%% hit rate\n", stats.Size, 100*stats.HitRate)
	for name, health := range orch.HealthReport() {
		fmt.Printf("Component %s: %s (score %.2f)\n", name, health.Status, health.Score)
	}
}

func buildOrchestrator() *orchestrator.Orchestrator {
	orch, err := orchestrator.New(orchestrator.DefaultConfig())
	if err != nil {
		panic(err)
	}

	register := func(desc orchestrator.Descriptor, inv orchestrator.Invoker) {
		if err := orch.Register(desc, inv); err != nil {
			panic(err)
		}
	}
	register(orchestrator.Descriptor{Name: "floor", Tier: 1, Timeout: 10 * time.Millisecond}, strategy.NewFloor())
	register(orchestrator.Descriptor{Name: "tactical", Tier: 2, Timeout: 25 * time.Millisecond}, strategy.NewTactical())
	register(orchestrator.Descriptor{Name: "minimax", Tier: 3, Timeout: 250 * time.Millisecond}, strategy.NewMinimax())
	register(orchestrator.Descriptor{Name: "mcts", Tier: 4, Timeout: 400 * time.Millisecond}, strategy.NewMCTS(strategy.WithGoroutines(8)))
	return orch
}

func winnerName(s game.Side) string {
	if s == game.Empty {
		return "nobody (draw)"
	}
	return s.String()
}
