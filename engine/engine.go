// Package engine drives a local game between two orchestrator-backed agents
// until a win or a draw.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fourup/game"
	"fourup/orchestrator"
)

// Agent binds an orchestrator to the difficulty and budget it plays with.
type Agent struct {
	Orch       *orchestrator.Orchestrator
	Difficulty int
	Budget     time.Duration
}

// MoveRecord is one played move with the decision that produced it.
type MoveRecord struct {
	Side     game.Side
	Column   int
	Decision orchestrator.Decision
}

type Engine struct {
	State  game.Position
	GameID string
	agents map[game.Side]*Agent
}

func Local(red, yellow *Agent) *Engine {
	if red == nil || yellow == nil {
		panic("both agents are required")
	}
	return &Engine{
		State:  game.NewPosition(),
		GameID: uuid.NewString(),
		agents: map[game.Side]*Agent{game.Red: red, game.Yellow: yellow},
	}
}

// Run plays moves alternately until a win or a full board. Returns the
// winning side, game.Empty on a draw.
func (e *Engine) Run(ctx context.Context) (game.Side, []MoveRecord, error) {
	log.Info().Str("game", e.GameID).Msg("game started")

	var records []MoveRecord
	for {
		side := e.State.Turn()
		agent := e.agents[side]

		decision, err := agent.Orch.Decide(ctx, orchestrator.DecisionRequest{
			Position:   e.State,
			Actor:      side,
			Difficulty: agent.Difficulty,
			TimeBudget: agent.Budget,
			GameID:     e.GameID,
			RequestID:  uuid.NewString(),
		})
		if errors.Is(err, orchestrator.ErrNoLegalMoves) {
			log.Info().Str("game", e.GameID).Int("moves", len(records)).Msg("draw")
			return game.Empty, records, nil
		}
		if err != nil {
			return game.Empty, records, fmt.Errorf("decide for %s: %w", side, err)
		}

		next, row, err := game.SimulateDrop(e.State, decision.Column, side)
		if err != nil {
			return game.Empty, records, fmt.Errorf("decision column %d: %w", decision.Column, err)
		}
		records = append(records, MoveRecord{Side: side, Column: decision.Column, Decision: decision})

		log.Debug().Str("game", e.GameID).Stringer("side", side).
			Int("column", decision.Column).Str("strategy", decision.Strategy).
			Int("tier", decision.Tier).Msg("move played")

		if game.CheckWin(next, row, decision.Column, side) {
			log.Info().Str("game", e.GameID).Stringer("winner", side).Int("moves", len(records)).Msg("game over")
			return side, records, nil
		}
		e.State = next
	}
}
