package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"fourup/game"
	"fourup/orchestrator"
)

// MCTS is the tier-4 strategy: UCB1 tree search with tree parallelization
// and virtual loss. Workers simulate until the context deadline; confidence
// is the visit share of the chosen column.
type MCTS struct {
	goroutines int
}

type MCTSOption func(*MCTS)

func WithGoroutines(n int) MCTSOption {
	return func(m *MCTS) {
		if n > 0 {
			m.goroutines = n
		}
	}
}

func NewMCTS(options ...MCTSOption) *MCTS {
	m := &MCTS{goroutines: 4}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *MCTS) Invoke(ctx context.Context, p game.Position, actor game.Side, _ int) (orchestrator.Suggestion, error) {
	if p.Turn() != actor {
		return orchestrator.Suggestion{}, fmt.Errorf("not %s's turn", actor)
	}
	legal := game.LegalColumns(p)
	if len(legal) == 0 {
		return orchestrator.Suggestion{}, fmt.Errorf("no legal columns")
	}

	root := newNode(nil, game.Opponent(actor), game.Empty, -1, p)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				simulate(root, p)
			}
		}()
	}
	wg.Wait()

	best, share := root.bestChild()
	if best == nil {
		return orchestrator.Suggestion{}, fmt.Errorf("mcts: no playouts completed: %w", ctx.Err())
	}
	return orchestrator.Suggestion{
		Column:      best.column,
		Confidence:  share,
		Explanation: fmt.Sprintf("%.0f%% of %.0f playouts", 100*share, root.visitCount()),
	}, nil
}

func (m *MCTS) SelfCheck(ctx context.Context) error {
	probe, cancel := context.WithTimeout(ctx, 25*time.Millisecond)
	defer cancel()
	_, err := m.Invoke(probe, game.NewPosition(), game.Red, 50)
	return err
}

// simulate runs one episode: selection and expansion, then a random rollout,
// then backup.
func simulate(root *node, pos game.Position) {
	parent := root
	child, state, added := parent.selectOrExpand(pos)
	for child != parent && !added {
		parent = child
		pos = state
		child, state, added = parent.selectOrExpand(pos)
	}

	winner := child.winner
	if winner == game.Empty {
		winner = rollout(state)
	}

	node := child
	for node != nil {
		node = node.backup(rewarder(winner))
	}
}

// rollout plays random legal moves until a win or a full board. Returns the
// winning side or Empty on a draw.
func rollout(pos game.Position) game.Side {
	moves := game.LegalColumns(pos)
	for len(moves) > 0 {
		col := moves[rand.Intn(len(moves))]
		side := pos.Turn()
		next, row, err := game.SimulateDrop(pos, col, side)
		if err != nil {
			panic("legal column is not playable")
		}
		if game.CheckWin(next, row, col, side) {
			return side
		}
		pos = next
		moves = game.LegalColumns(pos)
	}
	return game.Empty
}

func rewarder(winner game.Side) func(game.Side) float64 {
	return func(mover game.Side) float64 {
		switch winner {
		case game.Empty:
			return draw
		case mover:
			return win
		default:
			return loss
		}
	}
}
