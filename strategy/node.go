package strategy

import (
	"math"
	"sync"

	"fourup/game"
)

// UCB1 exploration constant and reward bounds.
const (
	cSquared = 2.0
	win      = 1.0
	draw     = 0.5
	loss     = 0.0
)

// node is one tree-parallel MCTS node guarded by its own lock. A temporary
// virtual loss discourages concurrent workers from piling onto one branch.
type node struct {
	sync.RWMutex
	parent     *node
	mover      game.Side // side that played column to reach this node
	winner     game.Side // Empty unless the move into this node won
	column     int
	unexplored []int
	children   []*node
	rewards    float64
	visits     float64
}

func newNode(parent *node, mover game.Side, winner game.Side, column int, pos game.Position) *node {
	n := &node{
		parent: parent,
		mover:  mover,
		winner: winner,
		column: column,
	}
	if winner == game.Empty { // Won nodes are terminal, never expanded
		n.unexplored = game.LegalColumns(pos)
	}
	return n
}

// selectOrExpand picks the max-UCB child of a fully expanded node, or adds
// one child for the next unexplored column. Terminal nodes return themselves.
func (n *node) selectOrExpand(pos game.Position) (*node, game.Position, bool) {
	n.Lock()
	defer n.Unlock()

	if len(n.unexplored) == 0 && len(n.children) == 0 { // Terminal
		return n, pos, false
	}

	if len(n.unexplored) > 0 { // Expandable
		col := n.unexplored[len(n.unexplored)-1]
		n.unexplored = n.unexplored[:len(n.unexplored)-1]
		side := pos.Turn()
		next, row, err := game.SimulateDrop(pos, col, side)
		if err != nil {
			panic("unexplored column is not playable")
		}
		winner := game.Empty
		if game.CheckWin(next, row, col, side) {
			winner = side
		}
		child := newNode(n, side, winner, col, next)
		child.applyLoss()
		n.children = append(n.children, child)
		return child, next, true
	}

	// Fully expanded: select by UCB1
	normalizer := cSquared * math.Log(n.visits)
	var best *node
	bestScore := math.Inf(-1)
	for _, child := range n.children {
		if score := child.score(normalizer); score > bestScore {
			bestScore = score
			best = child
		}
	}
	best.applyLoss()
	next, _, err := game.SimulateDrop(pos, best.column, pos.Turn())
	if err != nil {
		panic("selected column is not playable")
	}
	return best, next, false
}

func (n *node) applyLoss() {
	n.Lock()
	defer n.Unlock()
	n.rewards += loss
	n.visits++
}

func (n *node) score(normalizer float64) float64 {
	n.RLock()
	defer n.RUnlock()
	if n.visits == 0 {
		return math.Inf(1) // Prioritize unexplored
	}
	return n.rewards/n.visits + math.Sqrt(normalizer/n.visits)
}

// backup propagates the playout reward up the tree, reversing each node's
// virtual loss on the way.
func (n *node) backup(reward func(game.Side) float64) *node {
	n.Lock()
	defer n.Unlock()

	if n.parent != nil { // Non-root nodes carry a virtual loss
		n.rewards -= loss
		n.visits--
	}
	n.rewards += reward(n.mover)
	n.visits++
	return n.parent
}

func (n *node) visitCount() float64 {
	n.RLock()
	defer n.RUnlock()
	return n.visits
}

// bestChild returns the most-visited child and the visit fraction it holds.
func (n *node) bestChild() (*node, float64) {
	n.RLock()
	defer n.RUnlock()

	var best *node
	total := 0.0
	for _, child := range n.children {
		v := child.visitCount()
		total += v
		if best == nil || v > best.visitCount() {
			best = child
		}
	}
	if best == nil || total == 0 {
		return nil, 0
	}
	return best, best.visitCount() / total
}
