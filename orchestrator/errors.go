package orchestrator

import "errors"

// Terminal error kinds. Only these four ever leave Decide; component timeouts
// and failures are absorbed by the fallback walk.
var (
	ErrPositionInvalid = errors.New("position invalid")
	ErrOverloaded      = errors.New("overloaded")
	ErrConcurrentGame  = errors.New("concurrent request for game")
	ErrNoLegalMoves    = errors.New("no legal moves")
)
