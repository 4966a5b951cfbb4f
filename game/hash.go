package game

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

type PositionHash uint64

// Hash produces a canonical key for the position including side to move.
func (p Position) Hash() PositionHash {
	hasher := fnv.New64a()

	binary.Write(hasher, binary.LittleEndian, int64(p.turn))
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			binary.Write(hasher, binary.LittleEndian, int64(p.cells[r][c]))
		}
	}

	return PositionHash(hasher.Sum64())
}

func (h PositionHash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}
