package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
)

// ErrBlockNotFound is returned when a block index is past the end of the chain.
var ErrBlockNotFound = errors.New("block not found")

// QueryLength returns the number of accepted blocks.
func (s *State) QueryLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.blocks)
}

// QueryBlocks returns a copy of the accepted blocks in chain order.
func (s *State) QueryBlocks() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]database.Block, len(s.blocks))
	for i, block := range s.blocks {
		blocks[i] = block.Clone()
	}

	return blocks
}

// QueryBlock returns a copy of the block at the specified index.
func (s *State) QueryBlock(index uint32) (database.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if uint64(index) >= uint64(len(s.blocks)) {
		return database.Block{}, fmt.Errorf("%w: index %d, chain length %d", ErrBlockNotFound, index, len(s.blocks))
	}

	return s.blocks[index].Clone(), nil
}

// QueryLatestBlock returns the last accepted block. The boolean is false
// when the chain is empty.
func (s *State) QueryLatestBlock() (database.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.blocks) == 0 {
		return database.Block{}, false
	}

	return s.blocks[len(s.blocks)-1].Clone(), true
}

// QueryUnspentOutputs returns a copy of the set of unspent output hashes.
func (s *State) QueryUnspentOutputs() digest.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.unspent.Copy()
}

// QueryIsUnspent reports whether the output is currently unspent.
func (s *State) QueryIsUnspent(output database.Output) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.unspent.Contains(output.Hash())
}
