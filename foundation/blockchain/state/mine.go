package state

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// ErrChainNotEmpty is returned when a genesis block is requested for a chain
// that already has blocks.
var ErrChainNotEmpty = errors.New("chain already has a genesis block")

// =============================================================================

// MineGenesis mines the genesis block described by the genesis information
// and applies it to the empty chain.
func (s *State) MineGenesis(ctx context.Context) (database.Block, error) {
	if s.QueryLength() > 0 {
		return database.Block{}, ErrChainNotEmpty
	}

	s.evHandler("state: MineGenesis: MINING: build genesis block")

	block, err := s.genesis.Block()
	if err != nil {
		return database.Block{}, err
	}

	return s.mineAndUpdate(ctx, block)
}

// MineNewBlock builds the next block from the specified transactions and
// performs the proof of work. The coinbase pays the miner the collected fees
// plus the genesis block reward. Mining happens without holding the lock, so
// if another block is applied in the meantime the update fails with
// ErrMismatchedIndex.
func (s *State) MineNewBlock(ctx context.Context, trans []database.Tx) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: build block: trans[%d]", len(trans))

	latest, exists := s.QueryLatestBlock()
	if !exists {
		return database.Block{}, errors.New("chain is empty, mine the genesis block first")
	}

	// Block timestamps must be strictly increasing.
	timeStamp := s.clock()
	if timeStamp <= latest.TimeStamp {
		timeStamp = latest.TimeStamp + 1
	}

	pay := s.genesis.BlockReward
	for _, tx := range trans {
		var carry uint64
		pay, carry = bits.Add64(pay, tx.FeeValue(), 0)
		if carry != 0 {
			return database.Block{}, fmt.Errorf("%w: coinbase payout", database.ErrValueOverflow)
		}
	}

	coinbase := database.Tx{TimeStamp: timeStamp}
	if pay > 0 {
		if err := coinbase.AddOutputValue(s.minerAddress, pay); err != nil {
			return database.Block{}, err
		}
	}

	block, err := database.NewBlock(latest.Index+1, timeStamp, latest.Hash, append([]database.Tx{coinbase}, trans...), s.difficulty)
	if err != nil {
		return database.Block{}, err
	}

	return s.mineAndUpdate(ctx, block)
}

// mineAndUpdate performs the proof of work and then applies the block.
func (s *State) mineAndUpdate(ctx context.Context, block database.Block) (database.Block, error) {
	s.evHandler("state: mineAndUpdate: MINING: perform POW: blk[%d]", block.Index)

	if err := block.Mine(ctx, database.WithWorkers(s.workers), database.WithEventHandler(s.evHandler)); err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: mineAndUpdate: MINING: validate and update ledger: blk[%d]", block.Index)

	if err := s.UpdateWithBlock(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}
