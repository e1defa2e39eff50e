package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
)

// Set of errors returned when a block fails validation. A failed block
// leaves the ledger untouched.
var (
	ErrMismatchedIndex             = errors.New("mismatched index")
	ErrInvalidDifficulty           = errors.New("invalid difficulty")
	ErrInvalidHash                 = errors.New("invalid hash")
	ErrAchronologicalTimestamp     = errors.New("achronological timestamp")
	ErrMismatchedPreviousHash      = errors.New("mismatched previous hash")
	ErrInvalidGenesisBlock         = errors.New("invalid genesis block")
	ErrInvalidInput                = errors.New("invalid input")
	ErrInsufficientInputValue      = errors.New("insufficient input value")
	ErrInvalidCoinbase             = errors.New("invalid coinbase transaction")
	ErrInsufficientCoinbase        = errors.New("insufficient coinbase transaction")
	ErrInvalidTransactionTimestamp = errors.New("invalid transaction timestamp")
	ErrValueOverflow               = database.ErrValueOverflow
)

var validationErrors = []error{
	ErrMismatchedIndex,
	ErrInvalidDifficulty,
	ErrInvalidHash,
	ErrAchronologicalTimestamp,
	ErrMismatchedPreviousHash,
	ErrInvalidGenesisBlock,
	ErrInvalidInput,
	ErrInsufficientInputValue,
	ErrInvalidCoinbase,
	ErrInsufficientCoinbase,
	ErrInvalidTransactionTimestamp,
	ErrValueOverflow,
}

// ValidationKind returns the validation error the specified error wraps, or
// nil if it isn't a validation error.
func ValidationKind(err error) error {
	for _, kind := range validationErrors {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// =============================================================================

// UpdateWithBlock validates the block against the consensus rules and the
// current set of unspent outputs. If every check passes, the block is
// appended and the unspent outputs are updated in one step. On any failure
// nothing changes.
func (s *State) UpdateWithBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: UpdateWithBlock: started: blk[%d]: hash[%s]", block.Index, block.Hash)

	spent, created, err := s.validateBlock(block)
	if err != nil {
		s.evHandler("state: UpdateWithBlock: REJECTED: blk[%d]: %s", block.Index, err)
		return err
	}

	s.evHandler("state: UpdateWithBlock: commit: blk[%d]: spent[%d]: created[%d]", block.Index, len(spent), len(created))

	s.unspent.Remove(spent)
	s.unspent.Union(created)
	// Accepted blocks never share memory with the caller.
	s.blocks = append(s.blocks, block.Clone())

	s.evHandler("state: UpdateWithBlock: completed: blk[%d]: unspent[%d]", block.Index, len(s.unspent))

	return nil
}

// validateBlock performs the ordered checks for appending the block and
// returns the output hashes the block spends and creates. It must be called
// with the lock held and never modifies the ledger.
func (s *State) validateBlock(block database.Block) (spent digest.Set, created digest.Set, err error) {
	ev := s.evHandler

	ev("state: validateBlock: validate: blk[%d]: check: block index is the next index", block.Index)

	length := len(s.blocks)
	if uint64(block.Index) != uint64(length) {
		return nil, nil, fmt.Errorf("%w: got %d, exp %d", ErrMismatchedIndex, block.Index, length)
	}

	ev("state: validateBlock: validate: blk[%d]: check: difficulty fits in 128 bits", block.Index)

	// The block bytes only carry the low 128 bits of the difficulty.
	if block.Difficulty.BitLen() > 128 {
		return nil, nil, fmt.Errorf("%w: got %d bits", ErrInvalidDifficulty, block.Difficulty.BitLen())
	}

	ev("state: validateBlock: validate: blk[%d]: check: block hash has been solved", block.Index)

	if !database.CheckDifficulty(block.Hash, &block.Difficulty) {
		return nil, nil, fmt.Errorf("%w: hash %s, difficulty %s", ErrInvalidDifficulty, block.Hash, block.Difficulty.Hex())
	}

	ev("state: validateBlock: validate: blk[%d]: check: block hash matches the block content", block.Index)

	if hash := block.CalculateHash(); hash != block.Hash {
		return nil, nil, fmt.Errorf("%w: got %s, exp %s", ErrInvalidHash, block.Hash, hash)
	}

	if length > 0 {
		prev := s.blocks[length-1]

		ev("state: validateBlock: validate: blk[%d]: check: block's timestamp is greater than parent block's timestamp", block.Index)

		if block.TimeStamp <= prev.TimeStamp {
			return nil, nil, fmt.Errorf("%w: parent %d, block %d", ErrAchronologicalTimestamp, prev.TimeStamp, block.TimeStamp)
		}

		ev("state: validateBlock: validate: blk[%d]: check: parent hash does match parent block", block.Index)

		if block.PrevBlockHash != prev.Hash {
			return nil, nil, fmt.Errorf("%w: got %s, exp %s", ErrMismatchedPreviousHash, block.PrevBlockHash, prev.Hash)
		}
	} else {
		ev("state: validateBlock: validate: blk[%d]: check: genesis block links to the zero hash", block.Index)

		if !block.PrevBlockHash.IsZero() {
			return nil, nil, fmt.Errorf("%w: previous hash %s", ErrInvalidGenesisBlock, block.PrevBlockHash)
		}
	}

	// A block can't be constructed without transactions, but a block can
	// also arrive from outside the process.
	if len(block.Trans) == 0 {
		return nil, nil, fmt.Errorf("%w: block has no transactions", ErrInvalidCoinbase)
	}

	ev("state: validateBlock: validate: blk[%d]: check: first transaction is a coinbase", block.Index)

	coinbase, trans := block.Trans[0], block.Trans[1:]
	if !coinbase.IsCoinbase() {
		return nil, nil, fmt.Errorf("%w: first transaction has %d inputs", ErrInvalidCoinbase, len(coinbase.Inputs))
	}

	spent = make(digest.Set)
	created = make(digest.Set)

	var totalFee uint64
	for i, tx := range trans {
		ev("state: validateBlock: validate: blk[%d]: tx[%d]: check: inputs are unspent", block.Index, i+1)

		inputHashes := tx.InputHashes()
		for hash := range inputHashes {
			if !s.unspent.Contains(hash) {
				return nil, nil, fmt.Errorf("%w: tx[%d]: input %s is not unspent", ErrInvalidInput, i+1, hash)
			}
			if spent.Contains(hash) {
				return nil, nil, fmt.Errorf("%w: tx[%d]: input %s already spent in this block", ErrInvalidInput, i+1, hash)
			}
		}

		ev("state: validateBlock: validate: blk[%d]: tx[%d]: check: input value covers output value", block.Index, i+1)

		input, output, err := tx.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("tx[%d]: %w", i+1, err)
		}

		if input < output {
			return nil, nil, fmt.Errorf("%w: tx[%d]: input %d, output %d", ErrInsufficientInputValue, i+1, input, output)
		}

		ev("state: validateBlock: validate: blk[%d]: tx[%d]: check: timestamp is not after the block", block.Index, i+1)

		if tx.TimeStamp > block.TimeStamp {
			return nil, nil, fmt.Errorf("%w: tx[%d]: tx %d, block %d", ErrInvalidTransactionTimestamp, i+1, tx.TimeStamp, block.TimeStamp)
		}

		fee := input - output
		if totalFee+fee < totalFee {
			return nil, nil, fmt.Errorf("%w: total fee", ErrValueOverflow)
		}
		totalFee += fee

		spent.Union(inputHashes)
		created.Union(tx.OutputHashes())

		ev("state: validateBlock: validate: blk[%d]: verified tx[%s]", block.Index, tx)
	}

	ev("state: validateBlock: validate: blk[%d]: check: coinbase collects the fees", block.Index)

	_, coinbaseValue, err := coinbase.Values()
	if err != nil {
		return nil, nil, fmt.Errorf("coinbase: %w", err)
	}

	if coinbaseValue < totalFee {
		return nil, nil, fmt.Errorf("%w: coinbase %d, fees %d", ErrInsufficientCoinbase, coinbaseValue, totalFee)
	}
	created.Union(coinbase.OutputHashes())

	ev("state: validateBlock: validate: blk[%d]: verified coinbase[%s]", block.Index, coinbase)

	return spent, created, nil
}
