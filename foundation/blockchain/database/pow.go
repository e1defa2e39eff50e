package database

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/holiman/uint256"
)

// ErrNonceExhausted is returned when no nonce in the search range produces
// a hash that satisfies the difficulty.
var ErrNonceExhausted = errors.New("no nonce in range satisfies the difficulty")

// attemptsReport is how often, in attempts, progress is reported.
const attemptsReport = 1_000_000

// =============================================================================

// CheckDifficulty reports whether the hash solves the proof of work for the
// specified difficulty. The last 16 bytes of the hash are read as a little
// endian 128 bit number which must be strictly less than the difficulty.
// Mining and validation both use this function.
func CheckDifficulty(hash digest.Hash, difficulty *uint256.Int) bool {
	hi, lo := hash.Uint128()
	v := uint256.Int{lo, hi, 0, 0}

	return v.Lt(difficulty)
}

// =============================================================================

// MineOption represents a setting for a mining operation.
type MineOption func(cfg *mineConfig)

type mineConfig struct {
	workers   int
	first     uint64
	last      uint64
	evHandler func(v string, args ...any)
}

// WithWorkers splits the nonce range across n goroutines. The first one to
// find a solution wins and the others are cancelled.
func WithWorkers(n int) MineOption {
	return func(cfg *mineConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithNonceRange bounds the search to the nonces from first to last
// inclusive. The default is the full 64 bit range.
func WithNonceRange(first uint64, last uint64) MineOption {
	return func(cfg *mineConfig) {
		cfg.first = first
		cfg.last = last
	}
}

// WithEventHandler receives the progress of the mining operation.
func WithEventHandler(evHandler func(v string, args ...any)) MineOption {
	return func(cfg *mineConfig) {
		if evHandler != nil {
			cfg.evHandler = evHandler
		}
	}
}

// Mine computes the block reward from the transaction fees and then performs
// the work to find a nonce that solves the proof of work. Pointer semantics
// are being used since the nonce, hash and reward are being set.
func (b *Block) Mine(ctx context.Context, options ...MineOption) error {
	cfg := mineConfig{
		workers:   1,
		first:     0,
		last:      math.MaxUint64,
		evHandler: func(v string, args ...any) {},
	}
	for _, option := range options {
		option(&cfg)
	}

	ev := cfg.evHandler

	if len(b.Trans) == 0 {
		return ErrNoTransactions
	}

	if cfg.last < cfg.first {
		return fmt.Errorf("%w: empty range [%d, %d]", ErrNonceExhausted, cfg.first, cfg.last)
	}

	// The reward is the miner's incentive, the sum of every fee.
	var reward uint64
	for _, tx := range b.Trans {
		var carry uint64
		reward, carry = bits.Add64(reward, tx.FeeValue(), 0)
		if carry != 0 {
			return fmt.Errorf("%w: block reward", ErrValueOverflow)
		}
	}
	b.Reward = reward

	// Nothing is numerically less than zero.
	if b.Difficulty.IsZero() {
		return fmt.Errorf("%w: difficulty is zero", ErrNonceExhausted)
	}

	ev("database: Mine: MINING: started: blk[%d]: workers[%d]: range[%d, %d]", b.Index, cfg.workers, cfg.first, cfg.last)
	defer ev("database: Mine: MINING: completed: blk[%d]", b.Index)

	for _, tx := range b.Trans {
		ev("database: Mine: MINING: tx[%s]", tx.Hash())
	}

	nonce, hash, err := search(ctx, b.Bytes(), &b.Difficulty, cfg)
	if err != nil {
		ev("database: Mine: MINING: ERROR: %s", err)
		return err
	}

	b.Nonce = nonce
	b.Hash = hash

	ev("database: Mine: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", b.PrevBlockHash, b.Hash, b.Nonce)

	return nil
}

// =============================================================================

type solution struct {
	nonce uint64
	hash  digest.Hash
}

// search fans the nonce range out over the configured number of workers and
// returns the first solution found.
func search(ctx context.Context, preimage []byte, difficulty *uint256.Int, cfg mineConfig) (uint64, digest.Hash, error) {
	ranges := splitRange(cfg.first, cfg.last, cfg.workers)

	mctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var attempts atomic.Uint64
	solutions := make(chan solution, len(ranges))

	var wg sync.WaitGroup
	wg.Add(len(ranges))

	for _, r := range ranges {
		go func(first uint64, last uint64) {
			defer wg.Done()

			// Every worker mutates the nonce bytes of its own copy.
			buf := bytes.Clone(preimage)

			if s, ok := solve(mctx, buf, difficulty, first, last, &attempts, cfg.evHandler); ok {
				solutions <- s
				cancel()
			}
		}(r[0], r[1])
	}

	wg.Wait()
	close(solutions)

	if s, ok := <-solutions; ok {
		cfg.evHandler("database: search: MINING: attempts[%d]", attempts.Load())
		return s.nonce, s.hash, nil
	}

	if err := ctx.Err(); err != nil {
		cfg.evHandler("database: search: MINING: CANCELLED")
		return 0, digest.Hash{}, err
	}

	return 0, digest.Hash{}, fmt.Errorf("%w: range[%d, %d]", ErrNonceExhausted, cfg.first, cfg.last)
}

// solve walks the nonces from first to last inclusive until one solves the
// difficulty or the context is cancelled.
func solve(ctx context.Context, buf []byte, difficulty *uint256.Int, first uint64, last uint64, attempts *atomic.Uint64, ev func(v string, args ...any)) (solution, bool) {
	done := ctx.Done()

	// Attempts are counted locally and published in batches to keep the
	// workers from contending on the shared counter.
	var n uint64
	defer func() {
		attempts.Add(n % attemptsReport)
	}()

	for nonce := first; ; nonce++ {
		select {
		case <-done:
			return solution{}, false
		default:
		}

		binary.LittleEndian.PutUint64(buf[nonceOffset:], nonce)
		hash := digest.Sum(buf)

		if n++; n%attemptsReport == 0 {
			ev("database: solve: MINING: attempts[%d]", attempts.Add(attemptsReport))
		}

		if CheckDifficulty(hash, difficulty) {
			return solution{nonce: nonce, hash: hash}, true
		}

		// Checked here so the loop ends without wrapping at MaxUint64.
		if nonce == last {
			return solution{}, false
		}
	}
}

// splitRange divides [first, last] into at most n disjoint inclusive ranges.
func splitRange(first uint64, last uint64, n int) [][2]uint64 {
	span := last - first

	workers := uint64(n)
	if workers == 0 {
		workers = 1
	}
	if span < workers-1 {
		workers = span + 1
	}

	// The number of nonces is span+1 which may not fit in 64 bits, so the
	// size is derived from span and the remainder goes to the last range.
	size := span/workers + 1
	if span == math.MaxUint64 {
		size = span / workers
	}

	ranges := make([][2]uint64, 0, workers)
	start := first
	for i := uint64(0); i < workers; i++ {
		end := last
		if i < workers-1 && last-start > size-1 {
			end = start + size - 1
		}
		ranges = append(ranges, [2]uint64{start, end})
		if end == last {
			break
		}
		start = end + 1
	}

	return ranges
}
