package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/state"
)

// maxAttempts is the number of times a request is mined before giving up
// when other blocks keep getting applied first.
const maxAttempts = 3

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")
	defer close(w.stopped)

	for {
		select {
		case req := <-w.requests:
			if w.isShutdown() {
				req.result <- result{err: ErrShutdown}
				continue
			}
			req.result <- w.runMiningOperation(req)

		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			w.drainRequests()
			return
		}
	}
}

// drainRequests answers every queued request once the worker is shut down.
func (w *Worker) drainRequests() {
	for {
		select {
		case req := <-w.requests:
			req.result <- result{err: ErrShutdown}
		default:
			return
		}
	}
}

// runMiningOperation mines a block holding the requested transactions. If
// another block is applied while mining, the block is mined again on top
// of the new latest block.
func (w *Worker) runMiningOperation(req request) result {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	var res result
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var cancelled bool
		res, cancelled = w.mineOnce(req)

		if res.err == nil || w.isShutdown() || req.ctx.Err() != nil {
			break
		}

		if !cancelled && !errors.Is(res.err, state.ErrMismatchedIndex) {
			break
		}

		w.evHandler("worker: runMiningOperation: MINING: chain moved, mining again: attempt[%d]", attempt)
	}

	if w.isShutdown() && res.err != nil {
		res.err = ErrShutdown
	}

	return res
}

// mineOnce performs a single mining operation that can be cancelled by
// the caller's context or by SignalCancelMining.
func (w *Worker) mineOnce(req request) (res result, cancelled bool) {

	// If mining is signalled to be cancelled by the block submission,
	// this G can't continue until it is told it can.
	var wait chan struct{}
	defer func() {
		if wait != nil {
			w.evHandler("worker: runMiningOperation: MINING: termination signal: waiting")
			<-wait
			w.evHandler("worker: runMiningOperation: MINING: termination signal: received")
		}
	}()

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	// Create a context so mining can be cancelled.
	ctx, cancel := context.WithCancel(req.ctx)
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the mining operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case wait = <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		case <-w.shut:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: shutdown")
		case <-ctx.Done():
		}
	}()

	// This G is performing the mining.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		res.block, res.err = w.state.MineNewBlock(ctx, req.trans)
		duration := time.Since(t)

		w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

		if res.err != nil {
			switch {
			case ctx.Err() != nil:
				w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
			default:
				w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", res.err)
			}
			return
		}

		w.evHandler("worker: runMiningOperation: MINING: SOLVED: blk[%d]: hash[%s]", res.block.Index, res.block.Hash)
	}()

	// Wait for both G's to terminate.
	wg.Wait()

	return res, wait != nil
}
