// Package worker runs the mining workflow for the ledger in the background so
// only one block is mined at a time.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
)

// maxMiningRequests represents the max number of mining requests that can be
// waiting while a block is being mined. To keep this simple, a buffered
// channel of this arbitrary number is being used. If the channel does become
// full, new requests are turned away.
const maxMiningRequests = 10

// Set of errors returned by the worker.
var (
	ErrQueueFull = errors.New("mining queue is full")
	ErrShutdown  = errors.New("worker is shut down")
)

// =============================================================================

type result struct {
	block database.Block
	err   error
}

type request struct {
	ctx    context.Context
	trans  []database.Tx
	result chan result
}

// Worker manages the POW workflow for the ledger.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	shutOnce     sync.Once
	shut         chan struct{}
	stopped      chan struct{}
	requests     chan request
	cancelMining chan chan struct{}
	evHandler    state.EventHandler
}

// Run creates a worker and starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) *Worker {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	w := Worker{
		state:        st,
		shut:         make(chan struct{}),
		stopped:      make(chan struct{}),
		requests:     make(chan request, maxMiningRequests),
		cancelMining: make(chan chan struct{}, 1),
		evHandler:    evHandler,
	}

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// Shutdown terminates the goroutines performing work. Requests still in the
// queue are answered with ErrShutdown. It is safe to call more than once.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.shutOnce.Do(func() {
		w.evHandler("worker: shutdown: signal cancel mining")
		done := w.SignalCancelMining()
		done()

		w.evHandler("worker: shutdown: terminate goroutines")
		close(w.shut)
	})
	w.wg.Wait()
}

// Mine queues the transactions to be mined into the next block and waits
// for the result. The state prepends the coinbase.
func (w *Worker) Mine(ctx context.Context, trans []database.Tx) (database.Block, error) {
	if w.isShutdown() {
		return database.Block{}, ErrShutdown
	}

	req := request{
		ctx:    ctx,
		trans:  trans,
		result: make(chan result, 1),
	}

	select {
	case w.requests <- req:
		w.evHandler("worker: Mine: mining request queued: trans[%d]", len(trans))
	default:
		w.evHandler("worker: Mine: queue full, request turned away")
		return database.Block{}, ErrQueueFull
	}

	select {
	case res := <-req.result:
		return res.block, res.err
	case <-w.stopped:

		// The request may have been queued after the queue was drained.
		select {
		case res := <-req.result:
			return res.block, res.err
		default:
			return database.Block{}, ErrShutdown
		}
	case <-ctx.Done():
		return database.Block{}, ctx.Err()
	}
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately. That G will not continue until done is called. This
// allows the caller to apply a block before the mining starts over on top
// of it.
func (w *Worker) SignalCancelMining() (done func()) {
	wait := make(chan struct{})

	select {
	case w.cancelMining <- wait:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")

	return func() { close(wait) }
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
