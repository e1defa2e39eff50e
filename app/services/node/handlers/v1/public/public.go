// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/powledger/business/sys/metrics"
	"github.com/ardanlabs/powledger/business/sys/validate"
	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/worker"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	State  *state.State
	Worker *worker.Worker
	WS     websocket.Upgrader
	Evts   *events.Events
}

// Events handles a web socket to provide events to a client. The prefix
// query parameter limits the stream to matching events, like "state:".
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, r.URL.Query().Get("prefix"))
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Blocks returns every accepted block in chain order.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.QueryBlocks()

	data := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		data[i] = database.NewBlockData(block)
	}

	return web.Respond(ctx, w, data, http.StatusOK)
}

// BlockByIndex returns the block at the index in the path.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 32)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	block, err := h.State.QueryBlock(uint32(index))
	if err != nil {
		if errors.Is(err, state.ErrBlockNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}

// UnspentOutputs returns the hashes of every unspent output.
func (h Handlers) UnspentOutputs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hashes := h.State.QueryUnspentOutputs().Sorted()

	resp := unspent{
		Count:  len(hashes),
		Hashes: hashes,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitBlock applies a block mined somewhere else. Any mining in progress
// is held until the block has been applied and then starts over on top of
// the new chain.
func (h Handlers) SubmitBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var bd database.BlockData
	if err := web.Decode(r, &bd); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	block, err := database.ToBlock(bd)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit block", "traceid", v.TraceID, "index", block.Index, "hash", block.Hash)

	done := h.Worker.SignalCancelMining()
	err = h.State.UpdateWithBlock(block)
	done()

	metrics.ObserveBlock(err, h.State.QueryLength(), len(h.State.QueryUnspentOutputs()))

	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := blockStatus{
		Status: "accepted",
		Block:  database.NewBlockData(block),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine mines the requested transactions into the next block.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var mr MineRequest
	if err := web.Decode(r, &mr); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(mr); err != nil {
		return err
	}

	trans, err := mr.toTrans(database.Now())
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("mine block", "traceid", v.TraceID, "trans", len(trans))

	started := time.Now()
	block, err := h.Worker.Mine(ctx, trans)
	metrics.ObserveMining(err, started)

	if err == nil || state.ValidationKind(err) != nil {
		metrics.ObserveBlock(err, h.State.QueryLength(), len(h.State.QueryUnspentOutputs()))
	}

	if err != nil {
		switch {
		case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrShutdown):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		case state.ValidationKind(err) != nil:
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	resp := blockStatus{
		Status: "mined",
		Block:  database.NewBlockData(block),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
