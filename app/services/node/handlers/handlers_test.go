package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/powledger/app/services/node/handlers"
	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/blockchain/worker"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/logger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type service struct {
	mux   http.Handler
	state *state.State
}

func newService(t *testing.T) service {
	t.Helper()

	log, err := logger.New("TEST")
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the logger: %v", failed, err)
	}

	ev := logger.EvHandler(log, "00000000-0000-0000-0000-000000000000")

	st, err := state.New(state.Config{
		Genesis: genesis.Genesis{
			TimeStamp:   1554050560890,
			Difficulty:  "0xffffffffffffffffffffffffffffffff",
			BlockReward: 2,
			Coinbase:    []database.Output{{ToAddress: "Alice", Value: 50}, {ToAddress: "Bob", Value: 20}},
		},
		MinerAddress: "Miner",
		EvHandler:    ev,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	if _, err := st.MineGenesis(context.Background()); err != nil {
		t.Fatalf("\t%s\tShould be able to mine the genesis block: %v", failed, err)
	}

	wrk := worker.Run(st, ev)
	t.Cleanup(wrk.Shutdown)

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      log,
		State:    st,
		Worker:   wrk,
		Evts:     events.New(),
	})

	return service{mux: mux, state: st}
}

func (s service) call(method string, path string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
	return w
}

func TestQueries(t *testing.T) {
	t.Log("Given the need to query the ledger.")
	{
		svc := newService(t)

		testID := 0
		t.Logf("\tTest %d:\tWhen listing the blocks.", testID)
		{
			w := svc.call(http.MethodGet, "/v1/blocks/list", "")
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200.", success, testID)

			var blocks []database.BlockData
			if err := json.NewDecoder(w.Body).Decode(&blocks); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to decode the response: %v", failed, testID, err)
			}

			block, err := database.ToBlock(blocks[0])
			if err != nil || len(blocks) != 1 || block.CalculateHash() != block.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould get back the genesis block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the genesis block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen asking for a block by index.", testID)
		{
			if w := svc.call(http.MethodGet, "/v1/blocks/0", ""); w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200.", success, testID)

			if w := svc.call(http.MethodGet, "/v1/blocks/9", ""); w.Code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 404 past the end: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 404 past the end.", success, testID)

			if w := svc.call(http.MethodGet, "/v1/blocks/abc", ""); w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 for a bad index: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400 for a bad index.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen listing the unspent outputs.", testID)
		{
			w := svc.call(http.MethodGet, "/v1/utxos/list", "")

			var resp struct {
				Count int `json:"count"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil || resp.Count != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould get two unspent outputs: %v %d", failed, testID, err, resp.Count)
			}
			t.Logf("\t%s\tTest %d:\tShould get two unspent outputs.", success, testID)
		}
	}
}

func TestMine(t *testing.T) {
	t.Log("Given the need to mine blocks through the API.")
	{
		svc := newService(t)

		testID := 0
		t.Logf("\tTest %d:\tWhen mining a valid transaction.", testID)
		{
			body := `{"trans":[{"inputs":[{"to_address":"Alice","value":50}],"outputs":[{"to_address":"Bob","value":45}]}]}`

			w := svc.call(http.MethodPost, "/v1/blocks/mine", body)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d %s", failed, testID, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200.", success, testID)

			if svc.state.QueryLength() != 2 || !svc.state.QueryIsUnspent(database.Output{ToAddress: "Miner", Value: 7}) {
				t.Fatalf("\t%s\tTest %d:\tShould pay the miner the fee plus the reward.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould pay the miner the fee plus the reward.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen spending the same output again.", testID)
		{
			body := `{"trans":[{"inputs":[{"to_address":"Alice","value":50}],"outputs":[{"to_address":"Carol","value":50}]}]}`

			w := svc.call(http.MethodPost, "/v1/blocks/mine", body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400.", success, testID)

			var er errs.Response
			if err := json.NewDecoder(w.Body).Decode(&er); err != nil || er.Kind != state.ErrInvalidInput.Error() {
				t.Fatalf("\t%s\tTest %d:\tShould report the broken rule: %v %+v", failed, testID, err, er)
			}
			t.Logf("\t%s\tTest %d:\tShould report the broken rule.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the request has a zero value output.", testID)
		{
			body := `{"trans":[{"inputs":[{"to_address":"Bob","value":20}],"outputs":[{"to_address":"Carol","value":0}]}]}`

			w := svc.call(http.MethodPost, "/v1/blocks/mine", body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400.", success, testID)

			var er errs.Response
			if err := json.NewDecoder(w.Body).Decode(&er); err != nil || len(er.Fields) == 0 {
				t.Fatalf("\t%s\tTest %d:\tShould report the invalid field: %v %+v", failed, testID, err, er)
			}
			t.Logf("\t%s\tTest %d:\tShould report the invalid field.", success, testID)
		}
	}
}

func TestSubmit(t *testing.T) {
	t.Log("Given the need to accept blocks mined elsewhere.")
	{
		svc := newService(t)

		latest, _ := svc.state.QueryLatestBlock()

		coinbase := database.Tx{TimeStamp: latest.TimeStamp + 1}
		coinbase.AddOutput(database.Output{ToAddress: "Elsewhere", Value: 5})

		block, err := database.NewBlock(1, latest.TimeStamp+1, latest.Hash, []database.Tx{coinbase}, &latest.Difficulty)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the block: %v", failed, err)
		}
		if err := block.Mine(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
		}

		testID := 0
		t.Logf("\tTest %d:\tWhen submitting a valid block.", testID)
		{
			data, _ := json.Marshal(database.NewBlockData(block))

			w := svc.call(http.MethodPost, "/v1/blocks/submit", string(data))
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200: %d %s", failed, testID, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting the same block twice.", testID)
		{
			data, _ := json.Marshal(database.NewBlockData(block))

			w := svc.call(http.MethodPost, "/v1/blocks/submit", string(data))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400: %d", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400.", success, testID)

			var er errs.Response
			if err := json.NewDecoder(w.Body).Decode(&er); err != nil || er.Kind != state.ErrMismatchedIndex.Error() {
				t.Fatalf("\t%s\tTest %d:\tShould report the broken rule: %v %+v", failed, testID, err, er)
			}
			t.Logf("\t%s\tTest %d:\tShould report the broken rule.", success, testID)
		}
	}
}
