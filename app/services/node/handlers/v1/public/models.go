package public

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
)

type output struct {
	ToAddress string `json:"to_address" validate:"required"`
	Value     uint64 `json:"value" validate:"gt=0"`
}

type tx struct {
	Inputs    []output `json:"inputs" validate:"required,min=1,dive"`
	Outputs   []output `json:"outputs" validate:"required,min=1,dive"`
	TimeStamp uint64   `json:"timestamp"`
}

// MineRequest is the set of ordinary transactions to mine into the next
// block. The node adds the coinbase.
type MineRequest struct {
	Trans []tx `json:"trans" validate:"dive"`
}

// toTrans converts the request into ledger transactions. Transactions
// without a timestamp are stamped with now.
func (mr MineRequest) toTrans(now uint64) ([]database.Tx, error) {
	trans := make([]database.Tx, len(mr.Trans))
	for i, t := range mr.Trans {
		ts := t.TimeStamp
		if ts == 0 {
			ts = now
		}

		trans[i] = database.Tx{TimeStamp: ts}

		for _, in := range t.Inputs {
			if err := trans[i].AddInputValue(in.ToAddress, in.Value); err != nil {
				return nil, fmt.Errorf("trans[%d]: %w", i, err)
			}
		}
		for _, out := range t.Outputs {
			if err := trans[i].AddOutputValue(out.ToAddress, out.Value); err != nil {
				return nil, fmt.Errorf("trans[%d]: %w", i, err)
			}
		}
	}

	return trans, nil
}

type blockStatus struct {
	Status string             `json:"status"`
	Block  database.BlockData `json:"block"`
}

type unspent struct {
	Count  int           `json:"count"`
	Hashes []digest.Hash `json:"hashes"`
}
