package database

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"
	"strings"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
)

// ErrValueOverflow is returned when summing values exceeds 64 bits.
var ErrValueOverflow = errors.New("value sum overflows")

// Now returns the current UTC time in milliseconds. This is the clock used
// for transaction and block timestamps.
func Now() uint64 {
	return uint64(time.Now().UTC().UnixMilli())
}

// =============================================================================

// Tx represents a transfer of value from a set of previously created outputs
// to a set of new outputs. A transaction with no inputs is a coinbase
// transaction which mints value and collects the fees for a block.
type Tx struct {
	Inputs    []Output `json:"inputs"`    // Outputs being spent by this transaction.
	Outputs   []Output `json:"outputs"`   // Outputs being created by this transaction.
	TimeStamp uint64   `json:"timestamp"` // Time the transaction was created in milliseconds.
}

// NewTx constructs an empty transaction stamped with the current time.
func NewTx() Tx {
	return Tx{
		TimeStamp: Now(),
	}
}

// AddInput appends an output this transaction will spend.
func (tx *Tx) AddInput(input Output) {
	tx.Inputs = append(tx.Inputs, input)
}

// AddOutput appends an output this transaction will create.
func (tx *Tx) AddOutput(output Output) {
	tx.Outputs = append(tx.Outputs, output)
}

// AddInputValue constructs an output from the address and value and
// appends it as an input.
func (tx *Tx) AddInputValue(address string, value uint64) error {
	input, err := NewOutput(address, value)
	if err != nil {
		return err
	}

	tx.AddInput(input)
	return nil
}

// AddOutputValue constructs an output from the address and value and
// appends it as an output.
func (tx *Tx) AddOutputValue(address string, value uint64) error {
	output, err := NewOutput(address, value)
	if err != nil {
		return err
	}

	tx.AddOutput(output)
	return nil
}

// IsCoinbase reports whether the transaction has no inputs.
func (tx Tx) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// InputValue returns the sum of the input values.
func (tx Tx) InputValue() uint64 {
	v, _ := sum(tx.Inputs)
	return v
}

// OutputValue returns the sum of the output values.
func (tx Tx) OutputValue() uint64 {
	v, _ := sum(tx.Outputs)
	return v
}

// Values returns the input and output sums, failing if either sum
// overflows.
func (tx Tx) Values() (input uint64, output uint64, err error) {
	input, ok := sum(tx.Inputs)
	if !ok {
		return 0, 0, fmt.Errorf("%w: inputs", ErrValueOverflow)
	}

	output, ok = sum(tx.Outputs)
	if !ok {
		return 0, 0, fmt.Errorf("%w: outputs", ErrValueOverflow)
	}

	return input, output, nil
}

// FeeValue returns the excess of input value over output value. Coinbase
// transactions and transactions spending less than they create pay no fee.
func (tx Tx) FeeValue() uint64 {
	if tx.IsCoinbase() {
		return 0
	}

	input, output, err := tx.Values()
	if err != nil || input < output {
		return 0
	}

	return input - output
}

// InputHashes returns the set of input hashes. Identical inputs collapse
// into a single hash.
func (tx Tx) InputHashes() digest.Set {
	return hashSet(tx.Inputs)
}

// OutputHashes returns the set of output hashes. Identical outputs collapse
// into a single hash.
func (tx Tx) OutputHashes() digest.Set {
	return hashSet(tx.Outputs)
}

// Clone returns a copy of the transaction that shares no memory with the
// original.
func (tx Tx) Clone() Tx {
	tx.Inputs = slices.Clone(tx.Inputs)
	tx.Outputs = slices.Clone(tx.Outputs)
	return tx
}

// Bytes returns the canonical bytes for the transaction.
func (tx Tx) Bytes() []byte {
	return tx.appendBytes(nil)
}

// Hash returns the content hash for the transaction.
func (tx Tx) Hash() digest.Hash {
	return digest.Of(tx)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("{hash: %s, timestamp: %d, inputs: %s, outputs: %s}", tx.Hash(), tx.TimeStamp, join(tx.Inputs), join(tx.Outputs))
}

func (tx Tx) appendBytes(b []byte) []byte {
	for _, input := range tx.Inputs {
		b = input.appendBytes(b)
	}
	for _, output := range tx.Outputs {
		b = output.appendBytes(b)
	}
	return digest.AppendUint128(b, 0, tx.TimeStamp)
}

// =============================================================================

func sum(outputs []Output) (uint64, bool) {
	var total uint64
	for _, out := range outputs {
		var carry uint64
		total, carry = bits.Add64(total, out.Value, 0)
		if carry != 0 {
			return total, false
		}
	}
	return total, true
}

func hashSet(outputs []Output) digest.Set {
	set := make(digest.Set, len(outputs))
	for _, out := range outputs {
		set.Add(out.Hash())
	}
	return set
}

func join[T fmt.Stringer](values []T) string {
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = v.String()
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
