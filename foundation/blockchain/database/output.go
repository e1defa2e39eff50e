package database

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
)

// ErrZeroValue is returned when an output is constructed without value.
var ErrZeroValue = errors.New("output value must be greater than zero")

// =============================================================================

// Output represents an amount of value assigned to an address. Outputs are
// content addressed, two outputs with the same fields share the same hash.
type Output struct {
	ToAddress string `json:"to_address"` // Plain string address receiving the value.
	Value     uint64 `json:"value"`      // Amount of value, always greater than zero.
}

// NewOutput constructs an output for the specified address and value.
func NewOutput(toAddress string, value uint64) (Output, error) {
	if value == 0 {
		return Output{}, fmt.Errorf("%w: address %q", ErrZeroValue, toAddress)
	}

	out := Output{
		ToAddress: toAddress,
		Value:     value,
	}

	return out, nil
}

// Bytes returns the canonical bytes for the output.
func (o Output) Bytes() []byte {
	return o.appendBytes(make([]byte, 0, len(o.ToAddress)+8))
}

// Hash returns the content hash for the output.
func (o Output) Hash() digest.Hash {
	return digest.Of(o)
}

// String implements the fmt.Stringer interface for logging.
func (o Output) String() string {
	return fmt.Sprintf("{to_address: %s, value: %d}", o.ToAddress, o.Value)
}

func (o Output) appendBytes(b []byte) []byte {
	b = append(b, o.ToAddress...)
	return digest.AppendUint64(b, o.Value)
}
