// Package digest provides the canonical byte encoding and hashing support
// shared by every entity stored in the blockchain.
package digest

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Size is the number of bytes in a hash.
const Size = sha256.Size

// Hash represents the SHA-256 digest of an entity's canonical bytes.
type Hash [Size]byte

// ZeroHash represents a hash of all zeros. The genesis block must link to it.
var ZeroHash Hash

// Hashable represents the behavior an entity must implement to be hashed.
// The bytes must be deterministic for the same field values.
type Hashable interface {
	Bytes() []byte
}

// =============================================================================

// Sum returns the hash of the specified bytes.
func Sum(data []byte) Hash {
	return sha256.Sum256(data)
}

// Of returns the hash of the canonical bytes of the value.
func Of(value Hashable) Hash {
	return Sum(value.Bytes())
}

// FromHex converts a 0x prefixed hex string into a hash.
func FromHex(s string) (Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Hash{}, err
	}

	if len(b) != Size {
		return Hash{}, fmt.Errorf("invalid hash length, got %d, exp %d", len(b), Size)
	}

	var h Hash
	copy(h[:], b)

	return h, nil
}

// Hex returns the 0x prefixed hex representation of the hash.
func (h Hash) Hex() string {
	return hexutil.Encode(h[:])
}

// String implements the fmt.Stringer interface.
func (h Hash) String() string {
	return h.Hex()
}

// IsZero reports whether the hash is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// MarshalText implements the encoding.TextMarshaler interface so hashes
// show up as hex strings in JSON.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (h *Hash) UnmarshalText(text []byte) error {
	v, err := FromHex(string(text))
	if err != nil {
		return err
	}

	*h = v
	return nil
}

// =============================================================================
// All numeric values are encoded little endian at their full width.

// AppendUint32 appends the 4 byte encoding of v.
func AppendUint32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

// AppendUint64 appends the 8 byte encoding of v.
func AppendUint64(b []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, v)
}

// AppendUint128 appends the 16 byte encoding of the 128 bit value made
// from the hi and lo words.
func AppendUint128(b []byte, hi uint64, lo uint64) []byte {
	b = binary.LittleEndian.AppendUint64(b, lo)
	return binary.LittleEndian.AppendUint64(b, hi)
}

// Uint128 reads the 128 bit value held in the last 16 bytes of the hash
// and returns it as hi and lo words.
func (h Hash) Uint128() (hi uint64, lo uint64) {
	lo = binary.LittleEndian.Uint64(h[16:24])
	hi = binary.LittleEndian.Uint64(h[24:32])
	return hi, lo
}
