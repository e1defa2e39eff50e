package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/holiman/uint256"
)

// Set of errors returned when constructing a block.
var (
	ErrNoTransactions  = errors.New("block must contain at least one transaction")
	ErrDifficultyRange = errors.New("difficulty must fit in 128 bits")
)

// nonceOffset is the position of the nonce inside the canonical block bytes:
// index (4) + timestamp (16) + previous block hash (32).
const nonceOffset = 4 + 16 + digest.Size

// ParseDifficulty converts a 0x prefixed hex string into a difficulty.
// Leading zeros are allowed so targets can be written at their full width.
func ParseDifficulty(s string) (*uint256.Int, error) {
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok {
		digits, ok = strings.CutPrefix(s, "0X")
	}
	if !ok || digits == "" {
		return nil, fmt.Errorf("parsing difficulty %q: want 0x prefixed hex", s)
	}

	if digits = strings.TrimLeft(digits, "0"); digits == "" {
		digits = "0"
	}

	difficulty, err := uint256.FromHex("0x" + digits)
	if err != nil {
		return nil, fmt.Errorf("parsing difficulty %q: %w", s, err)
	}

	return difficulty, nil
}

// =============================================================================

// Block represents a group of transactions batched together and linked to
// the previous block in the chain.
type Block struct {
	Index         uint32      // Position of the block in the chain.
	TimeStamp     uint64      // Time the block was built in milliseconds.
	Hash          digest.Hash // Hash found by mining, zero until then.
	PrevBlockHash digest.Hash // Hash of the previous block, zero for genesis.
	Nonce         uint64      // Value identified to solve the hash solution.
	Trans         []Tx        // Transactions, the first must be the coinbase.
	Reward        uint64      // Sum of the transaction fees, set by mining.
	Difficulty    uint256.Int // The hash must be numerically less than this target.
}

// NewBlock constructs a block ready to be mined.
func NewBlock(index uint32, timeStamp uint64, prevBlockHash digest.Hash, trans []Tx, difficulty *uint256.Int) (Block, error) {
	if len(trans) == 0 {
		return Block{}, ErrNoTransactions
	}

	if difficulty.BitLen() > 128 {
		return Block{}, fmt.Errorf("%w: got %d bits", ErrDifficultyRange, difficulty.BitLen())
	}

	b := Block{
		Index:         index,
		TimeStamp:     timeStamp,
		PrevBlockHash: prevBlockHash,
		Trans:         trans,
		Difficulty:    *difficulty,
	}

	return b, nil
}

// Clone returns a copy of the block that shares no memory with the
// original.
func (b Block) Clone() Block {
	if b.Trans != nil {
		trans := make([]Tx, len(b.Trans))
		for i, tx := range b.Trans {
			trans[i] = tx.Clone()
		}
		b.Trans = trans
	}
	return b
}

// Bytes returns the canonical bytes for the block.
func (b Block) Bytes() []byte {
	buf := make([]byte, 0, nonceOffset+128)

	buf = digest.AppendUint32(buf, b.Index)
	buf = digest.AppendUint128(buf, 0, b.TimeStamp)
	buf = append(buf, b.PrevBlockHash[:]...)
	buf = digest.AppendUint64(buf, b.Nonce)
	for _, tx := range b.Trans {
		buf = tx.appendBytes(buf)
	}
	buf = digest.AppendUint64(buf, b.Reward)
	buf = digest.AppendUint128(buf, b.Difficulty[1], b.Difficulty[0])

	return buf
}

// CalculateHash returns the content hash of the block for its current
// nonce. After mining this matches the Hash field.
func (b Block) CalculateHash() digest.Hash {
	return digest.Of(b)
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("{index: %d, hash: %s, previous_hash: %s, nonce: %d, timestamp: %d, transactions: %s, reward: %d, difficulty: %s}",
		b.Index, b.Hash, b.PrevBlockHash, b.Nonce, b.TimeStamp, join(b.Trans), b.Reward, b.Difficulty.Hex())
}

// =============================================================================

// BlockData represents the block as it is exchanged outside of the process.
type BlockData struct {
	Index         uint32      `json:"index"`
	TimeStamp     uint64      `json:"timestamp"`
	Hash          digest.Hash `json:"hash"`
	PrevBlockHash digest.Hash `json:"prev_block_hash"`
	Nonce         uint64      `json:"nonce"`
	Trans         []Tx        `json:"trans"`
	Reward        uint64      `json:"reward"`
	Difficulty    string      `json:"difficulty"`
}

// NewBlockData constructs the value to exchange from the block.
func NewBlockData(b Block) BlockData {
	return BlockData{
		Index:         b.Index,
		TimeStamp:     b.TimeStamp,
		Hash:          b.Hash,
		PrevBlockHash: b.PrevBlockHash,
		Nonce:         b.Nonce,
		Trans:         b.Trans,
		Reward:        b.Reward,
		Difficulty:    b.Difficulty.Hex(),
	}
}

// ToBlock converts a BlockData into a Block. The mining results carried by
// the data are kept as is, they are verified when the block is applied to
// the ledger.
func ToBlock(bd BlockData) (Block, error) {
	difficulty, err := ParseDifficulty(bd.Difficulty)
	if err != nil {
		return Block{}, err
	}

	for _, tx := range bd.Trans {
		for _, outputs := range [][]Output{tx.Inputs, tx.Outputs} {
			for _, out := range outputs {
				if out.Value == 0 {
					return Block{}, fmt.Errorf("%w: address %q", ErrZeroValue, out.ToAddress)
				}
			}
		}
	}

	b, err := NewBlock(bd.Index, bd.TimeStamp, bd.PrevBlockHash, bd.Trans, difficulty)
	if err != nil {
		return Block{}, err
	}

	b.Hash = bd.Hash
	b.Nonce = bd.Nonce
	b.Reward = bd.Reward

	return b, nil
}
