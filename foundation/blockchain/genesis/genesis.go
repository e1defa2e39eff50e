// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/holiman/uint256"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date        time.Time         `json:"date"`
	TimeStamp   uint64            `json:"timestamp"`    // Timestamp in milliseconds for the genesis block and its coinbase.
	Difficulty  string            `json:"difficulty"`   // Hex target every block hash must be less than, leading zeros allowed.
	BlockReward uint64            `json:"block_reward"` // Value a miner may mint in a coinbase on top of the fees.
	Coinbase    []database.Output `json:"coinbase"`     // Outputs minted by the genesis block.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if _, err := genesis.Target(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Target returns the difficulty as a number.
func (g Genesis) Target() (*uint256.Int, error) {
	return database.ParseDifficulty(g.Difficulty)
}

// Block constructs the genesis block, ready to be mined. The block links to
// the zero hash and carries a single coinbase transaction.
func (g Genesis) Block() (database.Block, error) {
	difficulty, err := g.Target()
	if err != nil {
		return database.Block{}, err
	}

	coinbase := database.Tx{TimeStamp: g.TimeStamp}
	for _, out := range g.Coinbase {
		if err := coinbase.AddOutputValue(out.ToAddress, out.Value); err != nil {
			return database.Block{}, err
		}
	}

	return database.NewBlock(0, g.TimeStamp, digest.ZeroHash, []database.Tx{coinbase}, difficulty)
}
