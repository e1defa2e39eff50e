// Package state is the core API for the ledger and implements the rules for
// accepting blocks and maintaining the set of unspent outputs.
package state

import (
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/holiman/uint256"
)

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to construct the ledger.
type Config struct {
	Genesis      genesis.Genesis
	MinerAddress string
	Workers      int
	Clock        func() uint64
	EvHandler    EventHandler
}

// State manages the chain of accepted blocks and the set of unspent outputs
// those blocks produced. All access goes through the mutex, updates hold it
// for the entire validate and commit sequence.
type State struct {
	mu sync.RWMutex

	genesis      genesis.Genesis
	difficulty   *uint256.Int
	minerAddress string
	workers      int
	clock        func() uint64
	evHandler    EventHandler

	blocks  []database.Block
	unspent digest.Set
}

// New constructs an empty ledger. The first block applied must be a
// genesis block linking to the zero hash.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = database.Now
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	// The difficulty from genesis is used for every block this node mines.
	difficulty, err := cfg.Genesis.Target()
	if err != nil {
		return nil, err
	}

	state := State{
		genesis:      cfg.Genesis,
		difficulty:   difficulty,
		minerAddress: cfg.MinerAddress,
		workers:      workers,
		clock:        clock,
		evHandler:    ev,
		unspent:      make(digest.Set),
	}

	return &state, nil
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}
