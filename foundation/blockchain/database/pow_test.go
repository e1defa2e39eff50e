package database_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

func TestMine(t *testing.T) {
	type table struct {
		name       string
		difficulty *uint256.Int
		nonce      uint64
		hash       string
	}

	tt := []table{
		{
			name:       "easiest",
			difficulty: easiest,
			nonce:      0,
			hash:       "0x7c2667e34376079b59d4653c41a95c648d10b46840bdaedeb8a62543f4119247",
		},
		{
			name:       "standard",
			difficulty: standard,
			nonce:      72203,
			hash:       "0x9703e7feba680571971eb8cbc589b32568d131936876d2ba7ea49ee2a1020000",
		},
	}

	t.Log("Given the need to mine the genesis block.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen mining with a single worker.", testID)
				{
					block := genesisBlock(t, tst.difficulty)

					if err := block.Mine(context.Background()); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

					if block.Nonce != tst.nonce || block.Hash.Hex() != tst.hash {
						t.Logf("\t%s\tTest %d:\tgot: %d %s", failed, testID, block.Nonce, block.Hash)
						t.Logf("\t%s\tTest %d:\texp: %d %s", failed, testID, tst.nonce, tst.hash)
						t.Fatalf("\t%s\tTest %d:\tShould find the first solving nonce.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould find the first solving nonce.", success, testID)

					if !database.CheckDifficulty(block.Hash, &block.Difficulty) {
						t.Fatalf("\t%s\tTest %d:\tShould satisfy the difficulty.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould satisfy the difficulty.", success, testID)

					if block.CalculateHash() != block.Hash {
						t.Fatalf("\t%s\tTest %d:\tShould store the hash of the block content.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould store the hash of the block content.", success, testID)
				}

				t.Logf("\tTest %d:\tWhen mining with several workers.", testID)
				{
					block := genesisBlock(t, tst.difficulty)

					if err := block.Mine(context.Background(), database.WithWorkers(4)); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

					if !database.CheckDifficulty(block.Hash, &block.Difficulty) || block.CalculateHash() != block.Hash {
						t.Fatalf("\t%s\tTest %d:\tShould produce a verifiable solution.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould produce a verifiable solution.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestMineFailures(t *testing.T) {
	t.Log("Given the need to stop mining when no solution can be found.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the nonce range is exhausted.", testID)
		{
			block := genesisBlock(t, hardest)

			err := block.Mine(context.Background(), database.WithNonceRange(0, 99))
			if !errors.Is(err, database.ErrNonceExhausted) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrNonceExhausted: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrNonceExhausted.", success, testID)

			if !block.Hash.IsZero() {
				t.Fatalf("\t%s\tTest %d:\tShould not store a hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not store a hash.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the range ends at the largest nonce.", testID)
		{
			block := genesisBlock(t, hardest)

			err := block.Mine(context.Background(), database.WithNonceRange(math.MaxUint64-9, math.MaxUint64), database.WithWorkers(3))
			if !errors.Is(err, database.ErrNonceExhausted) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrNonceExhausted: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrNonceExhausted.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the difficulty is zero.", testID)
		{
			block := genesisBlock(t, uint256.NewInt(0))

			if err := block.Mine(context.Background()); !errors.Is(err, database.ErrNonceExhausted) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrNonceExhausted: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrNonceExhausted.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining is cancelled.", testID)
		{
			block := genesisBlock(t, hardest)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if err := block.Mine(ctx, database.WithWorkers(2)); !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest %d:\tShould get context.Canceled: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get context.Canceled.", success, testID)
		}
	}
}
