package database_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/holiman/uint256"
)

// Difficulties used by the tests.
var (
	easiest  = uint256.MustFromHex("0xffffffffffffffffffffffffffffffff")
	standard = uint256.MustFromHex("0xffffffffffffffffffffffffffff")
	hardest  = uint256.NewInt(1)
)

func genesisBlock(t *testing.T, difficulty *uint256.Int) database.Block {
	t.Helper()

	tx := database.Tx{
		Outputs:   []database.Output{mustOutput(t, "Alice", 50), mustOutput(t, "Bob", 20)},
		TimeStamp: genesisTimeStamp,
	}

	block, err := database.NewBlock(0, genesisTimeStamp, digest.ZeroHash, []database.Tx{tx}, difficulty)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the block: %v", failed, err)
	}

	return block
}

func TestBlock(t *testing.T) {
	t.Log("Given the need to construct blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen there are no transactions.", testID)
		{
			_, err := database.NewBlock(0, genesisTimeStamp, digest.ZeroHash, nil, easiest)
			if !errors.Is(err, database.ErrNoTransactions) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrNoTransactions: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrNoTransactions.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the difficulty is wider than 128 bits.", testID)
		{
			wide := new(uint256.Int).Lsh(uint256.NewInt(1), 128)

			_, err := database.NewBlock(0, genesisTimeStamp, digest.ZeroHash, []database.Tx{{TimeStamp: genesisTimeStamp}}, wide)
			if !errors.Is(err, database.ErrDifficultyRange) {
				t.Fatalf("\t%s\tTest %d:\tShould get ErrDifficultyRange: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get ErrDifficultyRange.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen serializing the same block twice.", testID)
		{
			b1 := genesisBlock(t, standard)
			b2 := genesisBlock(t, standard)

			if !bytes.Equal(b1.Bytes(), b1.Bytes()) || !bytes.Equal(b1.Bytes(), b2.Bytes()) {
				t.Fatalf("\t%s\tTest %d:\tShould get the same bytes.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the same bytes.", success, testID)

			if b1.CalculateHash() != b2.CalculateHash() {
				t.Fatalf("\t%s\tTest %d:\tShould get the same hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the same hash.", success, testID)

			b2.Nonce++
			if b1.CalculateHash() == b2.CalculateHash() {
				t.Fatalf("\t%s\tTest %d:\tShould get a different hash for a different nonce.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get a different hash for a different nonce.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining collects the fees.", testID)
		{
			coinbase := database.Tx{TimeStamp: genesisTimeStamp}
			coinbase.AddOutput(mustOutput(t, "Miner", 3))

			spend := database.Tx{TimeStamp: genesisTimeStamp}
			spend.AddInput(mustOutput(t, "Alice", 50))
			spend.AddOutput(mustOutput(t, "Bob", 47))

			block, err := database.NewBlock(1, genesisTimeStamp+1, digest.Sum([]byte("prev")), []database.Tx{coinbase, spend}, easiest)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the block: %v", failed, testID, err)
			}

			if err := block.Mine(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
			}

			if block.Reward != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould set the reward to the fees: got %d.", failed, testID, block.Reward)
			}
			t.Logf("\t%s\tTest %d:\tShould set the reward to the fees.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen exchanging a mined block as JSON.", testID)
		{
			block := genesisBlock(t, standard)
			if err := block.Mine(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
			}

			data, err := json.Marshal(database.NewBlockData(block))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to marshal: %v", failed, testID, err)
			}

			var bd database.BlockData
			if err := json.Unmarshal(data, &bd); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal: %v", failed, testID, err)
			}

			got, err := database.ToBlock(bd)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to convert to a block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to convert to a block.", success, testID)

			if got.Hash != block.Hash || !bytes.Equal(got.Bytes(), block.Bytes()) {
				t.Fatalf("\t%s\tTest %d:\tShould get back the same block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get back the same block.", success, testID)

			bd.Trans[0].Outputs[0].Value = 0
			if _, err := database.ToBlock(bd); !errors.Is(err, database.ErrZeroValue) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a zero value output: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a zero value output.", success, testID)
		}
	}
}
