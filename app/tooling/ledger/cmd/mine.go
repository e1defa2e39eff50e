package cmd

import (
	"fmt"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	inputs  []string
	outputs []string
)

// mineCmd represents the mine command
var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask a node to mine a transaction into the next block.",
	Example: "  ledger mine --input Alice:50 --output Bob:30 --output Alice:15\n" +
		"  ledger mine    (mines a block holding only the coinbase)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req struct {
			Trans []database.Tx `json:"trans"`
		}

		if len(inputs) > 0 || len(outputs) > 0 {
			ins, err := parseOutputs(inputs)
			if err != nil {
				return err
			}
			outs, err := parseOutputs(outputs)
			if err != nil {
				return err
			}

			// The node stamps transactions sent without a timestamp.
			req.Trans = []database.Tx{{Inputs: ins, Outputs: outs}}
		}

		var resp struct {
			Status string             `json:"status"`
			Block  database.BlockData `json:"block"`
		}
		if err := send(http.MethodPost, fmt.Sprintf("%s/v1/blocks/mine", url), req, &resp); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: blk[%d]: hash[%s]: nonce[%d]: reward[%d]\n",
			resp.Status, resp.Block.Index, resp.Block.Hash, resp.Block.Nonce, resp.Block.Reward)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().StringSliceVar(&inputs, "input", nil, "Unspent output to spend as address:value.")
	mineCmd.Flags().StringSliceVar(&outputs, "output", nil, "Output to create as address:value.")
}
