package cmd

import (
	"fmt"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var index int

// blocksCmd represents the blocks command
var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Print the blocks accepted by a node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if index >= 0 {
			var block database.BlockData
			if err := send(http.MethodGet, fmt.Sprintf("%s/v1/blocks/%d", url, index), nil, &block); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), block)
		}

		var blocks []database.BlockData
		if err := send(http.MethodGet, fmt.Sprintf("%s/v1/blocks/list", url), nil, &blocks); err != nil {
			return err
		}

		for _, block := range blocks {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tprev[%s]\tnonce[%d]\ttrans[%d]\treward[%d]\n",
				block.Index, block.Hash, block.PrevBlockHash, block.Nonce, len(block.Trans), block.Reward)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().IntVarP(&index, "index", "i", -1, "Index of a single block to print.")
}
