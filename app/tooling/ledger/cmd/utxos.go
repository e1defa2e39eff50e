package cmd

import (
	"fmt"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/spf13/cobra"
)

// utxosCmd represents the utxos command
var utxosCmd = &cobra.Command{
	Use:   "utxos",
	Short: "Print the unspent output hashes of a node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Count  int           `json:"count"`
			Hashes []digest.Hash `json:"hashes"`
		}
		if err := send(http.MethodGet, fmt.Sprintf("%s/v1/utxos/list", url), nil, &resp); err != nil {
			return err
		}

		for _, hash := range resp.Hashes {
			fmt.Fprintln(cmd.OutOrStdout(), hash)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "unspent[%d]\n", resp.Count)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(utxosCmd)
}
