package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/spf13/cobra"
)

var (
	genesisPath string
	workers     int
	verbose     bool
)

// genesisCmd represents the genesis command
var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Mine the genesis block described by a genesis file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := genesis.Load(genesisPath)
		if err != nil {
			return err
		}

		block, err := gen.Block()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		options := []database.MineOption{database.WithWorkers(workers)}
		if verbose {
			ev := func(v string, args ...any) {
				fmt.Fprintf(cmd.ErrOrStderr(), v+"\n", args...)
			}
			options = append(options, database.WithEventHandler(ev))
		}

		if err := block.Mine(ctx, options...); err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), database.NewBlockData(block))
	},
}

func init() {
	rootCmd.AddCommand(genesisCmd)
	genesisCmd.Flags().StringVarP(&genesisPath, "genesis-path", "g", "zblock/genesis.json", "Path to the genesis file.")
	genesisCmd.Flags().IntVarP(&workers, "workers", "n", 4, "Number of goroutines searching for the nonce.")
	genesisCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the mining events.")
}
