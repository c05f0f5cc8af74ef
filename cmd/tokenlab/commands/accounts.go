package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenlab-xyz/go-tokenlab/keys"
)

func accountsCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the deterministic workshop accounts",
		Long: `List the deterministic workshop accounts.

These keys are derived from fixed seeds and are the same on every
machine. They hold nothing outside this sandbox; never use them
anywhere real.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 1 {
				return fmt.Errorf("--n must be positive")
			}
			for i, k := range keys.DevAccounts(n) {
				fmt.Printf("%d  %s  %s\n", i, k.Address().Hex(), k.Hex())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "n", 3, "how many accounts to derive")
	return cmd
}
