package commands

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
	"github.com/tokenlab-xyz/go-tokenlab/journal"
	"github.com/tokenlab-xyz/go-tokenlab/keys"
	"github.com/tokenlab-xyz/go-tokenlab/mytoken"
)

func deployCmd() *cobra.Command {
	var (
		name   string
		symbol string
		supply string
		dsn    string
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the tutorial token to a fresh sandbox and print its address",
		RunE: func(cmd *cobra.Command, args []string) error {
			initial, err := uint256.FromDecimal(supply)
			if err != nil {
				return fmt.Errorf("bad --supply %q: %w", supply, err)
			}

			var chainOpts []chain.Option
			if dsn != "" {
				store, err := journal.NewSQLiteStore(dsn)
				if err != nil {
					return err
				}
				chainOpts = append(chainOpts, chain.WithJournal(store))
			}

			deployer := keys.DevAccounts(1)[0]
			c := chain.New(chainOpts...)
			defer c.Close()

			addr, rcpt, err := c.Deploy(cmd.Context(), deployer.Address(),
				mytoken.New(name, symbol, initial))
			if err != nil {
				return err
			}

			fmt.Printf("deployed %s (%s)\n", name, symbol)
			fmt.Printf("  address:  %s\n", addr.Hex())
			fmt.Printf("  deployer: %s\n", deployer.Address().Hex())
			fmt.Printf("  tx:       %s\n", rcpt.TxHash.Hex())
			fmt.Printf("  block:    %d\n", rcpt.Block)
			fmt.Printf("  supply:   %s\n", initial.Dec())
			for _, l := range rcpt.Logs {
				printLog(l)
			}
			if dsn != "" {
				fmt.Printf("journal written to %s\n", dsn)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "My Token", "token name")
	cmd.Flags().StringVar(&symbol, "symbol", "MTK", "ticker symbol")
	cmd.Flags().StringVar(&supply, "supply", "1000000", "initial supply")
	cmd.Flags().StringVar(&dsn, "db", "", "SQLite DSN to journal to (default in-memory)")
	return cmd
}

func printLog(l chain.Log) {
	fmt.Printf("  log %s(", l.Event)
	for i, topic := range l.Topics {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Print(topic)
	}
	fmt.Print(")")
	if amount, ok := l.Data["amount"]; ok {
		fmt.Printf(" amount=%s", amount)
	}
	fmt.Println()
}
