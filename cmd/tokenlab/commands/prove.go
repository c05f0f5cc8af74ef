package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/tokenlab-xyz/go-tokenlab/keys"
	"github.com/tokenlab-xyz/go-tokenlab/proof"
	"github.com/tokenlab-xyz/go-tokenlab/token"
)

func proveCmd() *cobra.Command {
	var (
		accounts     int
		verifierPath string
	)
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Prove in zero knowledge that balances sum to the total supply",
		Long: `Prove in zero knowledge that balances sum to the total supply.

Builds a demo ledger over the workshop accounts, commits to it with a
MiMC merkle root, and produces a Groth16 proof that the hidden balances
behind the root add up to the public supply. The proof verifies without
revealing a single balance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if accounts < 1 {
				return fmt.Errorf("--accounts must be positive")
			}

			ledger := token.New("My Token", "MTK")
			for i, k := range keys.DevAccounts(accounts) {
				amount := uint256.NewInt(uint64((i + 1) * 100))
				if err := ledger.Mint(k.Address(), amount); err != nil {
					return err
				}
			}
			st := ledger.Snapshot()

			size := 1
			for size < accounts {
				size *= 2
			}

			slog.Info("compiling circuit", "leaves", size)
			sys, err := proof.Compile(size)
			if err != nil {
				return err
			}
			slog.Info("circuit ready", "constraints", sys.Constraints())

			start := time.Now()
			p, err := sys.Prove(st)
			if err != nil {
				return err
			}
			if err := sys.Verify(p); err != nil {
				return err
			}
			elapsed := time.Since(start).Round(time.Millisecond)

			fmt.Printf("holders:     %d\n", accounts)
			fmt.Printf("supply:      %s\n", p.Supply)
			fmt.Printf("state root:  %s\n", p.Root.Hex())
			fmt.Printf("constraints: %d\n", sys.Constraints())
			fmt.Printf("proved and verified in %s\n", elapsed)

			if verifierPath != "" {
				fh, err := os.Create(verifierPath)
				if err != nil {
					return err
				}
				defer fh.Close()
				if err := sys.ExportSolidityVerifier(fh); err != nil {
					return err
				}
				fmt.Printf("verifier:    %s\n", verifierPath)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&accounts, "accounts", 4, "number of demo holders")
	cmd.Flags().StringVar(&verifierPath, "verifier", "", "export the on-chain Solidity verifier to a file")
	return cmd
}
