package commands

import (
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/tokenlab-xyz/go-tokenlab/codegen/solidity"
)

func solCmd() *cobra.Command {
	var (
		name   string
		symbol string
		supply string
		output string
	)
	cmd := &cobra.Command{
		Use:   "sol",
		Short: "Render the Solidity source the tutorial contract mirrors",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := solidity.ContractSpec{Name: name, Symbol: symbol}
			if supply != "" {
				initial, err := uint256.FromDecimal(supply)
				if err != nil {
					return fmt.Errorf("bad --supply %q: %w", supply, err)
				}
				spec.InitialSupply = initial
			}

			src := solidity.Generate(spec)
			if output != "" {
				return os.WriteFile(output, []byte(src), 0o644)
			}
			fmt.Print(src)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "My Token", "token name")
	cmd.Flags().StringVar(&symbol, "symbol", "MTK", "ticker symbol")
	cmd.Flags().StringVar(&supply, "supply", "", "bake a fixed initial supply into the constructor")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
