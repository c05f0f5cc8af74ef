package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenlab-xyz/go-tokenlab/harness"
)

func demoCmd() *cobra.Command {
	var scenarioPath string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the scripted workshop tour and print its trace",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := builtinTour()
			if scenarioPath != "" {
				loaded, err := harness.LoadScenario(scenarioPath)
				if err != nil {
					return err
				}
				sc = loaded
			}

			trace, err := sc.Run()
			if err != nil {
				return err
			}
			fmt.Print(trace)
			return nil
		},
	}
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario to run instead of the built-in tour")
	return cmd
}

// builtinTour walks the token's whole surface: a transfer, an owner
// mint, a rejected non-owner mint, and a transfer out of the minted
// balance.
func builtinTour() *harness.Scenario {
	return &harness.Scenario{
		Name:   "workshop-tour",
		Deploy: harness.DeploySpec{Name: "My Token", Symbol: "MTK", Supply: "1000"},
		Steps: []harness.Step{
			{As: "owner", Call: "transfer", Args: []string{"alice", "250"}},
			{As: "owner", Call: "mint", Args: []string{"bob", "100"}},
			{As: "alice", Call: "mint", Args: []string{"alice", "1000"}, Expect: "revert", Reason: "not the owner"},
			{As: "bob", Call: "transfer", Args: []string{"alice", "40"}},
		},
		Checks: []harness.Check{
			{View: "balanceOf", Args: []string{"owner"}, Want: "750"},
			{View: "balanceOf", Args: []string{"alice"}, Want: "290"},
			{View: "balanceOf", Args: []string{"bob"}, Want: "60"},
			{View: "totalSupply", Want: "1100"},
		},
	}
}
