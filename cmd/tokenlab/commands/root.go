// Package commands implements the tokenlab CLI: a sandboxed token
// workshop in a single binary. Every command starts from a fresh chain
// unless pointed at a SQLite journal, so nothing persists by accident.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

// Execute runs the CLI.
func Execute() error {
	root := &cobra.Command{
		Use:          "tokenlab",
		Short:        "Token contract workshop sandbox",
		Version:      "0.1.0",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		deployCmd(),
		demoCmd(),
		accountsCmd(),
		eventsCmd(),
		solCmd(),
		proveCmd(),
		serveCmd(),
	)
	return root.Execute()
}
