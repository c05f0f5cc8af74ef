package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tokenlab-xyz/go-tokenlab/journal"
)

func eventsCmd() *cobra.Command {
	var (
		dsn    string
		stream string
		types  []string
		csvOut bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Dump the transaction journal from a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("--db required (a DSN a previous run journaled to)")
			}
			store, err := journal.NewSQLiteStore(dsn)
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := store.ReadAll(cmd.Context(), journal.EventFilter{
				StreamID: stream,
				Types:    types,
			})
			if err != nil {
				return err
			}

			if csvOut {
				return journal.WriteCSV(os.Stdout, events)
			}

			if len(events) == 0 {
				fmt.Println("no events")
				return nil
			}
			for _, ev := range events {
				fmt.Printf("%-28s v%-3d %s  %s\n", ev.Type, ev.Version, ev.StreamID, ev.Data)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "db", "", "SQLite DSN the chain journaled to")
	cmd.Flags().StringVar(&stream, "stream", "", "restrict to one contract stream (address hex)")
	cmd.Flags().StringSliceVar(&types, "type", nil, "restrict to event types, e.g. log.Transfer")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "emit CSV instead of a table")
	return cmd
}
