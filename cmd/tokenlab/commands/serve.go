package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/tokenlab-xyz/go-tokenlab/explorer"
	"github.com/tokenlab-xyz/go-tokenlab/harness"
	"github.com/tokenlab-xyz/go-tokenlab/journal"
)

// serveConfig is read from the environment; flags override it.
type serveConfig struct {
	Addr   string `env:"TOKENLAB_ADDR"         envDefault:":8080"`
	Name   string `env:"TOKENLAB_TOKEN_NAME"   envDefault:"My Token"`
	Symbol string `env:"TOKENLAB_TOKEN_SYMBOL" envDefault:"MTK"`
	Supply string `env:"TOKENLAB_TOKEN_SUPPLY" envDefault:"1000000"`
	DB     string `env:"TOKENLAB_DB"`
}

func serveCmd() *cobra.Command {
	var addr, dsn string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Deploy a demo token and serve the HTTP explorer over it",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg serveConfig
			if err := env.Parse(&cfg); err != nil {
				return fmt.Errorf("parse env: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dsn != "" {
				cfg.DB = dsn
			}

			supply, err := uint256.FromDecimal(cfg.Supply)
			if err != nil {
				return fmt.Errorf("bad supply %q: %w", cfg.Supply, err)
			}

			opts := []harness.Option{harness.WithToken(cfg.Name, cfg.Symbol, supply)}
			if cfg.DB != "" {
				store, err := journal.NewSQLiteStore(cfg.DB)
				if err != nil {
					return err
				}
				opts = append(opts, harness.WithJournal(store))
			}

			f, err := harness.Start(opts...)
			if err != nil {
				return err
			}
			defer f.Close()
			seedDemoBalances(f, supply)

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           explorer.New(f.Chain, f.Token).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				srv.Close()
			}()

			slog.Info("explorer listening", "addr", cfg.Addr, "token", f.Token.Hex())
			fmt.Printf("token %s (%s) at %s\n", cfg.Name, cfg.Symbol, f.Token.Hex())
			fmt.Printf("explorer on %s  (try /token, /balances, /events, /root)\n", cfg.Addr)

			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides TOKENLAB_ADDR)")
	cmd.Flags().StringVar(&dsn, "db", "", "SQLite DSN to journal to (overrides TOKENLAB_DB)")
	return cmd
}

// seedDemoBalances spreads part of the supply over alice and bob so the
// explorer has more than one holder to show.
func seedDemoBalances(f *harness.Fixture, supply *uint256.Int) {
	quarter := new(uint256.Int).Div(supply, uint256.NewInt(4))
	tenth := new(uint256.Int).Div(supply, uint256.NewInt(10))
	if quarter.IsZero() || tenth.IsZero() {
		return
	}
	if _, err := f.As(f.Owner).Call("transfer", f.Alice.Addr, quarter); err != nil {
		slog.Warn("seed transfer failed", "err", err)
	}
	if _, err := f.As(f.Owner).Call("transfer", f.Bob.Addr, tenth); err != nil {
		slog.Warn("seed transfer failed", "err", err)
	}
}
