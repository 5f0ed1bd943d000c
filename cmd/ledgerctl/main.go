package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/nkiryanov/creditledger/internal/db"
	"github.com/nkiryanov/creditledger/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Getenv).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Options shared by every subcommand
type options struct {
	databaseDSN string
	logLevel    string
}

func (o *options) logger() (logger.Logger, error) {
	return logger.NewTextLogger(o.logLevel)
}

func (o *options) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if o.databaseDSN == "" {
		return nil, fmt.Errorf("database DSN is required: pass --database or set DATABASE_URI")
	}
	return db.Connect(ctx, o.databaseDSN)
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Maintenance tool for the credit ledger database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.databaseDSN, "database", "d", getenv("DATABASE_URI"), "Database connection string")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", logger.LevelWarn, "Logging level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd(opts))
	rootCmd.AddCommand(seedCardsCmd(opts))
	rootCmd.AddCommand(seedCatalogCmd(opts))
	rootCmd.AddCommand(purgeAccountCmd(opts))
	rootCmd.AddCommand(reconcileCmd(opts))

	return rootCmd
}

func migrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.databaseDSN == "" {
				return fmt.Errorf("database DSN is required: pass --database or set DATABASE_URI")
			}
			if err := db.Migrate(opts.databaseDSN); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}
