package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/deviljitu1/forever-flame-companion/internal/config"
	"github.com/deviljitu1/forever-flame-companion/internal/database"
	"github.com/deviljitu1/forever-flame-companion/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lovekeeper",
		Short:         "LoveKeeper partnership API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Structured logging (JSON to stdout)
			logging.Setup()
		},
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newReconcileCommand())
	return cmd
}

// connect loads the configuration and opens the shared database handle.
// Only the database settings are required here; serve validates the rest.
func connect() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DBPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD environment variable is required")
	}
	if err := database.Connect(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func closeDatabase() {
	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err.Error())
	}
}
