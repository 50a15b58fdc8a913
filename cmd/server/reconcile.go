package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/deviljitu1/forever-flame-companion/internal/database"
	"github.com/deviljitu1/forever-flame-companion/internal/events"
	"github.com/deviljitu1/forever-flame-companion/internal/partnership"
	"github.com/spf13/cobra"
)

func newReconcileCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair profile links that drifted from accepted partnerships",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := connect()
			if err != nil {
				return err
			}
			defer closeDatabase()

			if workers < 1 {
				workers = cfg.ReconcileWorkers
			}
			var publisher events.Publisher = events.Nop{}
			if cfg.NATSURL != "" {
				bus, err := events.Connect(cfg.NATSURL, cfg.SubjectPrefix)
				if err != nil {
					return fmt.Errorf("events: %w", err)
				}
				defer bus.Close()
				publisher = bus
			}

			reconciler := partnership.NewReconciler(partnership.NewGormStore(database.DB), workers, nil, publisher)
			report, err := reconciler.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent repairs (defaults to RECONCILE_WORKERS)")
	return cmd
}
