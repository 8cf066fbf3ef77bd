package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scanvault/api/internal/worker"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Poll every active job once",
		RunE: func(cmd *cobra.Command, args []string) error {
			reconciler, err := ctx.reconciler()
			if err != nil {
				return err
			}
			if concurrency <= 0 {
				concurrency = ctx.cfg.Sweep.Concurrency
			}

			stats, err := worker.NewSweepWorker(ctx.store, reconciler, concurrency, ctx.logger).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d, changed %d, failed %d in %s\n",
				stats.Checked, stats.Changed, stats.Failed, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel vendor calls (defaults to sweep.concurrency)")
	return cmd
}
