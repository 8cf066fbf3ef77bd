package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scanvault/api/internal/service"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and repair job records",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsGetCommand(ctx))
	jobsCmd.AddCommand(newJobsPollCommand(ctx))
	jobsCmd.AddCommand(newJobsImportCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var (
		activeOnly bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			list := s.ListAll
			if activeOnly {
				list = s.ListActive
			}
			jobs, err := list(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(jobs)
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderJobsTable(jobs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only list non-terminal jobs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newJobsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show one job record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			job, err := s.GetByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("job %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderJobDetail(job))
			return nil
		},
	}
}

func newJobsPollCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "poll <job-id>",
		Short: "Fetch the vendor status of a job and reconcile it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reconciler, err := ctx.reconciler()
			if err != nil {
				return err
			}
			job, err := reconciler.PollFrom(cmd.Context(), args[0], service.SourceManual)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderJobDetail(job))
			return nil
		},
	}
}

func newJobsImportCommand(ctx *commandContext) *cobra.Command {
	var sourceName string
	cmd := &cobra.Command{
		Use:   "import <job-id>",
		Short: "Record a vendor job missing from the local store",
		Long: "Creates the local record for a job the vendor accepted but that was never stored " +
			"(uploads that answered LOCAL_PERSISTENCE_FAILED), then reconciles its status.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reconciler, err := ctx.reconciler()
			if err != nil {
				return err
			}
			uploads := service.NewUploadService(ctx.vendor, ctx.store, ctx.logger)
			job, err := uploads.ImportJob(cmd.Context(), reconciler, args[0], sourceName)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderJobDetail(job))
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceName, "name", "", "Original video file name")
	return cmd
}
