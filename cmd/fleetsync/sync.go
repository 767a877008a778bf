package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/app"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type syncOperator interface {
	StartSync(ctx context.Context, tenantID string) (model.SyncJob, error)
	PollStatus(ctx context.Context, tenantID string) (model.SyncJob, error)
	CurrentJob(ctx context.Context, tenantID string) (model.SyncJob, error)
	ResetSync(ctx context.Context, tenantID string) (model.SyncJob, error)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Operate the vehicle sync job of a tenant",
}

func init() {
	syncCmd.PersistentFlags().String("tenant", "", "tenant id")
	_ = syncCmd.MarkPersistentFlagRequired("tenant")

	syncCmd.AddCommand(
		syncCommand("start", "Trigger a remote sync", func(ctx context.Context, op syncOperator, tenant string, _ time.Duration, out io.Writer) error {
			job, err := op.StartSync(ctx, tenant)
			printJob(out, job)
			return err
		}),
		syncCommand("status", "Poll the remote sync status once", func(ctx context.Context, op syncOperator, tenant string, _ time.Duration, out io.Writer) error {
			job, err := op.PollStatus(ctx, tenant)
			printJob(out, job)
			return err
		}),
		syncCommand("show", "Show the stored sync job without contacting the backend", func(ctx context.Context, op syncOperator, tenant string, _ time.Duration, out io.Writer) error {
			job, err := op.CurrentJob(ctx, tenant)
			printJob(out, job)
			return err
		}),
		syncCommand("reset", "Force the sync job to completed", func(ctx context.Context, op syncOperator, tenant string, _ time.Duration, out io.Writer) error {
			job, err := op.ResetSync(ctx, tenant)
			printJob(out, job)
			return err
		}),
		syncCommand("watch", "Poll until the running sync finishes", func(ctx context.Context, op syncOperator, tenant string, every time.Duration, out io.Writer) error {
			_, err := watch(ctx, op, tenant, every, out)
			return err
		}),
	)
}

type syncRun func(ctx context.Context, op syncOperator, tenant string, every time.Duration, out io.Writer) error

func syncCommand(use, short string, run syncRun) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tenant, _ := cmd.Flags().GetString("tenant")

			a, err := app.NewOperator(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			return run(ctx, a.SyncService(ctx), tenant, a.PollInterval(), cmd.OutOrStdout())
		},
	}
}

// watch polls on a fixed interval until the job leaves InProgress. Failed
// reads are reported and retried on the next tick.
func watch(ctx context.Context, op syncOperator, tenant string, every time.Duration, out io.Writer) (model.SyncJob, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		job, err := op.PollStatus(ctx, tenant)
		switch {
		case errors.Is(err, model.ErrTransientSyncReadFailure):
			fmt.Fprintf(out, "status unavailable, last known %s: %v\n", job.Status, err) //nolint:errcheck
		case err != nil:
			return job, err
		default:
			printJob(out, job)
			if job.Status != model.SyncInProgress {
				return job, nil
			}
		}

		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

func printJob(out io.Writer, job model.SyncJob) {
	if job.TenantID == "" {
		return
	}

	fmt.Fprintf(out, "%s\t%s", job.TenantID, job.Status) //nolint:errcheck
	if job.StartedAt != nil {
		fmt.Fprintf(out, "\tstarted=%s", job.StartedAt.Format(time.RFC3339)) //nolint:errcheck
	}
	if job.CompletedAt != nil {
		fmt.Fprintf(out, "\tcompleted=%s", job.CompletedAt.Format(time.RFC3339)) //nolint:errcheck
	}
	if job.Status == model.SyncCompleted {
		fmt.Fprintf(out, "\tcreated=%d updated=%d", job.CreatedCount, job.UpdatedCount) //nolint:errcheck
	}
	if job.DetailMessage != "" {
		fmt.Fprintf(out, "\t%s", job.DetailMessage) //nolint:errcheck
	}
	fmt.Fprintln(out) //nolint:errcheck
}
