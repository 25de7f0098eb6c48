package main

import (
	"fmt"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wheat4714/downgraderr/internal/sweep"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var workers int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify every library item and push profile updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rt, err := ctx.buildRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			opts := sweep.Options{
				Policy:   rt.cfg.Policy(),
				Workers:  rt.cfg.Sweep.Workers,
				DryRun:   dryRun,
				LockPath: rt.cfg.Sweep.LockPath,
			}
			if workers > 0 {
				opts.Workers = workers
			}

			runner, err := sweep.New(rt.library, rt.resolver, rt.notifier, rt.logger, opts)
			if err != nil {
				return err
			}

			report, err := runner.Run(signalCtx)
			if err != nil {
				return err
			}

			printReport(cmd, report, dryRun)

			if report.Failed > rt.cfg.Sweep.MaxFailures {
				return fmt.Errorf("%d items failed (tolerated: %d)", report.Failed, rt.cfg.Sweep.MaxFailures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify items without pushing profile updates")
	cmd.Flags().IntVar(&workers, "workers", 0, "Override the configured worker count")
	return cmd
}

func printReport(cmd *cobra.Command, report *sweep.Report, dryRun bool) {
	out := cmd.OutOrStdout()

	results := make([]sweep.ItemResult, len(report.Results))
	copy(results, report.Results)
	sort.Slice(results, func(i, j int) bool { return results[i].ItemID < results[j].ItemID })

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		outcome := "updated"
		if dryRun {
			outcome = "would update"
		}
		tier := result.Tier
		profile := strconv.FormatInt(result.ProfileID, 10)
		if result.Err != nil {
			outcome = "failed: " + result.Err.Error()
			tier = "-"
			profile = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(result.ItemID, 10),
			result.Title,
			tier,
			profile,
			outcome,
		})
	}

	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Title", "Tier", "Profile", "Result"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "%d processed, %d updated, %d failed in %s\n",
		report.Processed, report.Updated, report.Failed, report.Duration.Round(time.Millisecond))
}
