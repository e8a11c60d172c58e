package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"timeclock/internal/accounting"
	"timeclock/internal/models"
	"timeclock/internal/scanflow"
	"timeclock/internal/service"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read scans from the barcode reader (stdin) interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if a.cfg.Sync.OnStart {
				if _, err := a.sweeper.Sweep(ctx); err != nil {
					a.logger.Error().Err(err).Msg("sync on start failed")
				}
			}
			return runTerminal(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

// runTerminal feeds every input line through the scan flow and submits
// confirmed scans.
func runTerminal(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	flow := scanflow.New(a.cfg.ScanFlowOptions())
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, flow.Prompt())
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		next, req, err := flow.Feed(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
		}
		flow = next

		if req != nil {
			res, err := a.submitter.Submit(ctx, *req)
			printSubmission(out, res, err)
		} else if flow.State == scanflow.AwaitingConfirmation {
			fmt.Fprintln(out, flow.Summary())
		}
		fmt.Fprintln(out, flow.Prompt())
	}
	return scanner.Err()
}

func printSubmission(out io.Writer, res service.Result, err error) {
	var cooldown *accounting.CooldownError
	switch {
	case errors.As(err, &cooldown):
		fmt.Fprintf(out, "Scan already recorded, wait %d seconds\n", cooldown.Seconds())
		return
	case errors.Is(err, service.ErrSubjectNotFound):
		fmt.Fprintln(out, "Badge not registered")
		return
	case err != nil:
		fmt.Fprintf(out, "Scan not recorded: %v\n", err)
		return
	}

	for _, r := range res.Records {
		fmt.Fprintf(out, "%s %s  %s-%s  %s h  order %s\n",
			r.SubjectID, r.SubjectName, r.IntervalStart.HHMM(), r.IntervalEnd.HHMM(), r.WorkedHours.StringFixed(3), r.OrderID)
	}
	if res.Outcome == service.OutcomeQueued {
		fmt.Fprintln(out, "Saved locally, will sync when the ledger is reachable")
	} else {
		fmt.Fprintln(out, "Recorded")
	}
}

var scanDirect bool

var scanCmd = &cobra.Command{
	Use:   "scan <subject> <activity> <order>",
	Short: "Submit one scan",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			req := models.ScanRequest{SubjectCode: args[0], ActivityCode: args[1], OrderCode: args[2], Direct: scanDirect}
			res, err := a.submitter.Submit(ctx, req)
			printSubmission(cmd.OutOrStdout(), res, err)
			return err
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay the offline queue against the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			report, err := a.sweeper.Sweep(ctx)
			if err != nil {
				return err
			}
			if report.Offline {
				fmt.Fprintf(cmd.OutOrStdout(), "Offline, %d records still pending\n", report.StillPending)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synchronized %d, failed %d, still pending %d\n",
				report.Synchronized, report.Failed, report.StillPending)
			return nil
		})
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local lookup cache",
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the local lookup cache from the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			c, err := a.directory.Rebuild(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cached %d subjects, %d activities, %d orders\n",
				len(c.Subjects), len(c.Activities), len(c.Orders))
			return nil
		})
	},
}

var todayJSON bool

var todayCmd = &cobra.Command{
	Use:   "today <subject>",
	Short: "Show a subject's records and hours for today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			report, err := a.submitter.Today(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if todayJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printToday(out, report)
			return nil
		})
	},
}

func printToday(out io.Writer, r service.DayReport) {
	fmt.Fprintf(out, "%s %s  %s\n", r.SubjectID, r.SubjectName, r.Date)
	for _, e := range r.Records {
		fmt.Fprintf(out, "  %s-%s  %s h  %s %s\n",
			e.IntervalStart.HHMM(), e.IntervalEnd.HHMM(), e.WorkedHours.StringFixed(3), e.ActivityCode, e.OrderID)
	}
	fmt.Fprintf(out, "Total %s h of %s h nominal\n", r.TotalHours.StringFixed(3), r.Analysis.NominalHours.StringFixed(1))
	if r.Analysis.Late {
		fmt.Fprintf(out, "Late by %s\n", r.Analysis.LateBy)
	}
	if r.Analysis.EarlyExit {
		fmt.Fprintf(out, "Left early by %s\n", r.Analysis.EarlyBy)
	}
	if r.Analysis.Overtime {
		fmt.Fprintf(out, "Overtime %s\n", r.Analysis.OvertimeBy)
	}
	if r.Pending > 0 {
		fmt.Fprintf(out, "%d records waiting to sync\n", r.Pending)
	}
}

func init() {
	scanCmd.Flags().BoolVar(&scanDirect, "direct", false, "book a direct service without an order lookup")
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "print JSON")
}
