package main

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"osucodec/internal/store"
)

var (
	reportLimit int
	reportRun   string
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show recorded check runs, or the checks of one run",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().IntVar(&reportLimit, "limit", 20, "maximum rows to show")
	cmd.Flags().StringVar(&reportRun, "run", "", "show the checks of this run")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Printf("failed to close db: %v", cerr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if reportRun != "" {
		checks, err := st.List(ctx, reportRun, reportLimit)
		if err != nil {
			return err
		}
		if len(checks) == 0 {
			return fmt.Errorf("no checks recorded for run %s", reportRun)
		}
		return formatTable(cmd.OutOrStdout(), []string{"STATUS", "FORMAT", "DIFFS", "TIME", "PATH", "ERROR"}, checkRows(checks))
	}

	runs, err := st.Runs(ctx, reportLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no checks recorded yet; run `osucodec check --record`")
		return nil
	}
	return formatTable(cmd.OutOrStdout(), []string{"RUN", "STARTED", "CHARTS", "FAILED"}, runRows(runs))
}

func runRows(runs []store.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			humanize.Time(r.StartedAt),
			humanize.Comma(int64(r.Total)),
			humanize.Comma(int64(r.Failed)),
		})
	}
	return rows
}

func checkRows(checks []store.Check) [][]string {
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		status := "PASS"
		if !c.OK {
			status = "FAIL"
		}
		format := "-"
		if c.FormatVersion > 0 {
			format = "v" + strconv.Itoa(c.FormatVersion)
		}
		rows = append(rows, []string{
			status,
			format,
			strconv.Itoa(c.DiffCount),
			c.Duration.String(),
			c.Path,
			c.Error,
		})
	}
	return rows
}
