package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/ytwrap-go/internal/domain"
	"github.com/yourusername/ytwrap-go/internal/version"
)

var errHistoryDisabled = errors.New("download history is disabled (history.enabled)")

func newHistoryCmd(opts *cliOptions) *cobra.Command {
	var status, batchID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" && !domain.ValidateStatus(domain.DownloadStatus(status)) {
				return fmt.Errorf("unknown status %q", status)
			}

			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			if rt.repo == nil {
				return errHistoryDisabled
			}

			filters := make(map[string]interface{})
			if status != "" {
				filters["status"] = status
			}
			if batchID != "" {
				filters["batch_id"] = batchID
			}

			downloads, err := rt.repo.FindAll(filters)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tEXIT\tCREATED")
			for _, d := range downloads {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					truncate(d.ID, 8),
					truncate(d.Source, 50),
					d.Status,
					d.ExitCode,
					d.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show downloads with this status")
	cmd.Flags().StringVar(&batchID, "batch", "", "Only show downloads from this batch")
	return cmd
}

func newStatsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show download statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			if rt.repo == nil {
				return errHistoryDisabled
			}

			stats, err := rt.repo.GetStats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.Title.Render("Download Statistics"))
			fmt.Fprintln(out, field("Total", fmt.Sprint(stats.Total)))
			fmt.Fprintln(out, field("Queued", fmt.Sprint(stats.Queued)))
			fmt.Fprintln(out, field("Processing", fmt.Sprint(stats.Processing)))
			fmt.Fprintln(out, field("Completed", fmt.Sprint(stats.Completed)))
			fmt.Fprintln(out, field("Failed", fmt.Sprint(stats.Failed)))
			fmt.Fprintln(out, field("Cancelled", fmt.Sprint(stats.Cancelled)))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ytwrap %s (%s)\n", version.Version, version.Commit)
		},
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
