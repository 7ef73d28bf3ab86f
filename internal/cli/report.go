package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"fairbot/internal/analytics"
	"fairbot/internal/logger"
	"fairbot/internal/logstore"
)

func newReportCmd(opts *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize one day of assistant activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().UTC()
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
				}
				day = parsed
			}

			a, err := openApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := dailyStats(cmd.Context(), a.store, day)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, stats, func(w io.Writer) error {
				_, err := io.WriteString(w, stats.GenerateReportSummary())
				return err
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "UTC day to report, YYYY-MM-DD (default: today)")
	return cmd
}

func dailyStats(ctx context.Context, store *logstore.Store, day time.Time) (*analytics.DailyStats, error) {
	var all []logstore.Entry
	for _, kind := range logstore.Kinds {
		entries, err := store.QueryByEventKind(ctx, kind, "")
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return analytics.AnalyzeDailyLogs(all, day), nil
}

// reportJob builds the scheduled daily report. notify, when set, receives
// the summary text.
func reportJob(store *logstore.Store, notify func(string) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		stats, err := dailyStats(ctx, store, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("collect daily stats: %w", err)
		}
		logger.Get(ctx).Infow("daily report",
			"date", stats.Date, "questions", stats.Questions, "answers", stats.Answers,
			"corrections", stats.Corrections, "sessions", stats.UniqueSessions)
		if notify == nil {
			return nil
		}
		if err := notify(stats.GenerateReportSummary()); err != nil {
			return fmt.Errorf("deliver daily report: %w", err)
		}
		return nil
	}
}
