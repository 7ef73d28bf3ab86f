package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fairbot/internal/history"
	"fairbot/internal/logstore"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		page      int
		limit     int
		sessionID string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show logged interactions grouped by exchange, newest activity first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.history.GetHistory(cmd.Context(), sessionID, page, limit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, out, func(w io.Writer) error {
				return printHistory(w, out)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", 20, "interaction groups per page")
	cmd.Flags().StringVar(&sessionID, "session", "", "only show this session")
	return cmd
}

func printHistory(w io.Writer, p history.Page) error {
	s := p.Summary
	fmt.Fprintf(w, "Interactions: %d  Entries: %d  Questions: %d  Answers: %d  Corrections: %d  Sessions: %d\n",
		s.TotalInteractionGroups, s.TotalIndividualLogEntries, s.TotalQuestions,
		s.TotalAIResponses, s.TotalAdminCorrections, s.UniqueSessionCount)
	fmt.Fprintf(w, "Page %d of %d (%d per page)\n", p.Meta.CurrentPage, p.Meta.TotalPages, p.Meta.LimitPerPage)

	if len(p.History) == 0 {
		fmt.Fprintln(w, "\nNo interactions on this page.")
		return nil
	}

	current := ""
	for _, e := range p.History {
		if e.InteractionID != current {
			current = e.InteractionID
			fmt.Fprintf(w, "\n── %s (session %s)\n", e.InteractionID, e.SessionID)
		}
		fmt.Fprintf(w, "  %s %-16s %s\n", e.Timestamp, e.Kind, truncate(e.Content, 120))
		if e.Kind == logstore.KindCorrection && e.CorrectorID != "" {
			fmt.Fprintf(w, "  %24s by %s\n", "", e.CorrectorID)
		}
	}
	return nil
}
