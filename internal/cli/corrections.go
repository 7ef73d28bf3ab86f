package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fairbot/internal/corrections"
	"fairbot/internal/logstore"
)

func newCorrectionsCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "corrections <question>",
		Short: "Find past admin corrections relevant to a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			found, err := a.matcher.Find(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, found, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, corrections.Render(found))
				return err
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", corrections.DefaultLimit, "maximum corrections to return")
	return cmd
}

func newCorrectCmd(opts *options) *cobra.Command {
	var in logstore.CorrectionInput
	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Record an admin correction for a past answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.store.RecordCorrection(cmd.Context(), in)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, entry, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Admin correction saved for %s/%s at %s\n",
					entry.SessionID, entry.InteractionID, entry.Timestamp)
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.SessionID, "session", "", "session id of the corrected interaction")
	f.StringVar(&in.InteractionID, "interaction", "", "interaction id of the corrected answer")
	f.StringVar(&in.UserQuestion, "question", "", "the user's question")
	f.StringVar(&in.OriginalResponse, "original", "", "the answer that was given")
	f.StringVar(&in.CorrectedText, "corrected", "", "the answer that should have been given")
	f.StringVar(&in.CorrectorID, "admin", "", "who made the correction")
	f.StringVar(&in.CorrectionTimestamp, "at", "", "correction time, RFC 3339 (default: now)")
	return cmd
}
