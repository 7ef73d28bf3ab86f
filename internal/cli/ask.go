package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(opts *options) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant a question and log the exchange",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.assistant(cmd.Context())
			if err != nil {
				return err
			}
			reply, err := svc.Ask(cmd.Context(), sessionID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, reply, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s\n\n[session %s, interaction %s]\n",
					reply.Response, reply.SessionID, reply.InteractionID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "continue this session")
	return cmd
}
