package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func NewStartCmd(deps *Dependencies) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "start [title]",
		Short: "Start a new meeting",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if d := deps.App.Gate.Check(ctx); !d.Allowed() {
				return errNotSignedIn
			}

			var start *time.Time
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				start = &t
			}

			m, err := deps.App.Meetings.StartMeeting(ctx, strings.Join(args, " "), start)
			if err != nil {
				return err
			}
			formatter(deps).MeetingStarted(m)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Scheduled start (RFC 3339)")

	return cmd
}
