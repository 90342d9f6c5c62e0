package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brennhill/replayverify/internal/session"
)

func newTagCmd() *cobra.Command {
	var (
		tags       []string
		methodOnly string
	)

	cmd := &cobra.Command{
		Use:   "tag <sessionFile>",
		Short: "Replace the tag set of interactions in a session file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(tags) == 0 {
				return fmt.Errorf("tag: --tags is required")
			}

			s, err := session.Load(args[0])
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}

			var filter func(session.Interaction) bool
			if methodOnly != "" {
				filter = func(i session.Interaction) bool {
					return strings.EqualFold(i.Request.Method, methodOnly)
				}
			}

			n := s.Retag(tags, filter)
			if err := session.Save(args[0], s); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			cmd.Printf("retagged %d interaction(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tags", nil, "tags to apply (replaces existing tags on matched interactions)")
	cmd.Flags().StringVar(&methodOnly, "method", "", "only retag interactions with this HTTP method")
	return cmd
}
