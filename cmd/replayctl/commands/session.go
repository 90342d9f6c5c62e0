package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brennhill/replayverify/internal/session"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect session files",
	}
	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionShowCmd())
	return cmd
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <sessionFile>",
		Short: "List the interactions in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.Load(args[0])
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}
			for i, in := range s.Interactions {
				cmd.Printf("%3d  %-6s %-40s -> %d  [%s]\n",
					i, in.Request.Method, in.Request.Path, in.Response.StatusCode, joinTags(in.Tags))
			}
			return nil
		},
	}
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <sessionFile>",
		Short: "Show session metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.Load(args[0])
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}
			cmd.Printf("sessionId:   %s\n", s.SessionID)
			cmd.Printf("timestamp:   %s\n", s.Timestamp)
			cmd.Printf("environment: %s\n", s.Metadata.Environment)
			cmd.Printf("description: %s\n", s.Metadata.Description)
			cmd.Printf("tags:        %s\n", joinTags(s.Metadata.Tags))
			cmd.Printf("interactions: %d\n", len(s.Interactions))
			return nil
		},
	}
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	out := tags[0]
	for _, t := range tags[1:] {
		out += "," + t
	}
	return out
}
