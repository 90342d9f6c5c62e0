// Package commands assembles the replayctl cobra command tree:
// replay, tag, session list|show (spec §6.3), grounded on
// gravwell-gravwell's gwcli/tree package shape (one file per
// subcommand, a root.go gluing the tree together via
// PersistentPreRunE for shared setup).
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brennhill/replayverify/internal/logging"
)

var (
	flagConfigFile string
	flagVerbose    bool

	logger *zap.Logger
)

// Root builds the replayctl command tree.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "replayctl",
		Short:         "Replay recorded HTTP sessions against a live target or synthesized responses",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(logging.Options{Verbose: flagVerbose})
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagConfigFile, "config", "", "path to a YAML run config")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	root.AddCommand(newReplayCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newSessionCmd())
	return root
}
