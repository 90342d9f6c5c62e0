// Command replayctl is the CLI adapter for the replay-verification
// engine (spec §6.3 — "the boundary; implemented by an adapter").
// Grounded on the teacher's cmd/gasoline-cmd entry point (exit-code
// discipline, global format/verbose flags), rebuilt on
// github.com/spf13/cobra — gravwell-gravwell's gwcli tree is the
// pack's only cobra-based CLI, and spec §6.3 explicitly calls the CLI
// surface an external adapter, giving latitude to follow that more
// idiomatic shape instead of the teacher's hand-rolled flag parser.
package main

import (
	"fmt"
	"os"

	"github.com/brennhill/replayverify/cmd/replayctl/commands"
)

func main() {
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
