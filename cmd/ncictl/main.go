// Command ncictl is an interactive debug client: it dials a running NFC
// controller (typically casimir) over its NCI transport and drives the
// host-side operations from a menu, for manual protocol exploration and
// troubleshooting.
package main

import (
	"fmt"
	"os"

	"github.com/GrapheneOS-Archive/platform-system-nfc/cmd/ncictl/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
