// Command casimir runs the NFCC emulator: an NCI listener driven by
// internal/casimir, plus an optional read-only status/health/metrics HTTP
// server.
package main

import (
	"fmt"
	"os"

	"github.com/GrapheneOS-Archive/platform-system-nfc/cmd/casimir/commands"
)

// Build-time variables injected via ldflags.
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
