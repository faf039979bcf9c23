// Package commands implements ncictl's command tree: an interactive debug
// client that dials a running casimir instance and drives its NCI host
// stack (pkg/nci) from a prompt-driven menu.
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags, mirroring cmd/casimir.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	dialAddr    string
	dialTimeout time.Duration
	cmdTimeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "ncictl",
	Short: "Interactive debug client for an NCI controller",
	Long: `ncictl dials a running NFCC (typically a casimir instance) over its
NCI transport and drives init, configuration, connection and data
operations from an interactive menu. It is a debugging tool, not a
production host stack client - pkg/nci is the library other hosts embed.`,
	RunE: runRepl,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dialAddr, "listen", "127.0.0.1:7000", "NCI controller address to dial")
	rootCmd.PersistentFlags().DurationVar(&dialTimeout, "dial-timeout", 5*time.Second, "Timeout for the initial TCP dial")
	rootCmd.PersistentFlags().DurationVar(&cmdTimeout, "command-timeout", 2*time.Second, "Timeout for each NCI command")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func printErr(err error) {
	fmt.Printf("Error: %v\n", err)
}
