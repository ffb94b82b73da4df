package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds a 'v' prefix if version starts with a digit.
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rayq",
	Short: "Event-loop adaptation layer CLI and demo harness",
	Long: `rayq drives the event-loop adaptation layer (timers, TCP streams,
idle handles, filesystem operations) described by its core runtime:

- Run a one-shot or periodic timer and watch Timer events arrive
- Echo TCP traffic through the runtime's stream operations
- Stat a file or list a directory through the runtime's filesystem surface
- Run a Lua script against the embedding bridge demo

Each subcommand pumps the same Queue.Next() loop the embedded scripting
runtime is meant to drive.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors.
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(timerCmd)
	rootCmd.AddCommand(tcpEchoCmd)
	rootCmd.AddCommand(fsStatCmd)
	rootCmd.AddCommand(fsReaddirCmd)
	rootCmd.AddCommand(runLuaCmd)

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
