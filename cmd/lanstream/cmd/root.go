package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lanstream",
	Short: "LAN-local message and file relay",
	Long: `lanstream relays text messages and files between devices on the same
local network. Every connected client sees every message, and the full
history survives restarts.

Available commands:
  serve    Start the relay server

Use "lanstream [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
