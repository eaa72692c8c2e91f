// Package cmd contains the CLI commands.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// rootCmd represents the base command for the syncgate application.
var rootCmd = &cobra.Command{
	Use:   "syncgate",
	Short: "Google account connections and calendar sync for client onboarding",
	Long: `syncgate manages per-user Google account connections and mirrors
client appointments into each user's Google Calendar on a schedule.

It can run as:
  - A long-lived service with the HTTP API and scheduled jobs (serve)
  - A one-off job execution for operations work (run)`,
	SilenceUsage: true,
}

// version will be set by main.
var version = "dev"

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "syncgate version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRunCmd())
}
