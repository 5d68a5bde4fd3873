// Command feedback runs the reference collector and drives the capture
// client from the command line against a headless Chrome.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bluefermion/feedback-capture/cmd/feedback/commands"
	"github.com/bluefermion/feedback-capture/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Feedback capture client and collector",
	Long: `Feedback capture client and collector.

Available commands:
  serve    - Start the collector that receives feedback payloads
  snapshot - Take an environment snapshot of a page in headless Chrome
  send     - Submit feedback for a page through the capture client
  version  - Show version information

Configuration is read from FEEDBACK_* environment variables and an optional
.env file; flags override both.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		debug, _ := cmd.Flags().GetBool("debug")
		if err := logger.Initialize(jsonLogs, debug); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return commands.BindFlags(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.SnapshotCmd)
	rootCmd.AddCommand(commands.SendCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
