package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hostgate",
	Short: "Host allow-list enforcement for inbound requests",
	Long:  "Restricts handling of inbound requests to a configured allow-list of\nhostnames and IP addresses, answering everything else with a configurable\ndenial response. Run as a reverse-proxy gate or embed the SDK.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
