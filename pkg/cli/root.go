// Package cli implements the noforma operator command line.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// Options are the persistent flags shared by every command.
type Options struct {
	ConfigPath string
	GatewayURL string
	Timeout    time.Duration
}

// NewRootCmd builds the command tree. version is printed by "version".
func NewRootCmd(version string) *cobra.Command {
	opts := &Options{}
	root := &cobra.Command{
		Use:           "noforma",
		Short:         "Operate the noforma contract gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to the gateway YAML config (default ~/.noforma/gateway.yaml if present)")
	root.PersistentFlags().StringVar(&opts.GatewayURL, "gateway", "http://localhost:5000", "Base URL of a running gateway")
	root.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Timeout for network operations")

	root.AddCommand(
		newProbeCmd(opts),
		newABICmd(),
		newConfigCmd(opts),
		newStatusCmd(opts),
		newTransactionsCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "noforma %s\n", version)
			},
		},
	)
	return root
}
