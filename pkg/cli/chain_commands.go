package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/noforma/pkg/chain"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// dialer is swapped by tests.
var dialer chain.Dialer = chain.DialEthclient

func newProbeCmd(opts *Options) *cobra.Command {
	var providers []string
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Select the first live network endpoint and print its state",
		Long: "Probes the configured provider and fallbacks in order, exactly as the gateway does at startup, " +
			"and prints the endpoint it would use.",
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates := providers
			if len(candidates) == 0 {
				cfg, err := loadConfig(opts.ConfigPath)
				if err != nil {
					return err
				}
				candidates = cfg.Chain.Candidates()
			}

			sel, err := chain.NewProviderSelector(chain.SelectorConfig{
				Candidates:   candidates,
				ProbeTimeout: opts.Timeout,
				Dial:         dialer,
			}, logging.NewNopLogger(), nil)
			if err != nil {
				return err
			}
			defer sel.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout*2)
			defer cancel()
			ep := sel.Select(ctx)
			if ep.Live {
				ep = sel.Probe(ctx)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "URL\tLIVE\tCHAIN ID\tNETWORK ID\tLATEST BLOCK\tGAS PRICE")
			gasPrice := "-"
			if ep.GasPrice != nil {
				gasPrice = ep.GasPrice.String()
			}
			fmt.Fprintf(w, "%s\t%t\t%d\t%d\t%d\t%s\n", ep.URL, ep.Live, ep.ChainID, ep.NetworkID, ep.LatestBlock, gasPrice)
			if err := w.Flush(); err != nil {
				return err
			}
			if !ep.Live {
				return fmt.Errorf("no live endpoint among %d candidate(s)", len(candidates))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&providers, "provider", nil, "Endpoint URL to probe (repeatable); overrides the config")
	return cmd
}

func newABICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abi [file]",
		Short: "List the functions of a contract ABI",
		Long:  "Parses an ABI (JSON array or build artifact) and lists its functions. Without a file the built-in record contract ABI is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			text, err := chain.LoadABI(path)
			if err != nil {
				return err
			}
			parsed, err := chain.ParseABI(text)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tSIGNATURE")
			for _, fn := range chain.Functions(parsed) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", fn.Name, fn.Kind, fn.Signature)
			}
			return w.Flush()
		},
	}
}
