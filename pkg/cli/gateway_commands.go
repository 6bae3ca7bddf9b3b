package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and contract state of a running gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result map[string]any
			if err := getJSON(cmd, opts, "/", &result); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:               %v\n", result["status"])
			fmt.Fprintf(out, "Connected:            %v\n", result["web3_connected"])
			fmt.Fprintf(out, "Active provider:      %v\n", result["active_provider"])
			fmt.Fprintf(out, "Contract initialized: %v\n", result["contract_initialized"])
			fmt.Fprintf(out, "Contract address:     %v\n", result["contract_address"])
			if info, ok := result["network_info"].(map[string]any); ok && len(info) > 0 {
				if e, ok := info["error"]; ok {
					fmt.Fprintf(out, "Network info:         %v\n", e)
				} else {
					fmt.Fprintf(out, "Chain ID:             %v\n", info["chain_id"])
					fmt.Fprintf(out, "Latest block:         %v\n", info["latest_block"])
				}
			}
			return nil
		},
	}
}

func newTransactionsCmd(opts *Options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txs"},
		Short:   "List recent submissions from the gateway journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
				Data    []struct {
					ID        string    `json:"id"`
					Function  string    `json:"function"`
					Status    string    `json:"status"`
					TxHash    string    `json:"transaction_hash"`
					Error     string    `json:"error"`
					CreatedAt time.Time `json:"created_at"`
				} `json:"data"`
			}
			if err := getJSON(cmd, opts, fmt.Sprintf("/transactions?limit=%d", limit), &result); err != nil {
				return err
			}
			if len(result.Data) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No submissions found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tFUNCTION\tSTATUS\tTX HASH\tCREATED")
			for _, e := range result.Data {
				hash := e.TxHash
				if hash == "" {
					hash = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Function, e.Status, hash, e.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show")
	return cmd
}

// getJSON fetches path from the gateway and decodes the body into out.
func getJSON(cmd *cobra.Command, opts *Options, path string, out any) error {
	url := strings.TrimRight(opts.GatewayURL, "/") + path
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: opts.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, envelope.Error)
		}
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}
