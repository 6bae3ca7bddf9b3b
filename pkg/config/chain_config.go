package config

import (
	"strings"
	"time"
)

// ChainConfig contains the network endpoint, contract and signer settings.
type ChainConfig struct {
	ProviderURL     string   `yaml:"provider_url"`      // Primary JSON-RPC endpoint, probed first
	FallbackURLs    []string `yaml:"fallback_urls"`     // Public endpoints probed in order after the primary
	ContractAddress string   `yaml:"contract_address"`  // Deployed record contract
	ContractABIFile string   `yaml:"contract_abi_file"` // Empty uses the built-in record contract ABI
	PrivateKey      string   `yaml:"private_key"`       // Hex signing key (0x prefix optional)
	FromAddress     string   `yaml:"from_address"`      // Sender address matching PrivateKey

	DefaultGasLimit    uint64  `yaml:"default_gas_limit"`    // Ceiling for gas estimates; 0 disables
	GasPriceMultiplier float64 `yaml:"gas_price_multiplier"` // Applied to the suggested gas price

	ProbeTimeout        time.Duration `yaml:"probe_timeout"`        // Per-candidate liveness probe
	CallTimeout         time.Duration `yaml:"call_timeout"`         // Read-only calls
	ConfirmationTimeout time.Duration `yaml:"confirmation_timeout"` // Bounded wait for a receipt
}

// Candidates returns the primary URL followed by the fallbacks, without
// blanks or duplicates.
func (c ChainConfig) Candidates() []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range append([]string{c.ProviderURL}, c.FallbackURLs...) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
