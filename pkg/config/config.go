package config

import "time"

// Config represents the full configuration of the gateway process.
type Config struct {
	Chain     ChainConfig     `yaml:"chain"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Journal   JournalConfig   `yaml:"journal"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// JournalConfig configures the submission journal.
type JournalConfig struct {
	Path string `yaml:"path"` // SQLite file path; empty disables the journal, ":memory:" keeps it in process
}

// DefaultFallbackURLs are the public endpoints probed after the primary provider.
var DefaultFallbackURLs = []string{
	"https://eth-sepolia.g.alchemy.com/v2/demo",
	"https://eth-goerli.g.alchemy.com/v2/demo",
	"https://rpc.ankr.com/eth_sepolia",
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Chain: ChainConfig{
			ProviderURL:         "http://localhost:8545",
			FallbackURLs:        append([]string(nil), DefaultFallbackURLs...),
			GasPriceMultiplier:  1.1,
			ProbeTimeout:        5 * time.Second,
			CallTimeout:         30 * time.Second,
			ConfirmationTimeout: 2 * time.Minute,
		},
		Gateway: GatewayConfig{
			ListenAddr:         ":5000",
			RateLimitPerMinute: 0,
			RateLimitBurst:     20,
			RequestTimeout:     30 * time.Second,
		},
		Scheduler: SchedulerConfig{
			BaseURL:     "https://api.cal.com",
			EventTypeID: 2698509,
			TimeZone:    "Asia/Kolkata",
			Timeout:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
