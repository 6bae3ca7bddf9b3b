package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/config"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// parseGatewayConfig builds the configuration.
// Priority: flags > env > YAML file > defaults.
func parseGatewayConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML config file (default ~/.noforma/gateway.yaml if present)")
	addr := fs.String("addr", "", "HTTP listen address (e.g., :5000)")
	provider := fs.String("provider", "", "Primary JSON-RPC endpoint URL")
	contract := fs.String("contract", "", "Record contract address")
	abiFile := fs.String("abi", "", "Path to the contract ABI (JSON array or build artifact)")
	journalPath := fs.String("journal", "", "Submission journal SQLite path (\":memory:\" for in-process)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path := strings.TrimSpace(*configPath)
	if path == "" {
		if p, exists, err := config.DefaultPath("gateway.yaml"); err == nil && exists {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if errs := cfg.ApplyEnv(os.Getenv); len(errs) > 0 {
		return nil, joinErrors("environment", errs)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Gateway.ListenAddr = *addr
		case "provider":
			cfg.Chain.ProviderURL = *provider
		case "contract":
			cfg.Chain.ContractAddress = *contract
		case "abi":
			cfg.Chain.ContractABIFile = *abiFile
		case "journal":
			cfg.Journal.Path = *journalPath
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, joinErrors("configuration", errs)
	}
	return cfg, nil
}

func joinErrors(what string, errs []error) error {
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		lines = append(lines, "  - "+e.Error())
	}
	return fmt.Errorf("invalid %s:\n%s", what, strings.Join(lines, "\n"))
}

func setupLogger(cfg config.LoggingConfig) (*logging.ColoredLogger, error) {
	if cfg.OutputFile != "" {
		return logging.NewFileLogger(logging.ComponentGeneral, cfg.OutputFile, cfg.Level)
	}
	return logging.NewLeveledLogger(logging.ComponentGeneral, cfg.Level, !cfg.NoColor)
}

func logConfig(logger *logging.ColoredLogger, cfg *config.Config) {
	logger.ComponentInfo(logging.ComponentConfig, "Loaded gateway configuration",
		zap.String("addr", cfg.Gateway.ListenAddr),
		zap.Strings("endpoints", cfg.Chain.Candidates()),
		zap.String("contract_address", cfg.Chain.ContractAddress),
		zap.String("from_address", cfg.Chain.FromAddress),
		zap.Bool("private_key_set", cfg.Chain.PrivateKey != ""),
		zap.String("cal_api_key", logging.MaskSecret(cfg.Scheduler.APIKey)),
		zap.String("journal", cfg.Journal.Path),
	)
}
