package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/chain"
	"github.com/DeBrosOfficial/noforma/pkg/config"
	"github.com/DeBrosOfficial/noforma/pkg/contracts"
	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/gateway"
	"github.com/DeBrosOfficial/noforma/pkg/journal"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
	"github.com/DeBrosOfficial/noforma/pkg/scheduler"
)

func main() {
	cfg, err := parseGatewayConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logConfig(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.ComponentError(logging.ComponentGeneral, "Gateway stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.ComponentInfo(logging.ComponentGeneral, "Gateway shutdown complete")
}

func run(ctx context.Context, logger *logging.ColoredLogger, cfg *config.Config) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chainMetrics := chain.NewMetrics(registry)

	selector, err := chain.NewProviderSelector(chain.SelectorConfig{
		Candidates:   cfg.Chain.Candidates(),
		ProbeTimeout: cfg.Chain.ProbeTimeout,
	}, logger, chainMetrics)
	if err != nil {
		return apperrors.Wrap(err, "create provider selector")
	}
	defer selector.Close()
	selector.Select(ctx)

	// A contract that fails to bind leaves the gateway running and reporting
	// contract_initialized=false; POST /config can fix it.
	binding := chain.NewRegistry(logger)
	abiJSON, err := chain.LoadABI(cfg.Chain.ContractABIFile)
	if err != nil {
		logger.ComponentError(logging.ComponentContract, "Failed to load contract ABI", zap.Error(err))
	} else if err := binding.Bind(ctx, chain.Options{
		ContractAddress: cfg.Chain.ContractAddress,
		ABI:             abiJSON,
		PrivateKey:      cfg.Chain.PrivateKey,
		FromAddress:     cfg.Chain.FromAddress,
	}); err != nil {
		logger.ComponentError(logging.ComponentContract, "Failed to initialize contract", zap.Error(err))
	}

	deps := gateway.Dependencies{
		Registry: binding,
		Selector: selector,
		Metrics:  registry,
	}

	var recorder contracts.Recorder
	if cfg.Journal.Path != "" {
		store, err := journal.Open(ctx, cfg.Journal.Path, logger)
		if err != nil {
			return apperrors.Wrapf(err, "open submission journal %s", cfg.Journal.Path)
		}
		defer store.Close()
		recorder = store
		deps.Journal = store
	}

	orch := chain.NewOrchestrator(binding, selector, chain.OrchestratorConfig{
		GasLimitCeiling:     cfg.Chain.DefaultGasLimit,
		GasPriceMultiplier:  cfg.Chain.GasPriceMultiplier,
		ConfirmationTimeout: cfg.Chain.ConfirmationTimeout,
	}, recorder, logger, chainMetrics)
	deps.Submitter = orch
	deps.Lookup = orch
	deps.Caller = chain.NewCaller(binding, selector, cfg.Chain.CallTimeout, logger, chainMetrics)

	deps.Scheduler = scheduler.NewClient(scheduler.Config{
		BaseURL:     cfg.Scheduler.BaseURL,
		APIKey:      cfg.Scheduler.APIKey,
		EventTypeID: cfg.Scheduler.EventTypeID,
		TimeZone:    cfg.Scheduler.TimeZone,
		Timeout:     cfg.Scheduler.Timeout,
	}, logger)

	gw, err := gateway.New(logger, gateway.Config{
		ListenAddr:         cfg.Gateway.ListenAddr,
		RateLimitPerMinute: cfg.Gateway.RateLimitPerMinute,
		RateLimitBurst:     cfg.Gateway.RateLimitBurst,
		RateLimitExempt:    cfg.Gateway.RateLimitExempt,
		TrustedProxies:     cfg.Gateway.TrustedProxies,
		RequestTimeout:     cfg.Gateway.RequestTimeout,
	}, deps)
	if err != nil {
		return err
	}
	defer gw.Close()

	return gw.Serve(ctx)
}
