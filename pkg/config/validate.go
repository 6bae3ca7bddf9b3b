package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "chain.contract_address"
	Message string // e.g., "not a hex address"
	Hint    string // e.g., "expected 0x followed by 40 hex characters"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var (
	addressRegex    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	privateKeyRegex = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64}$`)
)

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
func (c *Config) Validate() []error {
	var errs []error
	errs = append(errs, c.validateChain()...)
	errs = append(errs, c.validateGateway()...)
	errs = append(errs, c.validateScheduler()...)
	errs = append(errs, c.validateJournal()...)
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateCrossFields()...)
	return errs
}

func (c *Config) validateChain() []error {
	var errs []error
	cc := c.Chain

	if strings.TrimSpace(cc.ProviderURL) == "" {
		errs = append(errs, ValidationError{
			Path:    "chain.provider_url",
			Message: "must not be empty",
			Hint:    "set WEB3_PROVIDER_URL, e.g. http://localhost:8545",
		})
	}
	for i, u := range cc.Candidates() {
		if err := validateEndpointURL(u); err != nil {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("chain.candidates[%d]", i),
				Message: err.Error(),
				Hint:    "expected http(s):// or ws(s):// URL",
			})
		}
	}

	// Address and key are optional: the gateway starts unbound and reports
	// "Contract not initialized" until they are configured.
	if cc.ContractAddress != "" && !addressRegex.MatchString(cc.ContractAddress) {
		errs = append(errs, ValidationError{
			Path:    "chain.contract_address",
			Message: "not a hex address",
			Hint:    "expected 0x followed by 40 hex characters",
		})
	}
	if cc.FromAddress != "" && !addressRegex.MatchString(cc.FromAddress) {
		errs = append(errs, ValidationError{
			Path:    "chain.from_address",
			Message: "not a hex address",
			Hint:    "expected 0x followed by 40 hex characters",
		})
	}
	if cc.PrivateKey != "" && !privateKeyRegex.MatchString(cc.PrivateKey) {
		errs = append(errs, ValidationError{
			Path:    "chain.private_key",
			Message: "not a 32-byte hex key",
		})
	}
	if cc.ContractABIFile != "" {
		if _, err := os.Stat(cc.ContractABIFile); err != nil {
			errs = append(errs, ValidationError{
				Path:    "chain.contract_abi_file",
				Message: fmt.Sprintf("cannot read: %v", err),
			})
		}
	}
	if cc.GasPriceMultiplier <= 0 {
		errs = append(errs, ValidationError{
			Path:    "chain.gas_price_multiplier",
			Message: fmt.Sprintf("must be > 0; got %v", cc.GasPriceMultiplier),
		})
	}
	if cc.ProbeTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "chain.probe_timeout",
			Message: "must be > 0",
		})
	}
	if cc.ConfirmationTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "chain.confirmation_timeout",
			Message: "must be > 0",
			Hint:    "confirmation waits are always bounded",
		})
	}
	return errs
}

func (c *Config) validateGateway() []error {
	var errs []error
	gc := c.Gateway

	if _, port, err := net.SplitHostPort(gc.ListenAddr); err != nil || port == "" {
		errs = append(errs, ValidationError{
			Path:    "gateway.listen_addr",
			Message: fmt.Sprintf("invalid listen address %q", gc.ListenAddr),
			Hint:    "expected host:port or :port",
		})
	}
	if gc.RateLimitPerMinute < 0 {
		errs = append(errs, ValidationError{
			Path:    "gateway.rate_limit_per_minute",
			Message: "must be >= 0",
		})
	}
	if gc.RateLimitPerMinute > 0 && gc.RateLimitBurst < 1 {
		errs = append(errs, ValidationError{
			Path:    "gateway.rate_limit_burst",
			Message: "must be >= 1 when rate limiting is enabled",
		})
	}
	errs = append(errs, validateNetworks("gateway.rate_limit_exempt", gc.RateLimitExempt)...)
	errs = append(errs, validateNetworks("gateway.trusted_proxies", gc.TrustedProxies)...)
	return errs
}

func validateNetworks(path string, cidrs []string) []error {
	var errs []error
	for i, cidr := range cidrs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("%s[%d]", path, i),
				Message: fmt.Sprintf("invalid network %q", cidr),
				Hint:    "expected CIDR notation, e.g. 10.0.0.0/8",
			})
		}
	}
	return errs
}

func (c *Config) validateScheduler() []error {
	var errs []error
	if _, err := url.ParseRequestURI(c.Scheduler.BaseURL); err != nil {
		errs = append(errs, ValidationError{
			Path:    "scheduler.base_url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	}
	if c.Scheduler.EventTypeID <= 0 {
		errs = append(errs, ValidationError{
			Path:    "scheduler.event_type_id",
			Message: "must be > 0",
		})
	}
	return errs
}

func (c *Config) validateJournal() []error {
	p := c.Journal.Path
	if p == "" || p == ":memory:" {
		return nil
	}
	dir := filepath.Dir(p)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// Created at startup.
			return nil
		}
		return []error{ValidationError{
			Path:    "journal.path",
			Message: fmt.Sprintf("parent directory not accessible: %v", err),
		}}
	}
	if !info.IsDir() {
		return []error{ValidationError{
			Path:    "journal.path",
			Message: fmt.Sprintf("parent %s is not a directory", dir),
		}}
	}
	return nil
}

func (c *Config) validateLogging() []error {
	var errs []error
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: err.Error(),
			Hint:    "one of debug, info, warn, error",
		})
	}
	if f := c.Logging.Format; f != "" && f != "console" {
		errs = append(errs, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("unsupported format %q", f),
			Hint:    "only console is supported",
		})
	}
	return errs
}

func (c *Config) validateCrossFields() []error {
	var errs []error
	if (c.Chain.PrivateKey == "") != (c.Chain.FromAddress == "") {
		errs = append(errs, ValidationError{
			Path:    "chain.private_key",
			Message: "private_key and from_address must be set together",
		})
	}
	if rt := c.Gateway.RequestTimeout; rt > 0 && rt < c.Chain.CallTimeout {
		errs = append(errs, ValidationError{
			Path:    "gateway.request_timeout",
			Message: fmt.Sprintf("%s is shorter than chain.call_timeout %s", rt, c.Chain.CallTimeout),
			Hint:    "reads would be cut off before the call timeout applies",
		})
	}
	return errs
}

func validateEndpointURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
