package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.Getenv; blank values are ignored. Parse failures are collected and
// returned together.
func (c *Config) ApplyEnv(lookup func(string) string) []error {
	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			*dst = v
		}
	}

	str("WEB3_PROVIDER_URL", &c.Chain.ProviderURL)
	str("CONTRACT_ADDRESS", &c.Chain.ContractAddress)
	str("CONTRACT_ABI_FILE", &c.Chain.ContractABIFile)
	str("PRIVATE_KEY", &c.Chain.PrivateKey)
	str("FROM_ADDRESS", &c.Chain.FromAddress)
	str("GATEWAY_ADDR", &c.Gateway.ListenAddr)
	str("CAL_API_KEY", &c.Scheduler.APIKey)
	str("CAL_BASE_URL", &c.Scheduler.BaseURL)
	str("JOURNAL_PATH", &c.Journal.Path)
	str("LOG_LEVEL", &c.Logging.Level)

	if v := strings.TrimSpace(lookup("FALLBACK_PROVIDER_URLS")); v != "" {
		c.Chain.FallbackURLs = splitList(v)
	}
	if v := strings.TrimSpace(lookup("DEFAULT_GAS_LIMIT")); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, envError("DEFAULT_GAS_LIMIT", v, err))
		} else {
			c.Chain.DefaultGasLimit = n
		}
	}
	if v := strings.TrimSpace(lookup("GAS_PRICE_MULTIPLIER")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, envError("GAS_PRICE_MULTIPLIER", v, err))
		} else {
			c.Chain.GasPriceMultiplier = f
		}
	}
	if v := strings.TrimSpace(lookup("CONFIRMATION_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, envError("CONFIRMATION_TIMEOUT", v, err))
		} else {
			c.Chain.ConfirmationTimeout = d
		}
	}
	if v := strings.TrimSpace(lookup("CAL_EVENT_ID")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, envError("CAL_EVENT_ID", v, err))
		} else {
			c.Scheduler.EventTypeID = n
		}
	}
	return errs
}

func envError(key, value string, err error) error {
	return ValidationError{
		Path:    "env." + key,
		Message: fmt.Sprintf("cannot parse %q: %v", value, err),
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
