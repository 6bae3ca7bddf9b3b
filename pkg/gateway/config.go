package gateway

import "time"

// Config holds configuration for the gateway server
type Config struct {
	ListenAddr string

	// RateLimitPerMinute is the sustained per-client write rate; 0 disables
	// limiting. Loopback and RateLimitExempt networks are never limited.
	RateLimitPerMinute int
	RateLimitBurst     int
	RateLimitExempt    []string

	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP
	// headers name the client. Any other peer is the client itself.
	TrustedProxies []string

	// RequestTimeout bounds non-write requests; 0 disables the timeout.
	// Writes are excluded because they wait for confirmation.
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Defaults to 15s.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the gateway defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         ":5000",
		RateLimitPerMinute: 0,
		RateLimitBurst:     20,
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    15 * time.Second,
	}
}
