package config

import "time"

// GatewayConfig contains HTTP server configuration
type GatewayConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`           // Address to listen on (e.g., ":5000")
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"` // Sustained per-IP write rate; 0 disables limiting
	RateLimitBurst     int           `yaml:"rate_limit_burst"`      // Burst capacity per IP
	RateLimitExempt    []string      `yaml:"rate_limit_exempt"`     // CIDRs never limited, in addition to loopback
	TrustedProxies     []string      `yaml:"trusted_proxies"`       // CIDRs whose X-Forwarded-For is believed
	RequestTimeout     time.Duration `yaml:"request_timeout"`       // Bounds read routes; 0 disables. Writes are never cut off
}

// SchedulerConfig contains the scheduling API (Cal.com) settings.
type SchedulerConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	EventTypeID int           `yaml:"event_type_id"`
	TimeZone    string        `yaml:"time_zone"`
	Timeout     time.Duration `yaml:"timeout"`
}
