package gateway

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
)

// RateLimiter meters state-changing requests per client. Each admitted write
// signs and pays for a transaction and holds the submission lane until it is
// confirmed, so reads are never metered.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	perSec  float64
	burst   float64
	exempt  []*net.IPNet
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter creates a limiter admitting perMinute writes per client with
// the given burst. Clients inside any of the exempt CIDRs, and loopback
// clients, are never limited.
func NewRateLimiter(perMinute, burst int, exempt []string) (*RateLimiter, error) {
	if burst <= 0 {
		burst = perMinute
	}
	nets, err := parseNetworks("rate limit exempt", exempt)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		clients: make(map[string]*bucket),
		perSec:  float64(perMinute) / 60,
		burst:   float64(burst),
		exempt:  nets,
	}, nil
}

func parseNetworks(what string, cidrs []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, cidr := range cidrs {
		_, n, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("%s network %q: %w", what, cidr, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

func containsIP(nets []*net.IPNet, addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Allow takes one token for client. When the bucket is empty it returns the
// time until the next token.
func (rl *RateLimiter) Allow(client string) (bool, time.Duration) {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[client]
	if !ok {
		b = &bucket{tokens: rl.burst, seen: now}
		rl.clients[client] = b
	}
	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.seen).Seconds()*rl.perSec)
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if rl.perSec <= 0 {
		return false, time.Minute
	}
	return false, time.Duration((1 - b.tokens) / rl.perSec * float64(time.Second))
}

// Exempt reports whether client is never limited.
func (rl *RateLimiter) Exempt(client string) bool {
	ip := net.ParseIP(stripPort(client))
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || containsIP(rl.exempt, ip.String())
}

// Cleanup forgets clients idle for longer than maxAge.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for client, b := range rl.clients {
		if b.seen.Before(cutoff) {
			delete(rl.clients, client)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed.
func (rl *RateLimiter) StartCleanup(interval, maxAge time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup(maxAge)
			case <-stop:
				return
			}
		}
	}()
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// rateLimitMiddleware answers 429 with Retry-After once a client has used up
// its write budget. The client is the TCP peer unless that peer is a trusted
// proxy.
func (g *Gateway) rateLimitMiddleware(next http.Handler) http.Handler {
	if g.rateLimiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isWrite(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		client := getClientIP(r, g.trustedProxies)
		if g.rateLimiter.Exempt(client) {
			next.ServeHTTP(w, r)
			return
		}
		if ok, wait := g.rateLimiter.Allow(stripPort(client)); !ok {
			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			apperrors.WriteHTTPError(w,
				apperrors.NewRateLimitError(g.cfg.RateLimitPerMinute, retryAfter),
				middleware.GetReqID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
