// Package gateway exposes the record contract, the submission journal and
// the scheduling proxy over HTTP.
package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/chain"
	"github.com/DeBrosOfficial/noforma/pkg/contracts"
	"github.com/DeBrosOfficial/noforma/pkg/entities"
	"github.com/DeBrosOfficial/noforma/pkg/journal"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
	"github.com/DeBrosOfficial/noforma/pkg/scheduler"
)

// TxLookup reports the on-chain state of a broadcast transaction.
type TxLookup interface {
	Lookup(ctx context.Context, txHash string) (*contracts.TxStatus, error)
}

// JournalReader is the read side of the submission journal.
type JournalReader interface {
	Get(ctx context.Context, id string) (*journal.Entry, error)
	FindByTxHash(ctx context.Context, txHash string) (*journal.Entry, error)
	List(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Dependencies are the collaborators the gateway serves. Journal, Lookup and
// Scheduler are optional; their routes answer 503 when unset.
type Dependencies struct {
	Registry  *chain.Registry
	Selector  *chain.ProviderSelector
	Submitter contracts.Submitter
	Caller    contracts.Caller
	Lookup    TxLookup
	Journal   JournalReader
	Scheduler *scheduler.Client
	// Metrics is exposed on /metrics. A nil registry disables the route.
	Metrics *prometheus.Registry
}

type Gateway struct {
	logger    *logging.ColoredLogger
	cfg       Config
	deps      Dependencies
	startedAt time.Time

	knowledgeBase *entities.KnowledgeBaseService
	customers     *entities.CustomerService
	projects      *entities.ProjectService

	rateLimiter    *RateLimiter
	trustedProxies []*net.IPNet
	metrics        *httpMetrics
	router         http.Handler

	server *http.Server
	stop   chan struct{}
}

// New creates and initializes a new Gateway instance
func New(logger *logging.ColoredLogger, cfg Config, deps Dependencies) (*Gateway, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if deps.Registry == nil || deps.Selector == nil {
		return nil, errors.New("gateway: registry and provider selector are required")
	}
	if deps.Submitter == nil || deps.Caller == nil {
		return nil, errors.New("gateway: submitter and caller are required")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultConfig().ListenAddr
	}

	gw := &Gateway{
		logger:        logger,
		cfg:           cfg,
		deps:          deps,
		startedAt:     time.Now(),
		knowledgeBase: entities.NewKnowledgeBaseService(deps.Submitter, deps.Caller),
		customers:     entities.NewCustomerService(deps.Submitter, deps.Caller),
		projects:      entities.NewProjectService(deps.Submitter, deps.Caller),
		stop:          make(chan struct{}),
	}

	trusted, err := parseNetworks("trusted proxy", cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	gw.trustedProxies = trusted

	if cfg.RateLimitPerMinute > 0 {
		rl, err := NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, cfg.RateLimitExempt)
		if err != nil {
			return nil, err
		}
		gw.rateLimiter = rl
		gw.rateLimiter.StartCleanup(time.Minute, 10*time.Minute, gw.stop)
	}
	if deps.Metrics != nil {
		gw.metrics = newHTTPMetrics(deps.Metrics)
	}
	gw.router = gw.Routes()

	logger.ComponentInfo(logging.ComponentGateway, "Gateway created",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Int("rate_limit_per_minute", cfg.RateLimitPerMinute),
		zap.Bool("journal", deps.Journal != nil),
		zap.Bool("scheduler", deps.Scheduler != nil && deps.Scheduler.Configured()))
	return gw, nil
}

// Handler returns the fully wired router.
func (g *Gateway) Handler() http.Handler {
	return g.router
}
