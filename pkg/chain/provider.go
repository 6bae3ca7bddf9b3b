package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/contracts"
	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// Dialer opens a backend for an endpoint URL.
type Dialer func(ctx context.Context, url string) (contracts.Backend, error)

// DialEthclient dials url with go-ethereum's JSON-RPC client.
func DialEthclient(ctx context.Context, url string) (contracts.Backend, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Endpoint is a snapshot of a network endpoint and what was learnt from it
// on the last probe.
type Endpoint struct {
	URL         string    `json:"url"`
	Live        bool      `json:"live"`
	ChainID     uint64    `json:"chain_id,omitempty"`
	NetworkID   uint64    `json:"network_id,omitempty"`
	LatestBlock uint64    `json:"latest_block,omitempty"`
	GasPrice    *big.Int  `json:"gas_price,omitempty"`
	ProbedAt    time.Time `json:"probed_at"`
	Error       string    `json:"error,omitempty"`
}

// SelectorConfig configures a ProviderSelector.
type SelectorConfig struct {
	// Candidates in priority order; the first one is the primary.
	Candidates []string
	// ProbeTimeout bounds each dial+probe. Defaults to 5s.
	ProbeTimeout time.Duration
	// ReselectInterval is the minimum time between full selection passes
	// triggered by EnsureLive. Defaults to 30s.
	ReselectInterval time.Duration
	// Dial defaults to DialEthclient.
	Dial Dialer
}

// ProviderSelector picks the first live endpoint from an ordered candidate
// list and keeps it as the active provider.
type ProviderSelector struct {
	candidates       []string
	probeTimeout     time.Duration
	reselectInterval time.Duration
	dial             Dialer
	logger           *logging.ColoredLogger
	metrics          *Metrics

	mu           sync.RWMutex
	active       Endpoint
	backend      contracts.Backend
	lastSelected time.Time
	// leases counts callers still using a backend; a replaced backend with
	// leases is retired and closed when the last one is released.
	leases  map[contracts.Backend]int
	retired map[contracts.Backend]bool
}

// NewProviderSelector creates a selector. Call Select before use.
func NewProviderSelector(cfg SelectorConfig, logger *logging.ColoredLogger, metrics *Metrics) (*ProviderSelector, error) {
	if len(cfg.Candidates) == 0 {
		return nil, fmt.Errorf("at least one endpoint candidate is required")
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.ReselectInterval <= 0 {
		cfg.ReselectInterval = 30 * time.Second
	}
	if cfg.Dial == nil {
		cfg.Dial = DialEthclient
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ProviderSelector{
		candidates:       append([]string(nil), cfg.Candidates...),
		probeTimeout:     cfg.ProbeTimeout,
		reselectInterval: cfg.ReselectInterval,
		dial:             cfg.Dial,
		logger:           logger,
		metrics:          metrics,
		active:           Endpoint{URL: cfg.Candidates[0]},
		leases:           map[contracts.Backend]int{},
		retired:          map[contracts.Backend]bool{},
	}, nil
}

// Candidates returns the endpoint URLs in probe order.
func (s *ProviderSelector) Candidates() []string {
	return append([]string(nil), s.candidates...)
}

// Select probes every candidate in order, once each, and activates the first
// live one. A probe error is logged and the next candidate tried. When every
// candidate fails the primary is activated with Live=false so the process can
// still start and report itself disconnected.
func (s *ProviderSelector) Select(ctx context.Context) Endpoint {
	for _, url := range s.candidates {
		ep, backend, err := s.probeURL(ctx, url)
		if err != nil {
			s.logger.ComponentWarn(logging.ComponentChain, "Endpoint probe failed",
				zap.String("url", url), zap.Error(err))
			continue
		}
		s.logger.ComponentInfo(logging.ComponentChain, "Connected to network endpoint",
			zap.String("url", url), zap.Uint64("chain_id", ep.ChainID))
		s.activate(ep, backend)
		return ep
	}

	primary := s.candidates[0]
	s.logger.ComponentError(logging.ComponentChain, "All endpoint probes failed; using primary without a connection",
		zap.String("url", primary), zap.Int("candidates", len(s.candidates)))

	ep := Endpoint{URL: primary, ProbedAt: time.Now(), Error: "all endpoint probes failed"}
	dctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	backend, err := s.dial(dctx, primary)
	cancel()
	if err != nil {
		backend = nil
	}
	s.activate(ep, backend)
	return ep
}

func (s *ProviderSelector) probeURL(ctx context.Context, url string) (Endpoint, contracts.Backend, error) {
	pctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	backend, err := s.dial(pctx, url)
	if err != nil {
		s.metrics.observeProbe(false)
		return Endpoint{}, nil, fmt.Errorf("dial: %w", err)
	}
	chainID, err := backend.ChainID(pctx)
	if err != nil {
		backend.Close()
		s.metrics.observeProbe(false)
		return Endpoint{}, nil, fmt.Errorf("chain id: %w", err)
	}
	s.metrics.observeProbe(true)
	return Endpoint{URL: url, Live: true, ChainID: chainID.Uint64(), ProbedAt: time.Now()}, backend, nil
}

func (s *ProviderSelector) activate(ep Endpoint, backend contracts.Backend) {
	s.mu.Lock()
	old := s.backend
	s.active = ep
	s.backend = backend
	s.lastSelected = time.Now()
	closeOld := old != nil && old != backend && s.retireLocked(old)
	s.mu.Unlock()

	if closeOld {
		old.Close()
	}
	s.metrics.setLive(ep.Live)
}

// retireLocked reports whether b can be closed now. A leased backend is
// marked retired instead and closed by its last release.
func (s *ProviderSelector) retireLocked(b contracts.Backend) bool {
	if s.leases[b] > 0 {
		s.retired[b] = true
		return false
	}
	return true
}

// Active returns the active endpoint as of the last probe.
func (s *ProviderSelector) Active() Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Backend returns the backend of the active endpoint, which may be nil when
// even the fallback dial failed.
func (s *ProviderSelector) Backend() contracts.Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

// Probe re-checks the active endpoint and gathers network metadata. Metadata
// failures are reported in Endpoint.Error without marking the endpoint down.
func (s *ProviderSelector) Probe(ctx context.Context) Endpoint {
	s.mu.RLock()
	ep, backend := s.active, s.backend
	s.mu.RUnlock()

	pctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	if backend == nil {
		b, err := s.dial(pctx, ep.URL)
		if err != nil {
			ep.Live = false
			ep.Error = err.Error()
			ep.ProbedAt = time.Now()
			s.metrics.observeProbe(false)
			s.store(ep, nil)
			return ep
		}
		backend = b
	}

	ep.ProbedAt = time.Now()
	ep.Error = ""
	chainID, err := backend.ChainID(pctx)
	if err != nil {
		ep.Live = false
		ep.Error = err.Error()
		s.metrics.observeProbe(false)
		s.store(ep, backend)
		return ep
	}
	ep.Live = true
	ep.ChainID = chainID.Uint64()
	s.metrics.observeProbe(true)

	if id, err := backend.NetworkID(pctx); err == nil {
		ep.NetworkID = id.Uint64()
	} else {
		ep.Error = fmt.Sprintf("failed to get network info: %v", err)
	}
	if n, err := backend.BlockNumber(pctx); err == nil {
		ep.LatestBlock = n
	} else if ep.Error == "" {
		ep.Error = fmt.Sprintf("failed to get network info: %v", err)
	}
	if price, err := backend.SuggestGasPrice(pctx); err == nil {
		ep.GasPrice = price
	} else if ep.Error == "" {
		ep.Error = fmt.Sprintf("failed to get network info: %v", err)
	}

	s.store(ep, backend)
	return ep
}

// store updates the active endpoint unless a concurrent Select replaced it.
func (s *ProviderSelector) store(ep Endpoint, backend contracts.Backend) {
	s.mu.Lock()
	if s.active.URL != ep.URL {
		closeNow := backend != nil && backend != s.backend && !s.retired[backend] && s.retireLocked(backend)
		s.mu.Unlock()
		if closeNow {
			backend.Close()
		}
		return
	}
	s.active = ep
	if s.backend == nil {
		s.backend = backend
	}
	s.mu.Unlock()
	s.metrics.setLive(ep.Live)
}

// EnsureLive returns the active backend if the endpoint is live. A down
// endpoint is re-probed once; if the last full selection is older than the
// reselect interval every candidate is tried again. Still down yields an
// EndpointUnreachableError.
func (s *ProviderSelector) EnsureLive(ctx context.Context) (contracts.Backend, error) {
	s.mu.RLock()
	live, backend, lastSelected := s.active.Live, s.backend, s.lastSelected
	s.mu.RUnlock()
	if live && backend != nil {
		return backend, nil
	}

	var ep Endpoint
	if time.Since(lastSelected) >= s.reselectInterval {
		ep = s.Select(ctx)
	} else {
		ep = s.Probe(ctx)
	}
	if ep.Live {
		if b := s.Backend(); b != nil {
			return b, nil
		}
	}
	return nil, apperrors.NewEndpointUnreachableError(s.Candidates(), errors.New(ep.Error))
}

// Lease is EnsureLive for callers that keep using the backend across a
// possible reselect, such as a confirmation wait. The backend stays open
// until release is called even if another endpoint is activated meanwhile.
func (s *ProviderSelector) Lease(ctx context.Context) (contracts.Backend, func(), error) {
	for {
		backend, err := s.EnsureLive(ctx)
		if err != nil {
			return nil, nil, err
		}
		s.mu.Lock()
		if s.backend == backend {
			s.leases[backend]++
			s.mu.Unlock()
			var once sync.Once
			return backend, func() { once.Do(func() { s.release(backend) }) }, nil
		}
		s.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return nil, nil, apperrors.NewEndpointUnreachableError(s.Candidates(), err)
		}
	}
}

func (s *ProviderSelector) release(b contracts.Backend) {
	s.mu.Lock()
	s.leases[b]--
	closeNow := false
	if s.leases[b] <= 0 {
		delete(s.leases, b)
		closeNow = s.retired[b]
		delete(s.retired, b)
	}
	s.mu.Unlock()
	if closeNow {
		b.Close()
	}
}

// MarkDown flags the active endpoint as down after a transport failure so
// the next operation re-probes instead of reusing it.
func (s *ProviderSelector) MarkDown(cause error) {
	s.mu.Lock()
	wasLive := s.active.Live
	s.active.Live = false
	if cause != nil {
		s.active.Error = cause.Error()
	}
	url := s.active.URL
	s.mu.Unlock()

	if wasLive {
		s.logger.ComponentWarn(logging.ComponentChain, "Active endpoint marked down",
			zap.String("url", url), zap.Error(cause))
	}
	s.metrics.setLive(false)
}

// Close releases the active backend.
func (s *ProviderSelector) Close() {
	s.mu.Lock()
	backend := s.backend
	s.backend = nil
	s.mu.Unlock()
	if backend != nil {
		backend.Close()
	}
}
