package chain

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/noforma/pkg/contracts"
	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
)

// scriptedDialer returns per-URL backends or errors and records every dial.
type scriptedDialer struct {
	mu       sync.Mutex
	backends map[string]*fakeBackend
	errs     map[string]error
	dialed   []string
}

func (d *scriptedDialer) dial(ctx context.Context, url string) (contracts.Backend, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialed = append(d.dialed, url)
	if err, ok := d.errs[url]; ok {
		return nil, err
	}
	if b, ok := d.backends[url]; ok {
		return b, nil
	}
	return nil, errors.New("no such host")
}

func (d *scriptedDialer) dials() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dialed...)
}

func TestSelectPicksFirstLiveCandidate(t *testing.T) {
	refusing := newFakeBackend(t)
	refusing.chainErr = errors.New("connection refused")
	live := newFakeBackend(t)
	alsoLive := newFakeBackend(t)

	d := &scriptedDialer{
		backends: map[string]*fakeBackend{"http://b": refusing, "http://c": live, "http://d": alsoLive},
		errs:     map[string]error{"http://a": errors.New("tls: handshake failure")},
	}
	sel, err := NewProviderSelector(SelectorConfig{
		Candidates: []string{"http://a", "http://b", "http://c", "http://d"},
		Dial:       d.dial,
	}, nil, nil)
	require.NoError(t, err)

	ep := sel.Select(context.Background())
	assert.Equal(t, "http://c", ep.URL)
	assert.True(t, ep.Live)
	assert.Equal(t, uint64(11155111), ep.ChainID)
	assert.Equal(t, []string{"http://a", "http://b", "http://c"}, d.dials(), "each failing candidate is probed once and skipped")
	assert.True(t, refusing.closed, "a failed probe releases its backend")
	assert.Equal(t, "http://c", sel.Active().URL)
}

func TestSelectFallsBackToPrimaryWhenAllFail(t *testing.T) {
	d := &scriptedDialer{errs: map[string]error{
		"http://primary": errors.New("dial tcp: connection refused"),
		"http://backup":  errors.New("no such host"),
	}}
	sel, err := NewProviderSelector(SelectorConfig{
		Candidates: []string{"http://primary", "http://backup"},
		Dial:       d.dial,
	}, nil, nil)
	require.NoError(t, err)

	ep := sel.Select(context.Background())
	assert.Equal(t, "http://primary", ep.URL)
	assert.False(t, ep.Live)
	assert.Nil(t, sel.Backend())

	_, err = sel.EnsureLive(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsEndpointUnreachable(err))

	var ue *apperrors.EndpointUnreachableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, []string{"http://primary", "http://backup"}, ue.Endpoints)
}

func TestProbeCollectsNetworkInfo(t *testing.T) {
	fb := newFakeBackend(t)
	d := &scriptedDialer{backends: map[string]*fakeBackend{"http://node": fb}}
	sel, err := NewProviderSelector(SelectorConfig{Candidates: []string{"http://node"}, Dial: d.dial}, nil, nil)
	require.NoError(t, err)
	sel.Select(context.Background())

	ep := sel.Probe(context.Background())
	assert.True(t, ep.Live)
	assert.Equal(t, uint64(11155111), ep.NetworkID)
	assert.Equal(t, uint64(4242), ep.LatestBlock)
	require.NotNil(t, ep.GasPrice)
	assert.Equal(t, "10000000000", ep.GasPrice.String())
	assert.Empty(t, ep.Error)
}

func TestEnsureLiveRecoversAfterMarkDown(t *testing.T) {
	fb := newFakeBackend(t)
	d := &scriptedDialer{backends: map[string]*fakeBackend{"http://node": fb}}
	sel, err := NewProviderSelector(SelectorConfig{Candidates: []string{"http://node"}, Dial: d.dial}, nil, nil)
	require.NoError(t, err)
	sel.Select(context.Background())

	sel.MarkDown(errors.New("read: connection reset by peer"))
	assert.False(t, sel.Active().Live)

	backend, err := sel.EnsureLive(context.Background())
	require.NoError(t, err)
	assert.Same(t, fb, backend.(*fakeBackend))
	assert.True(t, sel.Active().Live)
}

func TestNewProviderSelectorRequiresCandidates(t *testing.T) {
	_, err := NewProviderSelector(SelectorConfig{}, nil, nil)
	assert.Error(t, err)
}

func TestLeaseDefersCloseOfReplacedBackend(t *testing.T) {
	first := newFakeBackend(t)
	second := newFakeBackend(t)
	refusing := newFakeBackend(t)
	refusing.chainErr = errors.New("connection refused")

	// Every dial opens a new connection; ws://a refuses after the first one.
	var mu sync.Mutex
	dialed := map[string]int{}
	dial := func(ctx context.Context, url string) (contracts.Backend, error) {
		mu.Lock()
		defer mu.Unlock()
		dialed[url]++
		switch {
		case url == "ws://a" && dialed[url] == 1:
			return first, nil
		case url == "ws://a":
			return refusing, nil
		default:
			return second, nil
		}
	}
	sel, err := NewProviderSelector(SelectorConfig{Candidates: []string{"ws://a", "ws://b"}, Dial: dial}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "ws://a", sel.Select(context.Background()).URL)

	backend, release, err := sel.Lease(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, backend.(*fakeBackend))

	require.Equal(t, "ws://b", sel.Select(context.Background()).URL)
	assert.False(t, first.isClosed(), "leased backend outlives the switch")

	release()
	assert.True(t, first.isClosed())
	release()

	// Without a lease the replaced backend is closed on the switch.
	mu.Lock()
	dialed["ws://a"] = 0
	mu.Unlock()
	first.set(func(f *fakeBackend) { f.closed = false })
	require.Equal(t, "ws://a", sel.Select(context.Background()).URL)
	assert.True(t, second.isClosed())
}
