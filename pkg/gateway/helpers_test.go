package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/noforma/pkg/chain"
	"github.com/DeBrosOfficial/noforma/pkg/contracts"
)

const (
	testKeyHex   = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
)

func testSender(t *testing.T) string {
	t.Helper()
	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(key.PublicKey).Hex()
}

// stubBackend answers the probe RPCs only.
type stubBackend struct{}

var errNoRPC = errors.New("not supported by stub")

func (stubBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return nil, errNoRPC
}
func (stubBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, errNoRPC
}
func (stubBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, errNoRPC
}
func (stubBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 0, errNoRPC
}
func (stubBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(10_000_000_000), nil
}
func (stubBackend) SendTransaction(context.Context, *types.Transaction) error { return errNoRPC }
func (stubBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, errNoRPC
}
func (stubBackend) ChainID(context.Context) (*big.Int, error)   { return big.NewInt(11155111), nil }
func (stubBackend) NetworkID(context.Context) (*big.Int, error) { return big.NewInt(11155111), nil }
func (stubBackend) BlockNumber(context.Context) (uint64, error) { return 4242, nil }
func (stubBackend) Close()                                      {}

// stubContract records submissions and answers calls from a table.
type stubContract struct {
	mu        sync.Mutex
	intents   []contracts.Intent
	outputs   map[string][]any
	submitErr error
	callErr   error
}

var (
	_ contracts.Submitter = (*stubContract)(nil)
	_ contracts.Caller    = (*stubContract)(nil)
)

func (s *stubContract) Submit(ctx context.Context, intent contracts.Intent) (*contracts.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.intents = append(s.intents, intent)
	return &contracts.Receipt{
		TransactionHash: "0x" + strings.Repeat("ab", 32),
		BlockNumber:     100,
		GasUsed:         89000,
	}, nil
}

func (s *stubContract) Call(ctx context.Context, function string, args ...any) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callErr != nil {
		return nil, s.callErr
	}
	out, ok := s.outputs[function]
	if !ok {
		return nil, errors.New("no output for " + function)
	}
	return out, nil
}

func (s *stubContract) submitted() []contracts.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contracts.Intent(nil), s.intents...)
}

type testEnv struct {
	gw       *Gateway
	contract *stubContract
	registry *chain.Registry
	selector *chain.ProviderSelector
}

type envOptions struct {
	unreachable bool
	deps        func(d *Dependencies)
}

func newTestEnv(t *testing.T, o envOptions) *testEnv {
	t.Helper()
	ctx := context.Background()

	sel, err := chain.NewProviderSelector(chain.SelectorConfig{
		Candidates: []string{"http://primary:8545", "http://fallback:8545"},
		Dial: func(ctx context.Context, url string) (contracts.Backend, error) {
			if o.unreachable {
				return nil, errors.New("dial tcp: connection refused")
			}
			return stubBackend{}, nil
		},
	}, nil, nil)
	require.NoError(t, err)
	sel.Select(ctx)

	reg := chain.NewRegistry(nil)
	require.NoError(t, reg.Bind(ctx, chain.Options{
		ContractAddress: testContract,
		ABI:             chain.RecordContractABI,
		PrivateKey:      testKeyHex,
		FromAddress:     testSender(t),
	}))

	sc := &stubContract{outputs: map[string][]any{}}
	deps := Dependencies{
		Registry:  reg,
		Selector:  sel,
		Submitter: sc,
		Caller:    sc,
		Metrics:   prometheus.NewRegistry(),
	}
	if o.deps != nil {
		o.deps(&deps)
	}

	gw, err := New(nil, DefaultConfig(), deps)
	require.NoError(t, err)
	t.Cleanup(gw.Close)
	return &testEnv{gw: gw, contract: sc, registry: reg, selector: sel}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.gw.Handler().ServeHTTP(w, req)

	var decoded map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}
