package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

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

// fakeBackend is an in-memory endpoint. The pending nonce equals the number
// of transactions sent, like a node with an empty mempool.
type fakeBackend struct {
	abi abi.ABI

	mu            sync.Mutex
	chainID       *big.Int
	chainErr      error
	nonceErr      error
	gas           uint64
	gasErr        error
	gasPrice      *big.Int
	sendErr       error
	neverMine     bool
	revertOnChain bool
	callErr       error
	outputs       map[string][]any

	// receiptGate, when set, holds receipt queries until it is closed.
	receiptGate chan struct{}

	rpcCalls int
	sent     []*types.Transaction
	closed   bool
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	parsed, err := ParseABI(RecordContractABI)
	require.NoError(t, err)
	return &fakeBackend{
		abi:      parsed,
		chainID:  big.NewInt(11155111),
		gas:      90000,
		gasPrice: big.NewInt(10_000_000_000),
		outputs:  map[string][]any{},
	}
}

func (f *fakeBackend) touch() {
	f.mu.Lock()
	f.rpcCalls++
	f.mu.Unlock()
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rpcCalls
}

func (f *fakeBackend) sentTxs() []*types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.Transaction(nil), f.sent...)
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *fakeBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	f.touch()
	return []byte{0x60, 0x80}, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.touch()
	f.mu.Lock()
	callErr, outputs := f.callErr, f.outputs
	f.mu.Unlock()
	if callErr != nil {
		return nil, callErr
	}
	method, err := f.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	values, ok := outputs[method.Name]
	if !ok {
		return nil, fmt.Errorf("execution reverted: no output configured for %s", method.Name)
	}
	return method.Outputs.Pack(values...)
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nonceErr != nil {
		return 0, f.nonceErr
	}
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gas, f.gasErr
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.gasPrice), nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	if tx.Nonce() != uint64(len(f.sent)) {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), len(f.sent))
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.touch()
	f.mu.Lock()
	gate := f.receiptGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errors.New("client is closed")
	}
	if f.neverMine {
		return nil, ethereum.NotFound
	}
	for i, tx := range f.sent {
		if tx.Hash() == txHash {
			status := types.ReceiptStatusSuccessful
			if f.revertOnChain {
				status = types.ReceiptStatusFailed
			}
			return &types.Receipt{
				Status:      status,
				TxHash:      txHash,
				BlockNumber: big.NewInt(int64(100 + i)),
				GasUsed:     tx.Gas() - 1000,
			}, nil
		}
	}
	return nil, ethereum.NotFound
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chainErr != nil {
		return nil, f.chainErr
	}
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeBackend) NetworkID(ctx context.Context) (*big.Int, error) {
	f.touch()
	return big.NewInt(11155111), nil
}

func (f *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	f.touch()
	return 4242, nil
}

func (f *fakeBackend) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeBackend) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// rpcDataError mimics a JSON-RPC error carrying revert data.
type rpcDataError struct {
	msg  string
	data string
}

func (e *rpcDataError) Error() string          { return e.msg }
func (e *rpcDataError) ErrorCode() int         { return 3 }
func (e *rpcDataError) ErrorData() interface{} { return e.data }

func revertData(t *testing.T, reason string) string {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	return hexutil.Encode(append(selector, packed...))
}

type harness struct {
	backend  *fakeBackend
	selector *ProviderSelector
	registry *Registry
	orch     *Orchestrator
	caller   *Caller
	recorder *memRecorder
}

type harnessOptions struct {
	unbound             bool
	noSigner            bool
	gasCeiling          uint64
	confirmationTimeout time.Duration
	// redials are handed out by dials after the first, in order; the last
	// one is reused.
	redials          []*fakeBackend
	reselectInterval time.Duration
}

func newHarness(t *testing.T, o harnessOptions) *harness {
	t.Helper()
	ctx := context.Background()
	fb := newFakeBackend(t)

	var dialMu sync.Mutex
	queue := append([]*fakeBackend{fb}, o.redials...)
	sel, err := NewProviderSelector(SelectorConfig{
		Candidates:       []string{"ws://primary:8546"},
		ReselectInterval: o.reselectInterval,
		Dial: func(ctx context.Context, url string) (contracts.Backend, error) {
			dialMu.Lock()
			defer dialMu.Unlock()
			next := queue[0]
			if len(queue) > 1 {
				queue = queue[1:]
			}
			return next, nil
		},
	}, nil, nil)
	require.NoError(t, err)
	require.True(t, sel.Select(ctx).Live)

	reg := NewRegistry(nil)
	opts := Options{ABI: RecordContractABI}
	if !o.unbound {
		opts.ContractAddress = testContract
	}
	if !o.noSigner {
		opts.PrivateKey = testKeyHex
		opts.FromAddress = testSender(t)
	}
	require.NoError(t, reg.Bind(ctx, opts))

	if o.confirmationTimeout == 0 {
		o.confirmationTimeout = 5 * time.Second
	}
	rec := &memRecorder{}
	metrics := NewMetrics(prometheus.NewRegistry())
	orch := NewOrchestrator(reg, sel, OrchestratorConfig{
		GasLimitCeiling:     o.gasCeiling,
		GasPriceMultiplier:  1.1,
		ConfirmationTimeout: o.confirmationTimeout,
	}, rec, nil, metrics)

	return &harness{
		backend:  fb,
		selector: sel,
		registry: reg,
		orch:     orch,
		caller:   NewCaller(reg, sel, time.Second, nil, metrics),
		recorder: rec,
	}
}

// memRecorder keeps journal updates in memory.
type memRecorder struct {
	mu      sync.Mutex
	begun   []contracts.Intent
	updates map[string][]contracts.SubmissionUpdate
}

func (r *memRecorder) Begin(ctx context.Context, intent contracts.Intent, sender string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begun = append(r.begun, intent)
	return fmt.Sprintf("entry-%d", len(r.begun)), nil
}

func (r *memRecorder) Update(ctx context.Context, id string, u contracts.SubmissionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updates == nil {
		r.updates = map[string][]contracts.SubmissionUpdate{}
	}
	r.updates[id] = append(r.updates[id], u)
	return nil
}

func (r *memRecorder) last(id string) contracts.SubmissionUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	us := r.updates[id]
	if len(us) == 0 {
		return contracts.SubmissionUpdate{}
	}
	return us[len(us)-1]
}
