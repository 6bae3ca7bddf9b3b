package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// Options are the operator-supplied binding inputs.
type Options struct {
	ContractAddress string
	ABI             string // JSON array text
	PrivateKey      string // hex, 0x prefix optional
	FromAddress     string
}

// Update is a partial change to Options; nil fields keep their value.
type Update struct {
	ContractAddress *string
	ABI             *string
	PrivateKey      *string
	FromAddress     *string
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u.ContractAddress == nil && u.ABI == nil && u.PrivateKey == nil && u.FromAddress == nil
}

func (u Update) apply(o Options) Options {
	if u.ContractAddress != nil {
		o.ContractAddress = strings.TrimSpace(*u.ContractAddress)
	}
	if u.ABI != nil {
		o.ABI = *u.ABI
	}
	if u.PrivateKey != nil {
		o.PrivateKey = strings.TrimSpace(*u.PrivateKey)
	}
	if u.FromAddress != nil {
		o.FromAddress = strings.TrimSpace(*u.FromAddress)
	}
	return o
}

// Contract is a parsed interface description at a fixed address.
type Contract struct {
	Address common.Address
	ABI     abi.ABI
}

// Signer signs transactions for an operator-supplied sender. The sender is
// checked against the key, never derived from it.
type Signer struct {
	key  *ecdsa.PrivateKey
	From common.Address
}

// NewSigner parses key and checks that it controls from.
func NewSigner(key, from string) (*Signer, error) {
	if !common.IsHexAddress(from) {
		return nil, apperrors.NewValidationError("from_address", "invalid sender address", from)
	}
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(key, "0x"), "0X"))
	if err != nil {
		return nil, apperrors.NewValidationError("private_key", "invalid private key", nil)
	}
	sender := common.HexToAddress(from)
	if crypto.PubkeyToAddress(priv.PublicKey) != sender {
		return nil, apperrors.NewValidationError("from_address", "from_address does not match private_key", from)
	}
	return &Signer{key: priv, From: sender}, nil
}

// Sign signs tx for chainID using the latest signer for that chain.
func (s *Signer) Sign(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// Binding is one immutable generation of contract and signer state.
// Contract is nil until both address and ABI are configured; Signer is nil
// until both key and sender are configured.
type Binding struct {
	Contract *Contract
	Signer   *Signer
	BoundAt  time.Time

	opts Options
}

// Initialized reports whether the contract handle is usable.
func (b *Binding) Initialized() bool {
	return b != nil && b.Contract != nil
}

// ContractAddress returns the configured address, bound or not.
func (b *Binding) ContractAddress() string {
	if b == nil {
		return ""
	}
	return b.opts.ContractAddress
}

// FromAddress returns the configured sender, bound or not.
func (b *Binding) FromAddress() string {
	if b == nil {
		return ""
	}
	return b.opts.FromAddress
}

func newBinding(opts Options) (*Binding, error) {
	b := &Binding{BoundAt: time.Now(), opts: opts}

	if opts.ContractAddress != "" && strings.TrimSpace(opts.ABI) != "" {
		if !common.IsHexAddress(opts.ContractAddress) {
			return nil, apperrors.NewValidationError("contract_address", "invalid contract address", opts.ContractAddress)
		}
		parsed, err := ParseABI(opts.ABI)
		if err != nil {
			return nil, apperrors.NewValidationError("contract_abi", err.Error(), nil)
		}
		b.Contract = &Contract{Address: common.HexToAddress(opts.ContractAddress), ABI: parsed}
	}

	if opts.PrivateKey != "" && opts.FromAddress != "" {
		signer, err := NewSigner(opts.PrivateKey, opts.FromAddress)
		if err != nil {
			return nil, err
		}
		b.Signer = signer
	}
	return b, nil
}

// Registry holds the process-wide binding. Readers load it without locking;
// Rebind swaps in a whole new value while holding the write lane shared with
// Orchestrator.Submit, so it never interleaves with an in-flight submission.
type Registry struct {
	current atomic.Pointer[Binding]
	lane    chan struct{}
	logger  *logging.ColoredLogger
}

// NewRegistry creates an unbound registry.
func NewRegistry(logger *logging.ColoredLogger) *Registry {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	r := &Registry{lane: make(chan struct{}, 1), logger: logger}
	r.current.Store(&Binding{})
	return r
}

// Current returns the active binding. It is never nil.
func (r *Registry) Current() *Binding {
	return r.current.Load()
}

// Bind installs the initial binding.
func (r *Registry) Bind(ctx context.Context, opts Options) error {
	return r.Rebind(ctx, Update{
		ContractAddress: &opts.ContractAddress,
		ABI:             &opts.ABI,
		PrivateKey:      &opts.PrivateKey,
		FromAddress:     &opts.FromAddress,
	})
}

// Rebind applies u on top of the current options and atomically replaces the
// binding. On error the previous binding stays active.
func (r *Registry) Rebind(ctx context.Context, u Update) error {
	release, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	opts := u.apply(r.Current().opts)
	next, err := newBinding(opts)
	if err != nil {
		r.logger.ComponentWarn(logging.ComponentContract, "Rejected contract configuration", zap.Error(err))
		return err
	}
	r.current.Store(next)

	if next.Contract != nil {
		r.logger.ComponentInfo(logging.ComponentContract, "Contract initialized",
			zap.String("address", next.Contract.Address.Hex()),
			zap.Int("functions", len(next.Contract.ABI.Methods)),
			zap.Bool("signer", next.Signer != nil))
	} else {
		r.logger.ComponentWarn(logging.ComponentContract, "Contract address or ABI not configured")
	}
	return nil
}

// acquire takes the write lane, honouring ctx while waiting.
func (r *Registry) acquire(ctx context.Context) (func(), error) {
	select {
	case r.lane <- struct{}{}:
		return func() { <-r.lane }, nil
	case <-ctx.Done():
		return nil, apperrors.NewTimeoutError("waiting for in-flight submission", fmt.Sprint(ctx.Err()))
	}
}
