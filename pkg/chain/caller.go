package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/contracts"
	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// Caller executes read-only contract functions against the active endpoint.
// Calls share no mutable state and run concurrently.
type Caller struct {
	registry *Registry
	selector *ProviderSelector
	timeout  time.Duration
	logger   *logging.ColoredLogger
	metrics  *Metrics
}

var _ contracts.Caller = (*Caller)(nil)

// NewCaller creates a caller. timeout bounds each call; 0 leaves it to ctx.
func NewCaller(registry *Registry, selector *ProviderSelector, timeout time.Duration, logger *logging.ColoredLogger, metrics *Metrics) *Caller {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Caller{
		registry: registry,
		selector: selector,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Call invokes function with args and returns its outputs in declaration
// order, exactly as the ABI decodes them.
func (c *Caller) Call(ctx context.Context, function string, args ...any) (out []any, err error) {
	defer func() { c.metrics.observeCall(function, err) }()

	b := c.registry.Current()
	if !b.Initialized() {
		return nil, apperrors.NewNotInitializedError("contract")
	}
	method, ok := b.Contract.ABI.Methods[function]
	if !ok {
		return nil, apperrors.NewValidationError("function", fmt.Sprintf("unknown contract function %q", function), function)
	}
	if !method.IsConstant() {
		return nil, apperrors.NewValidationError("function", fmt.Sprintf("%s changes state and must be submitted", function), function)
	}
	if _, err := b.Contract.ABI.Pack(function, args...); err != nil {
		return nil, apperrors.NewValidationError("args", fmt.Sprintf("invalid arguments for %s: %v", function, err), nil)
	}

	backend, release, err := c.selector.Lease(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	bound := bind.NewBoundContract(b.Contract.Address, b.Contract.ABI, backend, nil, nil)
	var results []interface{}
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &results, function, args...); err != nil {
		c.logger.ComponentError(logging.ComponentContract, "Call failed",
			zap.String("function", function), zap.Error(err))
		switch {
		case isTransportError(err):
			c.selector.MarkDown(err)
			return nil, apperrors.NewEndpointUnreachableError(c.selector.Candidates(), err)
		case errors.Is(err, bind.ErrNoCode):
			return nil, apperrors.NewCallError(function, "no contract code at address", err)
		default:
			return nil, apperrors.NewCallError(function, RevertReason(err), err)
		}
	}
	return results, nil
}
