package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/contracts"
	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/httputil"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// OrchestratorConfig tunes transaction assembly.
type OrchestratorConfig struct {
	// GasLimitCeiling rejects estimates above it; 0 disables the check.
	GasLimitCeiling uint64
	// GasPriceMultiplier is applied to the suggested gas price. <= 0 means 1.
	GasPriceMultiplier float64
	// ConfirmationTimeout bounds the wait for a receipt. Defaults to 2m.
	ConfirmationTimeout time.Duration
}

// Orchestrator turns write intents into signed, broadcast and confirmed
// transactions. Submissions are serialised through the registry write lane,
// so the nonce read fresh from the endpoint is never raced by another
// submission from this process.
type Orchestrator struct {
	registry *Registry
	selector *ProviderSelector
	recorder contracts.Recorder
	cfg      OrchestratorConfig
	logger   *logging.ColoredLogger
	metrics  *Metrics
}

var _ contracts.Submitter = (*Orchestrator)(nil)

// NewOrchestrator wires an orchestrator. A nil recorder disables journaling.
func NewOrchestrator(registry *Registry, selector *ProviderSelector, cfg OrchestratorConfig, recorder contracts.Recorder, logger *logging.ColoredLogger, metrics *Metrics) *Orchestrator {
	if cfg.ConfirmationTimeout <= 0 {
		cfg.ConfirmationTimeout = 2 * time.Minute
	}
	if cfg.GasPriceMultiplier <= 0 {
		cfg.GasPriceMultiplier = 1
	}
	if recorder == nil {
		recorder = contracts.NopRecorder{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Orchestrator{
		registry: registry,
		selector: selector,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// prepared is an intent checked and packed against one binding.
type prepared struct {
	binding *Binding
	intent  contracts.Intent
	input   []byte
}

func prepare(b *Binding, intent contracts.Intent) (*prepared, error) {
	if !b.Initialized() {
		return nil, apperrors.NewNotInitializedError("contract")
	}
	if b.Signer == nil {
		return nil, apperrors.NewNotInitializedError("signer")
	}
	method, ok := b.Contract.ABI.Methods[intent.Function]
	if !ok {
		return nil, apperrors.NewValidationError("function", fmt.Sprintf("unknown contract function %q", intent.Function), intent.Function)
	}
	if method.IsConstant() {
		return nil, apperrors.NewValidationError("function", fmt.Sprintf("%s is read-only and cannot be submitted", intent.Function), intent.Function)
	}
	input, err := b.Contract.ABI.Pack(intent.Function, intent.Args...)
	if err != nil {
		return nil, apperrors.NewValidationError("args", fmt.Sprintf("invalid arguments for %s: %v", intent.Function, err), nil)
	}
	return &prepared{binding: b, intent: intent, input: input}, nil
}

// Submit builds, estimates, signs, broadcasts and confirms intent. Every
// failure names the step it happened in; no partial receipt is returned.
// Nothing is retried here: a ConfirmationTimeoutError carries the hash so the
// caller can look the transaction up before deciding to resubmit.
func (o *Orchestrator) Submit(ctx context.Context, intent contracts.Intent) (receipt *contracts.Receipt, err error) {
	start := time.Now()
	defer func() { o.metrics.observeSubmit(intent.Function, err, time.Since(start)) }()

	// Fail fast before queueing behind another submission.
	binding := o.registry.Current()
	p, err := prepare(binding, intent)
	if err != nil {
		return nil, err
	}

	release, err := o.registry.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if current := o.registry.Current(); current != binding {
		if p, err = prepare(current, intent); err != nil {
			return nil, err
		}
	}

	sender := p.binding.Signer.From.Hex()
	journalID, jerr := o.recorder.Begin(ctx, intent, sender)
	if jerr != nil {
		o.logger.ComponentWarn(logging.ComponentJournal, "Failed to journal submission", zap.Error(jerr))
	}

	receipt, err = o.submitLocked(ctx, p, journalID)
	if err != nil {
		o.logger.ComponentError(logging.ComponentChain, "Transaction failed",
			zap.String("function", intent.Function),
			zap.String("code", apperrors.GetErrorCode(err)),
			zap.Error(err))
		status := contracts.StatusFailed
		if apperrors.IsConfirmationTimeout(err) {
			status = contracts.StatusTimeout
		}
		o.record(ctx, journalID, contracts.SubmissionUpdate{
			Status: status,
			TxHash: apperrors.TxHashOf(err),
			Error:  err.Error(),
		})
		return nil, err
	}

	o.logger.ComponentInfo(logging.ComponentChain, "Transaction confirmed",
		zap.String("function", intent.Function),
		zap.String("tx_hash", receipt.TransactionHash),
		zap.Uint64("block", receipt.BlockNumber),
		zap.Uint64("gas_used", receipt.GasUsed))
	o.record(ctx, journalID, contracts.SubmissionUpdate{
		Status:      contracts.StatusConfirmed,
		TxHash:      receipt.TransactionHash,
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
	})
	return receipt, nil
}

func (o *Orchestrator) submitLocked(ctx context.Context, p *prepared, journalID string) (*contracts.Receipt, error) {
	fn := p.intent.Function
	contract, signer := p.binding.Contract, p.binding.Signer

	backend, release, err := o.selector.Lease(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	nonce, err := backend.PendingNonceAt(ctx, signer.From)
	if err != nil {
		return nil, o.stepError(fn, "fetch nonce", "", err)
	}

	to := contract.Address
	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{From: signer.From, To: &to, Data: p.input})
	if err != nil {
		if isTransportError(err) {
			o.selector.MarkDown(err)
			return nil, apperrors.NewEndpointUnreachableError(o.selector.Candidates(), fmt.Errorf("estimate gas: %w", err))
		}
		return nil, apperrors.NewEstimationError(fn, RevertReason(err), err)
	}
	if o.cfg.GasLimitCeiling > 0 && gas > o.cfg.GasLimitCeiling {
		return nil, apperrors.NewEstimationError(fn,
			fmt.Sprintf("estimated gas %d exceeds limit %d", gas, o.cfg.GasLimitCeiling), nil)
	}

	suggested, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, o.stepError(fn, "fetch gas price", "", err)
	}
	gasPrice := scaleGasPrice(suggested, o.cfg.GasPriceMultiplier)

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, o.stepError(fn, "fetch chain id", "", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    new(big.Int),
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     p.input,
	})
	signed, err := signer.Sign(tx, chainID)
	if err != nil {
		return nil, apperrors.NewSubmissionError(fn, "sign", "", err)
	}
	txHash := signed.Hash().Hex()
	o.record(ctx, journalID, contracts.SubmissionUpdate{TxHash: txHash})

	o.logger.ComponentDebug(logging.ComponentChain, "Broadcasting transaction",
		zap.String("function", fn),
		zap.String("tx_hash", txHash),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
		zap.String("gas_price", gasPrice.String()))

	if err := backend.SendTransaction(ctx, signed); err != nil {
		if isTransportError(err) {
			o.selector.MarkDown(err)
		}
		return nil, apperrors.NewSubmissionError(fn, "broadcast", txHash, err)
	}
	o.record(ctx, journalID, contracts.SubmissionUpdate{Status: contracts.StatusBroadcast})

	// The wait outlives the request context: a client disconnect must not
	// turn a broadcast transaction into an unexplained failure.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.ConfirmationTimeout)
	defer cancel()
	mined, err := bind.WaitMined(wctx, backend, signed)
	if err != nil {
		if wctx.Err() != nil {
			return nil, apperrors.NewConfirmationTimeoutError(txHash, o.cfg.ConfirmationTimeout)
		}
		return nil, apperrors.NewSubmissionError(fn, "confirm", txHash, err)
	}
	if mined.Status != types.ReceiptStatusSuccessful {
		return nil, apperrors.NewSubmissionError(fn, "confirm", txHash, errors.New("transaction reverted on chain"))
	}

	receipt := &contracts.Receipt{TransactionHash: txHash, GasUsed: mined.GasUsed}
	if mined.BlockNumber != nil {
		receipt.BlockNumber = mined.BlockNumber.Uint64()
	}
	return receipt, nil
}

// stepError attributes a pre-broadcast RPC failure to its step. Transport
// failures mark the endpoint down and surface as EndpointUnreachable.
func (o *Orchestrator) stepError(fn, step, txHash string, err error) error {
	if isTransportError(err) {
		o.selector.MarkDown(err)
		return apperrors.NewEndpointUnreachableError(o.selector.Candidates(), fmt.Errorf("%s: %w", step, err))
	}
	return apperrors.NewSubmissionError(fn, step, txHash, err)
}

func (o *Orchestrator) record(ctx context.Context, id string, u contracts.SubmissionUpdate) {
	if id == "" {
		return
	}
	if err := o.recorder.Update(context.WithoutCancel(ctx), id, u); err != nil {
		o.logger.ComponentWarn(logging.ComponentJournal, "Failed to update journal entry",
			zap.String("id", id), zap.Error(err))
	}
}

// Lookup reports whether a previously broadcast transaction has been mined.
func (o *Orchestrator) Lookup(ctx context.Context, txHash string) (*contracts.TxStatus, error) {
	if !httputil.ValidateTxHash(txHash) {
		return nil, apperrors.NewValidationError("transaction_hash", "invalid transaction hash", txHash)
	}
	backend, release, err := o.selector.Lease(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	hash := common.HexToHash(txHash)
	status := &contracts.TxStatus{TransactionHash: hash.Hex(), CheckedAt: time.Now()}
	mined, err := backend.TransactionReceipt(ctx, hash)
	switch {
	case errors.Is(err, ethereum.NotFound):
		status.Pending = true
		return status, nil
	case err != nil:
		if isTransportError(err) {
			o.selector.MarkDown(err)
			return nil, apperrors.NewEndpointUnreachableError(o.selector.Candidates(), err)
		}
		return nil, apperrors.NewCallError("eth_getTransactionReceipt", "", err)
	}

	status.Succeeded = mined.Status == types.ReceiptStatusSuccessful
	status.GasUsed = mined.GasUsed
	if mined.BlockNumber != nil {
		status.BlockNumber = mined.BlockNumber.Uint64()
	}
	return status, nil
}

// scaleGasPrice multiplies price by m, truncating toward zero.
func scaleGasPrice(price *big.Int, m float64) *big.Int {
	if m == 1 {
		return new(big.Int).Set(price)
	}
	scaled := new(big.Float).Mul(new(big.Float).SetInt(price), big.NewFloat(m))
	out, _ := scaled.Int(nil)
	return out
}
