package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the subset of *ethclient.Client the gateway depends on.
type Backend interface {
	// CodeAt returns the contract code of the given account.
	// A nil blockNumber selects the latest block.
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)

	// CallContract executes a message call without creating a transaction.
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)

	// PendingNonceAt returns the next nonce for the account, including pending transactions.
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// EstimateGas returns the gas needed to execute msg against current state.
	// Reverts surface as errors carrying the revert data.
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)

	// SuggestGasPrice returns the node's current gas price suggestion.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// SendTransaction broadcasts a signed transaction.
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// TransactionReceipt returns the receipt of a mined transaction, or
	// ethereum.NotFound while it is pending.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// ChainID returns the chain id used for replay-protected signing.
	ChainID(ctx context.Context) (*big.Int, error)

	// NetworkID returns the network id reported by net_version.
	NetworkID(ctx context.Context) (*big.Int, error)

	// BlockNumber returns the most recent block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// Close releases the underlying connection.
	Close()
}
