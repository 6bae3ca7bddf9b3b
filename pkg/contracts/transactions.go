package contracts

import (
	"context"
	"time"
)

// Intent is a single state-changing contract call. It is built per request
// and never persisted; the journal keeps only its function name.
type Intent struct {
	Function string
	Args     []any
}

// Receipt is the immutable result of a confirmed intent.
type Receipt struct {
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     uint64 `json:"block_number"`
	GasUsed         uint64 `json:"gas_used"`
}

// TxStatus is the on-chain state of a previously broadcast transaction.
type TxStatus struct {
	TransactionHash string    `json:"transaction_hash"`
	Pending         bool      `json:"pending"`
	Succeeded       bool      `json:"succeeded"`
	BlockNumber     uint64    `json:"block_number,omitempty"`
	GasUsed         uint64    `json:"gas_used,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}

// Submitter builds, signs, broadcasts and confirms write intents.
type Submitter interface {
	// Submit runs the full pipeline for intent. Implementations serialize
	// submissions per sender and bound the confirmation wait.
	Submit(ctx context.Context, intent Intent) (*Receipt, error)
}

// Caller executes read-only contract functions and returns the decoded
// outputs in declaration order.
type Caller interface {
	Call(ctx context.Context, function string, args ...any) ([]any, error)
}
