package contracts

import "context"

// SubmissionStatus is the lifecycle state of a journaled submission.
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"   // built, not yet broadcast
	StatusBroadcast SubmissionStatus = "broadcast" // accepted by the endpoint
	StatusConfirmed SubmissionStatus = "confirmed"
	StatusFailed    SubmissionStatus = "failed"
	StatusTimeout   SubmissionStatus = "timeout" // broadcast, receipt not seen in time
)

// SubmissionUpdate carries the fields that change as a submission progresses.
// Zero values leave the stored column untouched.
type SubmissionUpdate struct {
	Status      SubmissionStatus
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Error       string
}

// Recorder persists every submission attempt. Recording failures never fail
// the submission itself.
type Recorder interface {
	// Begin records a new attempt and returns its journal id.
	Begin(ctx context.Context, intent Intent, sender string) (string, error)

	// Update applies u to the attempt with the given id.
	Update(ctx context.Context, id string, u SubmissionUpdate) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) Begin(context.Context, Intent, string) (string, error) { return "", nil }

func (NopRecorder) Update(context.Context, string, SubmissionUpdate) error { return nil }
