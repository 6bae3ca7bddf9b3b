package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Common sentinel errors for quick checks
var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timeout")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

func newBase(code, message string, cause error) *BaseError {
	return &BaseError{
		code:    code,
		message: message,
		cause:   cause,
		stack:   captureStack(2),
	}
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: newBase(CodeValidation, message, nil),
		Field:     field,
		Value:     value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	*BaseError
	Resource string
	ID       string
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		BaseError: newBase(CodeNotFound, fmt.Sprintf("%s not found", resource), nil),
		Resource:  resource,
		ID:        id,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// InternalError represents an internal server error.
type InternalError struct {
	*BaseError
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *InternalError {
	if message == "" {
		message = "internal error"
	}
	return &InternalError{BaseError: newBase(CodeInternal, message, cause)}
}

// ServiceError represents a failure of a downstream HTTP service.
type ServiceError struct {
	*BaseError
	Service    string
	StatusCode int
}

// NewServiceError creates a new service error. statusCode is the upstream
// status, or 0 when no response was received.
func NewServiceError(service, message string, statusCode int, cause error) *ServiceError {
	if message == "" {
		message = fmt.Sprintf("%s service error", service)
	}
	return &ServiceError{
		BaseError:  newBase(CodeServiceUnavailable, message, cause),
		Service:    service,
		StatusCode: statusCode,
	}
}

// StorageError is returned when the submission journal cannot be read or
// written.
type StorageError struct {
	*BaseError
	Operation string
}

// NewStorageError creates a storage error for the named journal operation.
func NewStorageError(operation string, cause error) *StorageError {
	return &StorageError{
		BaseError: newBase(CodeStorageError, fmt.Sprintf("journal %s failed", operation), cause),
		Operation: operation,
	}
}

// TimeoutError represents a timeout error.
type TimeoutError struct {
	*BaseError
	Operation string
	Duration  string
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(operation, duration string) *TimeoutError {
	message := "operation timeout"
	if operation != "" {
		message = fmt.Sprintf("%s timeout", operation)
	}
	return &TimeoutError{
		BaseError: newBase(CodeTimeout, message, nil),
		Operation: operation,
		Duration:  duration,
	}
}

// RateLimitError represents a rate limiting error.
type RateLimitError struct {
	*BaseError
	Limit      int
	RetryAfter int // seconds
}

// NewRateLimitError creates a new rate limit error.
func NewRateLimitError(limit, retryAfter int) *RateLimitError {
	return &RateLimitError{
		BaseError:  newBase(CodeRateLimit, "rate limit exceeded", nil),
		Limit:      limit,
		RetryAfter: retryAfter,
	}
}

// NotInitializedError is returned when the contract handle or signer has not
// been bound. It is raised before any network I/O.
type NotInitializedError struct {
	*BaseError
	Component string
}

// NewNotInitializedError creates a not-initialized error for component
// ("contract" or "signer").
func NewNotInitializedError(component string) *NotInitializedError {
	return &NotInitializedError{
		BaseError: newBase(CodeNotInitialized, notInitializedMessage(component), nil),
		Component: component,
	}
}

func notInitializedMessage(component string) string {
	if component == "" {
		return "Contract not initialized"
	}
	return strings.ToUpper(component[:1]) + component[1:] + " not initialized"
}

// EndpointUnreachableError means no candidate network endpoint is live.
type EndpointUnreachableError struct {
	*BaseError
	Endpoints []string
}

// NewEndpointUnreachableError creates an unreachable error listing the probed endpoints.
func NewEndpointUnreachableError(endpoints []string, cause error) *EndpointUnreachableError {
	return &EndpointUnreachableError{
		BaseError: newBase(CodeEndpointUnreachable, "network endpoint unreachable", cause),
		Endpoints: endpoints,
	}
}

// EstimationError is returned when the endpoint rejects a gas estimate.
// Reason carries the decoded revert reason when the endpoint supplied one.
type EstimationError struct {
	*BaseError
	Function string
	Reason   string
}

// NewEstimationError creates a gas estimation error for function.
func NewEstimationError(function, reason string, cause error) *EstimationError {
	message := fmt.Sprintf("gas estimation failed for %s", function)
	if reason != "" {
		message = fmt.Sprintf("%s (revert reason: %s)", message, reason)
	}
	return &EstimationError{
		BaseError: newBase(CodeEstimationFailed, message, cause),
		Function:  function,
		Reason:    reason,
	}
}

// SubmissionError is returned when a transaction fails after estimation.
// Step names the failing stage (fetch nonce, sign, broadcast, confirm, ...).
type SubmissionError struct {
	*BaseError
	Function string
	Step     string
	TxHash   string
}

// NewSubmissionError creates a submission error attributed to step.
func NewSubmissionError(function, step, txHash string, cause error) *SubmissionError {
	return &SubmissionError{
		BaseError: newBase(CodeSubmissionFailed, fmt.Sprintf("%s: %s failed", function, step), cause),
		Function:  function,
		Step:      step,
		TxHash:    txHash,
	}
}

// CallError is returned when a read-only contract call fails.
type CallError struct {
	*BaseError
	Function string
	Reason   string
}

// NewCallError creates a call error for function.
func NewCallError(function, reason string, cause error) *CallError {
	message := fmt.Sprintf("call %s failed", function)
	if reason != "" {
		message = fmt.Sprintf("%s (revert reason: %s)", message, reason)
	}
	return &CallError{
		BaseError: newBase(CodeCallFailed, message, cause),
		Function:  function,
		Reason:    reason,
	}
}

// MalformedResultError means a contract result did not match the expected
// record schema.
type MalformedResultError struct {
	*BaseError
	Entity string
	Detail string
}

// NewMalformedResultError creates a malformed result error for entity.
func NewMalformedResultError(entity, detail string) *MalformedResultError {
	return &MalformedResultError{
		BaseError: newBase(CodeMalformedResult, fmt.Sprintf("malformed %s result: %s", entity, detail), nil),
		Entity:    entity,
		Detail:    detail,
	}
}

// ConfirmationTimeoutError is returned when a broadcast transaction has not
// been mined within the confirmation window. The transaction may still land;
// callers should look it up by TxHash before resubmitting.
type ConfirmationTimeoutError struct {
	*BaseError
	TxHash  string
	Timeout time.Duration
}

// NewConfirmationTimeoutError creates a confirmation timeout error.
func NewConfirmationTimeoutError(txHash string, timeout time.Duration) *ConfirmationTimeoutError {
	return &ConfirmationTimeoutError{
		BaseError: newBase(CodeConfirmationTimeout,
			fmt.Sprintf("transaction %s not confirmed within %s", txHash, timeout), nil),
		TxHash:  txHash,
		Timeout: timeout,
	}
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the code
// and adds the cause chain. Otherwise, it creates an InternalError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var e Error
	if errors.As(err, &e) {
		return &BaseError{
			code:    e.Code(),
			message: message,
			cause:   err,
			stack:   captureStack(1),
		}
	}

	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   err,
			stack:   captureStack(1),
		},
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
