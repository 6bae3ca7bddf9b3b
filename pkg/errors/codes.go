package errors

// Error codes for categorizing errors.
// These codes map to HTTP status codes where applicable.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeInvalidArgument indicates client specified an invalid argument.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound = "NOT_FOUND"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"

	// Domain-specific error codes

	// CodeValidation indicates input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeTimeout indicates an operation timed out.
	CodeTimeout = "TIMEOUT"

	// CodeRateLimit indicates rate limit was exceeded.
	CodeRateLimit = "RATE_LIMIT_EXCEEDED"

	// CodeServiceUnavailable indicates a downstream service is unavailable.
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// CodeStorageError indicates the submission journal failed.
	CodeStorageError = "STORAGE_ERROR"

	// Chain orchestration codes

	// CodeNotInitialized indicates the contract handle or signer is unbound.
	CodeNotInitialized = "NOT_INITIALIZED"

	// CodeEndpointUnreachable indicates no network endpoint answered.
	CodeEndpointUnreachable = "ENDPOINT_UNREACHABLE"

	// CodeEstimationFailed indicates gas estimation was rejected, usually a revert.
	CodeEstimationFailed = "ESTIMATION_FAILED"

	// CodeSubmissionFailed indicates a transaction could not be assembled,
	// signed, broadcast, or executed.
	CodeSubmissionFailed = "SUBMISSION_FAILED"

	// CodeCallFailed indicates a read-only contract call failed.
	CodeCallFailed = "CALL_FAILED"

	// CodeMalformedResult indicates the contract returned an unexpected shape.
	CodeMalformedResult = "MALFORMED_RESULT"

	// CodeConfirmationTimeout indicates a broadcast transaction was not mined in time.
	CodeConfirmationTimeout = "CONFIRMATION_TIMEOUT"
)
