package errors

import "errors"

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr) || errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsTimeout checks if an error indicates a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr) || errors.Is(err, ErrTimeout)
}

// IsRateLimit checks if an error indicates rate limiting.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsStorage checks if the submission journal failed.
func IsStorage(err error) bool {
	var e *StorageError
	return err != nil && errors.As(err, &e)
}

// IsNotInitialized checks if the contract handle or signer was unbound.
func IsNotInitialized(err error) bool {
	var e *NotInitializedError
	return err != nil && errors.As(err, &e)
}

// IsEndpointUnreachable checks if no network endpoint could be reached.
func IsEndpointUnreachable(err error) bool {
	var e *EndpointUnreachableError
	return err != nil && errors.As(err, &e)
}

// IsEstimation checks if gas estimation was rejected.
func IsEstimation(err error) bool {
	var e *EstimationError
	return err != nil && errors.As(err, &e)
}

// IsMalformedResult checks if a contract result violated its schema.
func IsMalformedResult(err error) bool {
	var e *MalformedResultError
	return err != nil && errors.As(err, &e)
}

// IsConfirmationTimeout checks if a transaction confirmation wait expired.
func IsConfirmationTimeout(err error) bool {
	var e *ConfirmationTimeoutError
	return err != nil && errors.As(err, &e)
}

// TxHashOf returns the transaction hash carried by a submission or
// confirmation error, or "" when the error has none.
func TxHashOf(err error) string {
	var timeoutErr *ConfirmationTimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr.TxHash
	}
	var submissionErr *SubmissionError
	if errors.As(err, &submissionErr) {
		return submissionErr.TxHash
	}
	return ""
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsTimeout(err):
		return CodeTimeout
	case IsRateLimit(err):
		return CodeRateLimit
	default:
		return CodeInternal
	}
}

// GetErrorMessage extracts a human-readable message from an error.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Message()
	}

	return err.Error()
}

// Cause returns the underlying cause of an error.
// It unwraps the error chain until it finds the root cause.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		underlying := unwrapper.Unwrap()
		if underlying == nil {
			return err
		}
		err = underlying
	}
}
