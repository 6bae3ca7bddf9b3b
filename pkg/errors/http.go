package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// HTTPError represents an HTTP error response.
type HTTPError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code for an error.
// It maps error codes to appropriate HTTP status codes.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) && serviceErr.StatusCode >= 400 {
		return serviceErr.StatusCode
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return codeToHTTPStatus(customErr.Code())
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTimeout):
		return http.StatusRequestTimeout
	}

	return http.StatusInternalServerError
}

// codeToHTTPStatus maps error codes to HTTP status codes.
func codeToHTTPStatus(code string) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidArgument, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable, CodeNotInitialized, CodeEndpointUnreachable:
		return http.StatusServiceUnavailable
	case CodeEstimationFailed, CodeSubmissionFailed, CodeCallFailed:
		return http.StatusUnprocessableEntity
	case CodeConfirmationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ToHTTPError converts an error to an HTTPError.
func ToHTTPError(err error, traceID string) *HTTPError {
	if err == nil {
		return &HTTPError{
			Status:  http.StatusOK,
			Code:    CodeOK,
			Message: "success",
			TraceID: traceID,
		}
	}

	httpErr := &HTTPError{
		Status:  StatusCode(err),
		Code:    GetErrorCode(err),
		Message: GetErrorMessage(err),
		TraceID: traceID,
		Details: make(map[string]string),
	}

	var (
		validationErr  *ValidationError
		notFoundErr    *NotFoundError
		timeoutErr     *TimeoutError
		rateLimitErr   *RateLimitError
		serviceErr     *ServiceError
		storageErr     *StorageError
		unreachableErr *EndpointUnreachableError
		estimationErr  *EstimationError
		submissionErr  *SubmissionError
		malformedErr   *MalformedResultError
		confirmErr     *ConfirmationTimeoutError
	)

	switch {
	case errors.As(err, &validationErr):
		if validationErr.Field != "" {
			httpErr.Details["field"] = validationErr.Field
		}
	case errors.As(err, &notFoundErr):
		httpErr.Details["resource"] = notFoundErr.Resource
		if notFoundErr.ID != "" {
			httpErr.Details["id"] = notFoundErr.ID
		}
	case errors.As(err, &timeoutErr):
		if timeoutErr.Operation != "" {
			httpErr.Details["operation"] = timeoutErr.Operation
		}
		if timeoutErr.Duration != "" {
			httpErr.Details["duration"] = timeoutErr.Duration
		}
	case errors.As(err, &rateLimitErr):
		if rateLimitErr.RetryAfter > 0 {
			httpErr.Details["retry_after"] = strconv.Itoa(rateLimitErr.RetryAfter)
		}
	case errors.As(err, &serviceErr):
		httpErr.Details["service"] = serviceErr.Service
	case errors.As(err, &storageErr):
		httpErr.Details["operation"] = storageErr.Operation
	case errors.As(err, &unreachableErr):
		if len(unreachableErr.Endpoints) > 0 {
			httpErr.Details["endpoints"] = strings.Join(unreachableErr.Endpoints, ",")
		}
	case errors.As(err, &estimationErr):
		httpErr.Details["function"] = estimationErr.Function
		if estimationErr.Reason != "" {
			httpErr.Details["reason"] = estimationErr.Reason
		}
	case errors.As(err, &submissionErr):
		httpErr.Details["step"] = submissionErr.Step
		if submissionErr.TxHash != "" {
			httpErr.Details["transaction_hash"] = submissionErr.TxHash
		}
	case errors.As(err, &malformedErr):
		httpErr.Details["entity"] = malformedErr.Entity
	case errors.As(err, &confirmErr):
		httpErr.Details["transaction_hash"] = confirmErr.TxHash
	}

	if len(httpErr.Details) == 0 {
		httpErr.Details = nil
	}
	return httpErr
}

// WriteHTTPError writes an error response to an http.ResponseWriter.
func WriteHTTPError(w http.ResponseWriter, err error, traceID string) {
	httpErr := ToHTTPError(err, traceID)
	w.Header().Set("Content-Type", "application/json")

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) && rateLimitErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(rateLimitErr.RetryAfter))
	}

	w.WriteHeader(httpErr.Status)
	_ = json.NewEncoder(w).Encode(httpErr)
}
