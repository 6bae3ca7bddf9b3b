package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name          string
		field         string
		message       string
		expectedError string
	}{
		{
			name:          "with field",
			field:         "name",
			message:       "Name and email are required",
			expectedError: "validation error: name: Name and email are required",
		},
		{
			name:          "without field",
			message:       "invalid input",
			expectedError: "validation error: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, nil)
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error %q, got %q", tt.expectedError, err.Error())
			}
			if err.Message() != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, err.Message())
			}
			if err.Code() != CodeValidation {
				t.Errorf("Expected code %q, got %q", CodeValidation, err.Code())
			}
		})
	}
}

func TestNotInitializedError(t *testing.T) {
	tests := []struct {
		component string
		message   string
	}{
		{"contract", "Contract not initialized"},
		{"signer", "Signer not initialized"},
		{"", "Contract not initialized"},
	}
	for _, tt := range tests {
		err := NewNotInitializedError(tt.component)
		if err.Error() != tt.message {
			t.Errorf("component %q: got %q, want %q", tt.component, err.Error(), tt.message)
		}
		if err.Code() != CodeNotInitialized {
			t.Errorf("unexpected code %q", err.Code())
		}
	}
}

func TestEstimationError(t *testing.T) {
	cause := fmt.Errorf("execution reverted")
	err := NewEstimationError("createCustomer", "customer exists", cause)

	if !strings.Contains(err.Error(), "createCustomer") {
		t.Errorf("expected function in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "customer exists") {
		t.Errorf("expected revert reason in message, got %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be preserved")
	}

	noReason := NewEstimationError("deleteProject", "", cause)
	if strings.Contains(noReason.Message(), "revert reason") {
		t.Errorf("unexpected reason suffix in %q", noReason.Message())
	}
}

func TestSubmissionError(t *testing.T) {
	err := NewSubmissionError("createProject", "broadcast", "0xabc", fmt.Errorf("nonce too low"))
	if err.Error() != "createProject: broadcast failed: nonce too low" {
		t.Errorf("unexpected error %q", err.Error())
	}
	if err.Step != "broadcast" || err.TxHash != "0xabc" {
		t.Errorf("unexpected fields %+v", err)
	}
}

func TestMalformedResultError(t *testing.T) {
	err := NewMalformedResultError("customer", "column 2 has length 1, want 2")
	if err.Error() != "malformed customer result: column 2 has length 1, want 2" {
		t.Errorf("unexpected error %q", err.Error())
	}
}

func TestConfirmationTimeoutError(t *testing.T) {
	err := NewConfirmationTimeoutError("0xdead", 2*time.Minute)
	if err.Error() != "transaction 0xdead not confirmed within 2m0s" {
		t.Errorf("unexpected error %q", err.Error())
	}
	if TxHashOf(err) != "0xdead" {
		t.Error("confirmation timeouts carry the transaction hash")
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if Wrap(nil, "context") != nil {
			t.Error("expected nil")
		}
	})

	t.Run("custom error keeps code", func(t *testing.T) {
		wrapped := Wrap(NewNotInitializedError("contract"), "get customer")
		if GetErrorCode(wrapped) != CodeNotInitialized {
			t.Errorf("expected %s, got %s", CodeNotInitialized, GetErrorCode(wrapped))
		}
		if !IsNotInitialized(wrapped) {
			t.Error("expected IsNotInitialized to see through wrap")
		}
	})

	t.Run("standard error becomes internal", func(t *testing.T) {
		wrapped := Wrapf(errors.New("boom"), "step %d", 3)
		if GetErrorCode(wrapped) != CodeInternal {
			t.Errorf("expected %s, got %s", CodeInternal, GetErrorCode(wrapped))
		}
		if wrapped.Error() != "step 3: boom" {
			t.Errorf("unexpected message %q", wrapped.Error())
		}
	})
}

func TestStackTrace(t *testing.T) {
	err := NewInternalError("boom", nil)
	if err.StackTrace() == "" {
		t.Error("expected captured stack")
	}
}

func TestCause(t *testing.T) {
	root := errors.New("root")
	err := Wrap(Wrap(root, "inner"), "outer")
	if Cause(err) != root {
		t.Errorf("expected root cause, got %v", Cause(err))
	}
}
