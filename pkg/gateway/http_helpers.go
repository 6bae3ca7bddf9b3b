package gateway

import (
	"errors"
	"net/http"

	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/httputil"
)

type statusResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Flush lets streaming handlers work through the wrapper.
func (w *statusResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// writeFailure renders err with the gateway's status policy: bad input is a
// 400 and an unknown journal entry a 404, a result that does not match its
// schema is a 500, and chain failures keep the 200 envelope with a code and,
// for a failed submission, the step it failed in.
func writeFailure(w http.ResponseWriter, err error) {
	code := apperrors.GetErrorCode(err)
	switch code {
	case apperrors.CodeValidation, apperrors.CodeInvalidArgument:
		fields := map[string]any{"code": code}
		var ve *apperrors.ValidationError
		if errors.As(err, &ve) && ve.Field != "" {
			fields["field"] = ve.Field
		}
		httputil.WriteErrorWithFields(w, http.StatusBadRequest, apperrors.GetErrorMessage(err), fields)
	case apperrors.CodeNotFound:
		httputil.WriteErrorWithFields(w, http.StatusNotFound, apperrors.GetErrorMessage(err), map[string]any{"code": code})
	case apperrors.CodeMalformedResult:
		httputil.WriteErrorWithFields(w, http.StatusInternalServerError, err.Error(), map[string]any{"code": code})
	case apperrors.CodeNotInitialized,
		apperrors.CodeEndpointUnreachable,
		apperrors.CodeEstimationFailed,
		apperrors.CodeSubmissionFailed,
		apperrors.CodeCallFailed,
		apperrors.CodeConfirmationTimeout,
		apperrors.CodeTimeout:
		fields := map[string]any{"code": code}
		if hash := apperrors.TxHashOf(err); hash != "" {
			fields["transaction_hash"] = hash
		}
		var se *apperrors.SubmissionError
		if errors.As(err, &se) {
			fields["step"] = se.Step
		}
		httputil.WriteErrorWithFields(w, http.StatusOK, err.Error(), fields)
	default:
		httputil.WriteErrorWithFields(w, apperrors.StatusCode(err), err.Error(), map[string]any{"code": code})
	}
}
