// Package httputil writes the JSON response surface shared by every handler.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "tutela/pkg/domain-errors"
)

// statusFor maps each domain code to its response status. Codes without an
// entry are server faults.
var statusFor = map[dErrors.Code]int{
	dErrors.CodeNotFound:           http.StatusNotFound,
	dErrors.CodeBadRequest:         http.StatusBadRequest,
	dErrors.CodeInvalidInput:       http.StatusBadRequest,
	dErrors.CodeValidation:         http.StatusBadRequest,
	dErrors.CodeInvariantViolation: http.StatusBadRequest,
	dErrors.CodeConflict:           http.StatusConflict,
	dErrors.CodeTimeout:            http.StatusGatewayTimeout,
	dErrors.CodeUnavailable:        http.StatusServiceUnavailable,
	dErrors.CodeInternal:           http.StatusInternalServerError,
	dErrors.CodeAuditLogFailure:    http.StatusInternalServerError,
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already on the wire; a failed encode can only
	// truncate the body, never correct the status.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded error into its JSON response. Domain codes
// are already wire-shaped strings and go out verbatim in the "error" field;
// neither field ever names the backend.
func WriteError(w http.ResponseWriter, err error) {
	var coded *dErrors.Error
	if !errors.As(err, &coded) {
		// Uncoded errors stay opaque; their text may name hosts or drivers.
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": string(dErrors.CodeInternal),
		})
		return
	}

	status, ok := statusFor[coded.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	body := map[string]string{"error": string(coded.Code)}
	if coded.Message != "" {
		body["error_description"] = coded.Message
	}
	WriteJSON(w, status, body)
}
