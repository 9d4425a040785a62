package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/requestcontext"
)

// Sanitizable request types canonicalize their fields before validation,
// typically by trimming whitespace.
type Sanitizable interface {
	Sanitize()
}

// Validatable request types check wire-level structure after decoding.
type Validatable interface {
	Validate() error
}

// DecodeJSON decodes a JSON request body into T. On failure it writes the
// 400 response itself and returns false; the handler just returns.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := r.Context()
		logger.WarnContext(ctx, "request body rejected",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	return &req, true
}

// DecodeAndPrepare decodes a JSON body, then runs the Sanitize and Validate
// hooks T implements. Sanitize runs first so validation always sees the
// canonical form.
//
//	req, ok := httputil.DecodeAndPrepare[dto.SaveConsentRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger)
	if !ok {
		return nil, false
	}

	if s, ok := any(req).(Sanitizable); ok {
		s.Sanitize()
	}
	v, ok := any(req).(Validatable)
	if !ok {
		return req, true
	}
	if err := v.Validate(); err != nil {
		ctx := r.Context()
		logger.WarnContext(ctx, "request failed validation",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		// A Validate that already classified its failure keeps that code;
		// anything else is a plain validation failure.
		var coded *dErrors.Error
		if !errors.As(err, &coded) {
			err = dErrors.New(dErrors.CodeValidation, err.Error())
		}
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
