// Package sentinel defines the error vocabulary between backends and the
// service layer.
package sentinel

import "errors"

// Backends return these, optionally wrapped; the service translates them
// into domain errors exactly once.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)
