// Package httpserver builds the process http.Server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for the given address and handler. The zero value
// http.Server carries no timeouts, so they are set here.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
