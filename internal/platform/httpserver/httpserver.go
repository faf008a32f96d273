// Package httpserver builds the process's http.Server.
package httpserver

import (
	"net/http"
	"time"

	"safenest/internal/platform/config"
)

// writeGrace keeps the connection writable past the request timeout so a
// handler whose context expired can still send its error response.
const writeGrace = 5 * time.Second

// New builds the server for cfg.Addr. The write timeout follows
// cfg.RequestTimeout.
func New(cfg config.Server, handler http.Handler) *http.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       requestTimeout,
		WriteTimeout:      requestTimeout + writeGrace,
		IdleTimeout:       60 * time.Second,
	}
}
