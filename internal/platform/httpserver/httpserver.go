package httpserver

import (
	"net/http"
	"time"
)

// New builds the server with connection-level timeouts. Per-request budgets
// live in the middleware chain; these exist so an idle or trickling client
// cannot hold a connection open forever.
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
