// Package httpserver provides the HTTP/HTTPS server for refstate.
package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server serves the refstate router over HTTP or HTTPS.
type Server struct {
	srv *http.Server
}

// New returns a Server for addr. It does not listen until Start or Serve.
func New(addr string, h http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}}
}

// SetTLSConfig switches the server to HTTPS. cfg must supply certificates,
// typically through GetCertificate.
func (s *Server) SetTLSConfig(cfg *tls.Config) {
	s.srv.TLSConfig = cfg
}

// TLS reports whether SetTLSConfig was called.
func (s *Server) TLS() bool {
	return s.srv.TLSConfig != nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start listens on Addr and blocks until Shutdown. A clean shutdown
// returns nil.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln, over TLS when configured.
func (s *Server) Serve(ln net.Listener) error {
	var err error
	if s.TLS() {
		err = s.srv.ServeTLS(ln, "", "")
	} else {
		err = s.srv.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
