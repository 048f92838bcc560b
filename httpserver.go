package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/cors"
)

// Server serves the request counter over HTTP. Every method on every path
// reaches the same countHandler.
type Server struct {
	cfg        *Config
	httpServer *http.Server

	started  atomic.Bool
	listener net.Listener
	wg       sync.WaitGroup
	errChan  chan error
}

// NewServer wires the counter into a handler tree. Nothing is bound until
// Start is called.
func NewServer(cfg *Config, counter *RequestCounter) *Server {
	router := http.NewServeMux()
	router.Handle("/", newCountHandler(counter))

	// CORS only decorates responses. Preflights are passed through so they
	// are counted like any other request.
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:     []string{"*"},
		OptionsPassthrough: true,
	})

	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Handler:           c.Handler(router),
			ReadHeaderTimeout: 10 * time.Second,
		},
		errChan: make(chan error, 1),
	}
}

// Start binds the listen address and begins serving in the background. A
// bind failure is returned directly, no request is served, and Start may be
// called again once the address is free.
func (s *Server) Start() error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("server already started")
	}

	lis, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		// Nothing was bound, so a later Start may try again.
		s.started.Store(false)
		return fmt.Errorf("unable to listen on %s: %w",
			s.cfg.ListenAddr, err)
	}
	s.listener = lis

	s.wg.Add(1)
	go s.serve()

	log.Infof("Request counter listening on %s", lis.Addr())
	return nil
}

func (s *Server) serve() {
	defer s.wg.Done()

	err := s.httpServer.Serve(s.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("HTTP server stopped: %v", err)
		s.errChan <- err
	}
}

// Addr returns the bound address, or nil before a successful Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Errors delivers at most one error if serving fails after Start.
func (s *Server) Errors() <-chan error {
	return s.errChan
}

// Stop waits up to the configured shutdown timeout for in-flight requests,
// then closes the listener.
func (s *Server) Stop() error {
	if s.listener == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		log.Warnf("Graceful shutdown failed, closing: %v", err)
		err = s.httpServer.Close()
	}
	s.wg.Wait()

	log.Infof("Request counter on %s stopped", s.listener.Addr())
	return err
}
