// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package server exposes an auction host through a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouteRegistrar is implemented by components contributing routes to the
// server's router.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

type Config struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// GracefulShutdownDuration bounds the time to wait for in-flight requests
	// when the server is stopped.
	GracefulShutdownDuration time.Duration

	Logger log.Logger
}

// Server is the HTTP front end of the auction daemon.
type Server struct {
	cfg Config
	log log.Logger
	srv *http.Server
}

func New(cfg Config, registrars ...RouteRegistrar) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Root()
	}
	if cfg.GracefulShutdownDuration == 0 {
		cfg.GracefulShutdownDuration = 5 * time.Second
	}
	res := &Server{
		cfg: cfg,
		log: cfg.Logger.New("module", "server"),
	}
	res.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      res.createRouter(registrars),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return res
}

// Handler returns the router serving all registered routes.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) createRouter(registrars []RouteRegistrar) http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(s.requestLogger)

	for _, registrar := range registrars {
		registrar.RegisterRoutes(mux)
	}

	mux.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{Status: "alive"})
	})
	return mux
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("Served request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestID", middleware.GetReqID(r.Context()),
		)
	})
}

// Run serves requests until the context is cancelled and then shuts the
// server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", "listenAddress", s.cfg.ListenAddr)
		errs <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Graceful HTTP server shutdown failed", "err", err)
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("HTTP server gracefully stopped")
	return nil
}
