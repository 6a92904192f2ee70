// Package server implements the scripted demo backend: a websocket
// endpoint that accepts one task per conversation and streams the
// multi-agent update choreography back over a per-conversation bus topic.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cortex-on/agentdeck/pkg/config"
)

// Server owns the HTTP handlers, the conversation state and the bus.
type Server struct {
	cfg      config.ServerConfig
	bus      *bus
	mux      *http.ServeMux
	server   *http.Server
	upgrader websocket.Upgrader
	cm       *convManager
}

// New constructs a Server with its routes registered.
func New(cfg config.ServerConfig) (*Server, error) {
	b, err := newBus(cfg.Redis)
	if err != nil {
		return nil, errors.Wrap(err, "building event bus")
	}
	s := &Server{
		cfg:      cfg,
		bus:      b,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		cm:       &convManager{convs: make(map[string]*Conversation)},
	}
	s.registerHandlers()
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Run starts the HTTP server and blocks until a signal or the context
// shuts it down.
func (s *Server) Run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			log.Info().Msg("received interrupt signal, shutting down gracefully...")
		case <-egCtx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
			return err
		}
		log.Info().Msg("server shutdown complete")
		return nil
	})

	eg.Go(func() error {
		log.Info().Str("addr", s.cfg.Addr).Bool("redis", s.cfg.Redis.Enabled).Msg("starting demo backend")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server listen error")
			return err
		}
		return nil
	})

	return eg.Wait()
}

// Handler exposes the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// registerHandlers mounts the websocket endpoint on the server mux.
func (s *Server) registerHandlers() {
	s.mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		convID := r.URL.Query().Get("conv_id")
		if convID == "" {
			convID = uuid.NewString()
		}
		conv, err := s.getOrCreateConv(r.Context(), convID)
		if err != nil {
			log.Error().Err(err).Str("conv_id", convID).Msg("failed to join conversation")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"failed to join conversation"}`))
			_ = conn.Close()
			return
		}
		s.addConn(conv, conn)

		// The first text frame is the task; anything after that is noise
		// until the socket goes away.
		go func() {
			defer s.removeConn(conv, conn)
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				task := string(msg)
				if task == "" {
					continue
				}
				s.startRun(context.Background(), conv, task)
			}
		}()
	})

	s.mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}
