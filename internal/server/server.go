// Package server exposes the Blackjack environment to remote agents over
// WebSocket. Every connection owns its own game.Env.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/randutil"
	"github.com/lox/blackjackforbots/internal/statistics"
)

// Config controls the gateway.
type Config struct {
	Addr           string
	MaxConnections int
	Rules          game.Config
	Seed           int64
}

// Server accepts agent connections and runs one environment per session.
type Server struct {
	cfg      Config
	logger   zerolog.Logger
	upgrader websocket.Upgrader
	router   chi.Router

	nextSession atomic.Uint64
	active      atomic.Int64

	mu       sync.Mutex
	sessions map[*session]struct{}
	tally    statistics.Tally
}

// NewServer builds a gateway. A zero seed is replaced by a time seed.
func NewServer(cfg Config, logger zerolog.Logger) (*Server, error) {
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 64
	}
	cfg.Seed = randutil.Seed(cfg.Seed)

	s := &Server{
		cfg:    cfg,
		logger: logger.With().Str("component", "server").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sessions: make(map[*session]struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/ws", s.handleWebSocket)
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler serving all gateway routes.
func (s *Server) Handler() http.Handler { return s.router }

// Seed returns the seed sessions derive their streams from.
func (s *Server) Seed() int64 { return s.cfg.Seed }

// Serve accepts connections on l until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", l.Addr().String()).Int64("seed", s.cfg.Seed).Msg("Agent gateway listening")
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeSessions()
	return err
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, l)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

// Stats is the JSON body of /stats.
type Stats struct {
	ActiveSessions int64   `json:"active_sessions"`
	TotalSessions  uint64  `json:"total_sessions"`
	Rounds         int     `json:"rounds"`
	Wins           int     `json:"wins"`
	Draws          int     `json:"draws"`
	Losses         int     `json:"losses"`
	MeanReward     float64 `json:"mean_reward"`
}

// Stats returns a snapshot of gateway activity.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	t := s.tally
	s.mu.Unlock()
	return Stats{
		ActiveSessions: s.active.Load(),
		TotalSessions:  s.nextSession.Load(),
		Rounds:         t.Rounds,
		Wins:           t.Wins,
		Draws:          t.Draws,
		Losses:         t.Losses,
		MeanReward:     t.Mean(),
	}
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Stats()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write stats")
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.active.Load() >= int64(s.cfg.MaxConnections) {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	n := s.nextSession.Add(1)
	rng := randutil.New(randutil.Derive(s.cfg.Seed, n))
	env, err := game.NewEnv(rng, game.WithConfig(s.cfg.Rules))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create environment")
		_ = conn.Close()
		return
	}

	sess := newSession(conn, env, s)
	s.register(sess)
	sess.start()
}

func (s *Server) register(sess *session) {
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	s.active.Add(1)
	s.logger.Info().Str("session", sess.id).Int64("active", s.active.Load()).Msg("Agent connected")
}

func (s *Server) unregister(sess *session) {
	s.mu.Lock()
	_, ok := s.sessions[sess]
	delete(s.sessions, sess)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.active.Add(-1)
	s.logger.Info().
		Str("session", sess.id).
		Int64("rounds", sess.rounds.Load()).
		Int64("active", s.active.Load()).
		Msg("Agent disconnected")
}

func (s *Server) recordRound(r statistics.RoundResult) {
	s.mu.Lock()
	s.tally.Add(r)
	s.mu.Unlock()
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}
