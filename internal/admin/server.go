// Package admin serves the operator surface: a JSON status endpoint and
// a WebSocket feed of recommendations as they are persisted.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/kinobot/internal/channel"
	"github.com/soyeahso/kinobot/internal/config"
	"github.com/soyeahso/kinobot/internal/domain"
	"github.com/soyeahso/kinobot/internal/logging"
	"github.com/soyeahso/kinobot/internal/version"
)

// SessionCounter reports in-flight dialog counts. The dialog engine
// satisfies it.
type SessionCounter interface {
	ActiveSessions() int
}

// StoreCounter reports persisted totals and recent activity. The store
// satisfies it.
type StoreCounter interface {
	CountUsers(ctx context.Context) (int, error)
	CountRequests(ctx context.Context) (int, error)
	RecentRequests(ctx context.Context, limit int) ([]domain.RecommendationRequest, error)
}

// Server is the admin HTTP + WebSocket server. Its RecommendationSaved
// method makes it a dialog notifier: each persisted recommendation is
// broadcast to connected feed subscribers.
type Server struct {
	cfg      config.AdminConfig
	log      *logging.Logger
	channels *channel.Registry
	sessions SessionCounter
	store    StoreCounter

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// New creates an admin server.
func New(cfg config.AdminConfig, channels *channel.Registry, sessions SessionCounter, store StoreCounter, log *logging.Logger) *Server {
	return &Server{
		cfg:      cfg,
		log:      log.Sub("admin"),
		channels: channels,
		sessions: sessions,
		store:    store,
		conns:    make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// statusResponse is the /status payload.
type statusResponse struct {
	Version        string                         `json:"version"`
	UptimeSeconds  int64                          `json:"uptimeSeconds"`
	ActiveSessions int                            `json:"activeSessions"`
	Users          int                            `json:"users"`
	Requests       int                            `json:"requests"`
	Channels       []domain.ChannelStatus         `json:"channels"`
	Recent         []domain.RecommendationRequest `json:"recent,omitempty"`
}

// recentLimit caps the recent-activity slice in /status.
const recentLimit = 10

// feedEvent is one WebSocket feed frame.
type feedEvent struct {
	Type           string                       `json:"type"`
	Recommendation domain.RecommendationRequest `json:"recommendation"`
}

// Start listens on the configured port until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.startedAt = time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.withAuth(s.handleStatus))
	mux.HandleFunc("/feed", s.withAuth(s.handleFeed))

	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("admin: listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		s.Stop(context.Background())
	}()

	s.log.Info().Str("addr", addr).Msg("admin server listening")
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("admin: serve: %w", err)
	}
	return nil
}

// Stop shuts the server down, closing any open feed connections.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// RecommendationSaved broadcasts a persisted recommendation to feed
// subscribers. Dead connections are dropped on write failure.
func (s *Server) RecommendationSaved(req domain.RecommendationRequest) {
	frame := feedEvent{Type: "recommendation", Recommendation: req}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(frame); err != nil {
			s.log.Debug().Err(err).Msg("dropping dead feed subscriber")
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

// Subscribers returns the number of connected feed clients.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// withAuth enforces the configured bearer token. An empty token leaves
// the server open, which Validate rejects for enabled configs.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token != "" {
			got := r.Header.Get("Authorization")
			want := "Bearer " + s.cfg.Token
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := s.store.CountUsers(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count users")
	}
	requests, err := s.store.CountRequests(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count requests")
	}
	recent, err := s.store.RecentRequests(ctx, recentLimit)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load recent requests")
	}

	resp := statusResponse{
		Version:        version.Version,
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		ActiveSessions: s.sessions.ActiveSessions(),
		Users:          users,
		Requests:       requests,
		Channels:       s.channels.Status(),
		Recent:         recent,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error().Err(err).Msg("failed to encode status")
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("feed upgrade failed")
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	s.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("feed subscriber connected")

	// Drain the read side so pings and close frames are processed; the
	// feed is write-only from the server's perspective.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
