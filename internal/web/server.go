// Package web serves the run dashboard: a JSON API over the ledger, a
// websocket feed of live run events, and a small embedded status page.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/bus"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/ledger"
)

//go:embed static
var staticFiles embed.FS

// BatchLauncher starts a batch run and returns its run ID.
type BatchLauncher interface {
	RunBatch(ctx context.Context, adsorbates []string) (string, error)
}

type Server struct {
	ledger    *ledger.Ledger
	launcher  BatchLauncher
	events    *bus.Client
	hub       *Hub
	cfg       config.WebConfig
	version   string
	startedAt time.Time
}

// NewServer assembles the dashboard server. events may be nil; the
// websocket feed then stays silent.
func NewServer(l *ledger.Ledger, launcher BatchLauncher, events *bus.Client, cfg config.WebConfig, version string) *Server {
	return &Server{
		ledger:    l,
		launcher:  launcher,
		events:    events,
		hub:       NewHub(),
		cfg:       cfg,
		version:   version,
		startedAt: time.Now(),
	}
}

func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	s.subscribeEvents()

	mux := http.NewServeMux()
	s.registerAPI(mux)
	mux.HandleFunc("/api/ws", s.handleWebSocket)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("static fs: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	handler := s.withMiddleware(mux)
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	slog.Info("web server listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		if s.cfg.Auth != "" && strings.HasPrefix(r.URL.Path, "/api/") {
			if r.URL.Path != "/api/health" && !s.checkAuth(w, r) {
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// checkAuth validates Basic Auth against the configured password.
func (s *Server) checkAuth(w http.ResponseWriter, r *http.Request) bool {
	if _, pass, ok := r.BasicAuth(); ok && pass == s.cfg.Auth {
		return true
	}
	w.Header().Set("WWW-Authenticate", `Basic realm="hpfneb"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
	return false
}

// subscribeEvents forwards every run's event stream to the websocket hub.
func (s *Server) subscribeEvents() {
	if s.events == nil {
		return
	}
	_, err := s.events.Subscribe(bus.TopicRunsAll, func(msg *nats.Msg) {
		var event bus.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("invalid event payload", "error", err)
			return
		}
		s.hub.Broadcast(event)
	})
	if err != nil {
		slog.Error("event subscription failed", "error", err)
	}
}
