package devtools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/signalscope/internal/errors"
	"github.com/vango-dev/signalscope/pkg/scope"
)

// TrackerState is a point-in-time view of a tracker.
type TrackerState struct {
	ActiveScope uint64 `json:"activeScope,omitempty"`
	ActiveMode  string `json:"activeMode,omitempty"`
	ReaperArmed bool   `json:"reaperArmed"`
	Reaped      uint64 `json:"reaped"`
}

// Inspector reports tracker state. It is called on an HTTP goroutine.
type Inspector func() (TrackerState, error)

// TrackerInspector reads tr on its owning goroutine through run, typically
// a loop's Do method.
func TrackerInspector(tr *scope.Tracker, run func(func()) error) Inspector {
	return func() (TrackerState, error) {
		var st TrackerState
		err := run(func() {
			if s := tr.Active(); s != nil {
				st.ActiveScope = s.ID()
				st.ActiveMode = s.Mode().String()
			}
			st.ReaperArmed = tr.ReaperArmed()
			st.Reaped = tr.Reaped()
		})
		return st, err
	}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer sets the metrics source for /metrics.
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithInspector sets the tracker inspector used by /debug/scopes.
func WithInspector(in Inspector) Option {
	return func(s *Server) {
		s.inspect = in
	}
}

// Server is the devtools HTTP server.
type Server struct {
	feed     *Feed
	gatherer prometheus.Gatherer
	inspect  Inspector
	logger   *slog.Logger
	router   chi.Router
	http     *http.Server
}

// NewServer builds the devtools router around feed.
func NewServer(feed *Feed, opts ...Option) *Server {
	s := &Server{
		feed:     feed,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/debug/scopes", s.handleScopes)
	r.Handle("/ws", feed)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ScopesResponse is the body of /debug/scopes.
type ScopesResponse struct {
	Tracker *TrackerState     `json:"tracker,omitempty"`
	Counts  map[string]uint64 `json:"counts"`
	Recent  []EventMessage    `json:"recent"`
	Clients int               `json:"clients"`
}

func (s *Server) handleScopes(w http.ResponseWriter, r *http.Request) {
	resp := ScopesResponse{
		Counts:  s.feed.Counts(),
		Recent:  s.feed.Recent(),
		Clients: s.feed.ClientCount(),
	}
	if s.inspect != nil {
		st, err := s.inspect()
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		resp.Tracker = &st
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("devtools encode failed", "error", err)
	}
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.New("S020").WithDetail(addr).Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devtools listening", "addr", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.New("S020").Wrap(err)
	case <-ctx.Done():
	}

	s.feed.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
