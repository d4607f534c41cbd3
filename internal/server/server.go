// Package server is the operator console's HTTP surface: five server-rendered
// screens over the hub's live snapshots, a small JSON/SSE API, and the
// operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/woomarket/console/internal/hub"
	"github.com/woomarket/console/internal/metrics"
	"github.com/woomarket/console/internal/store"
)

// Config holds the server configuration.
type Config struct {
	Addr   string
	Hub    *hub.Hub
	Store  store.Store
	Logger *slog.Logger
	Clock  clockwork.Clock

	// MutationRate limits operator mutations per client IP. Zero means the
	// default of 5/s with a burst of 10.
	MutationRate  rate.Limit
	MutationBurst int
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Hub == nil {
		return fmt.Errorf("hub is required")
	}
	if c.Store == nil {
		return fmt.Errorf("store is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.MutationRate == 0 {
		c.MutationRate = rate.Limit(5)
	}
	if c.MutationBurst == 0 {
		c.MutationBurst = 10
	}
	return nil
}

// Server is the console HTTP server.
type Server struct {
	router  *chi.Mux
	hub     *hub.Hub
	store   store.Store
	log     *slog.Logger
	clock   clockwork.Clock
	limiter *RateLimiter
	srv     *http.Server
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		hub:     cfg.Hub,
		store:   cfg.Store,
		log:     cfg.Logger,
		clock:   cfg.Clock,
		limiter: NewRateLimiter(cfg.MutationRate, cfg.MutationBurst),
	}

	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // the SSE stream stays open indefinitely
	}

	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Handle("/assets/*", http.FileServer(http.FS(uiFiles)))

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
		r.Get("/stream", s.handleStream)
		r.Get("/snapshot", s.handleSnapshot)
	})

	// Screens. Every one waits behind the readiness gate and every mutation
	// goes through the per-IP rate limiter.
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireReady)

		r.Get("/", s.handleDashboard)
		r.Get("/config", s.handleConfig)
		r.Get("/tasks", s.handleTasks)
		r.Get("/users", s.handleUsers)
		r.Get("/withdrawals", s.handleWithdrawals)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.handleRateLimited))
			r.Post("/config", s.handleConfigSave)
			r.Post("/tasks", s.handleTaskCreate)
			r.Post("/tasks/{id}", s.handleTaskUpdate)
			r.Post("/tasks/{id}/delete", s.handleTaskDelete)
			r.Post("/users/{id}/balance", s.handleUserBalance)
			r.Post("/withdrawals/{id}/approve", s.handleWithdrawalApprove)
			r.Post("/withdrawals/{id}/reject", s.handleWithdrawalReject)
			r.Post("/withdrawals/{id}/delete", s.handleWithdrawalDelete)
		})
	})

	// Unrecognized screens fall back to the dashboard.
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		http.NotFound(w, r)
	})
}

// requireReady serves a loading page until the initial snapshot of every
// collection has arrived.
func (s *Server) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.hub.IsReady() {
			w.Header().Set("Retry-After", "2")
			s.render(w, http.StatusServiceUnavailable, "loading",
				newBaseData(r, "Loading", ""))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleRateLimited renders the error screen for an over-limit mutation.
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	data := newBaseData(r, "Error", "")
	data.Error = "Too many requests. Slow down and try again."
	s.render(w, http.StatusTooManyRequests, "error", data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ready":  s.hub.IsReady(),
	})
}

// handleStream pushes hub change events via Server-Sent Events so the open
// screen can refresh itself when a collection snapshot is replaced.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, unlisten := s.hub.Listen()
	defer unlisten()

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event := <-events:
			data, err := json.Marshal(event)
			if err != nil {
				s.log.Error("failed to marshal hub event", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleSnapshot dumps the current state of all four collections as JSON.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	siteConfig, _ := s.hub.SiteConfig()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"config":              siteConfig,
		"tasks":               s.hub.Tasks(),
		"users":               s.hub.Users(),
		"withdrawal_requests": s.hub.Withdrawals(),
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// failAction reports a failed operator action and sends the operator back to
// the originating screen with the error banner set. Writes are never retried.
func (s *Server) failAction(w http.ResponseWriter, r *http.Request, screen, action string, err error) {
	s.log.Error("operator action failed", "action", action, "error", err)
	sentry.CaptureException(err)
	s.redirect(w, r, screen, url.Values{"error": {err.Error()}})
}

// redirect sends the operator to path with the given query parameters.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
