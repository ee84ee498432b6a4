// Package web provides the HTTP server, HTML pages and JSON API of the
// carpet dashboard.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/carpetgrid/internal/config"
	"github.com/JonMunkholm/carpetgrid/internal/core"
	"github.com/JonMunkholm/carpetgrid/internal/metrics"
	webmw "github.com/JonMunkholm/carpetgrid/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Options configures a Server.
type Options struct {
	Config  *config.Config
	Metrics *metrics.Collector
}

// Server is the HTTP server for the dashboard.
type Server struct {
	service *core.Service
	cfg     *config.Config
	metrics *metrics.Collector
	router  *chi.Mux
	server  *http.Server

	limiters []*rateLimiter
}

// NewServer creates a new Server instance. A nil Config uses the defaults.
func NewServer(service *core.Service, opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		service: service,
		cfg:     cfg,
		metrics: opts.Metrics,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	if s.metrics != nil {
		s.router.Use(webmw.Metrics(s.metrics))
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := s.newLimiter(s.cfg.Rate.RequestsPerMinute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}
	s.router.Get("/healthz", s.handleHealth)

	timeout := middleware.Timeout(s.cfg.Server.RequestTimeout)
	mutations := s.mutationLimit()

	// Pages
	s.router.With(timeout).Get("/", s.handleRoot)
	s.router.With(timeout).Get("/analytics", s.handleAnalytics)
	s.router.With(timeout).Get("/audit-log", s.handleAuditLog)

	s.router.Route("/pages/{pageKey}", func(r chi.Router) {
		r.Use(timeout)
		r.Get("/", s.handlePage)

		// Form posts redirect back to the page
		r.Group(func(r chi.Router) {
			r.Use(mutations)
			r.Post("/rows", s.handleFormAddRow)
			r.Post("/rows/{index}/edit", s.handleFormStartEdit)
			r.Post("/rows/{index}/delete", s.handleFormDeleteRow)
			r.Post("/edit", s.handleFormSaveEdit)
			r.Post("/edit/cancel", s.handleFormCancelEdit)
			r.Post("/modals/{modal}/open", s.handleFormOpenModal)
			r.Post("/modals/{modal}/close", s.handleFormCloseModal)
			r.Post("/columns", s.handleFormAddColumn)
			r.Post("/columns/delete", s.handleFormDeleteColumn)
			r.Post("/columns/manage", s.handleFormManageColumns)
			r.Post("/columns/toggle", s.handleFormToggleColumn)
			r.Post("/reset", s.handleFormReset)
		})
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.With(timeout).Get("/pages", s.handleListPages)
		r.With(timeout).Get("/dashboard", s.handleDashboardJSON)
		r.With(timeout).Get("/analytics", s.handleAnalyticsJSON)

		r.With(timeout).Get("/audit-log", s.handleAuditLogJSON)
		r.With(timeout).Get("/audit-log/export", s.handleAuditLogExport)
		r.With(timeout).Get("/audit-log/{id}", s.handleAuditLogEntry)

		r.Route("/pages/{pageKey}", func(r chi.Router) {
			// Change streams are long-lived and skip the request timeout
			r.Get("/events", s.handlePageEvents)

			r.Group(func(r chi.Router) {
				r.Use(timeout)
				r.Get("/", s.handleGetPage)
				r.Get("/view", s.handleGetView)
				r.Post("/view", s.handleUpdateView)
				r.Get("/rows", s.handleGetRows)
				r.Get("/columns", s.handleGetColumns)
				r.Get("/summary", s.handleGetSummary)
				r.Get("/message", s.handleGetMessage)
				r.Get("/modals", s.handleGetModals)
				r.Get("/edit", s.handleGetEdit)
				r.Get("/rows/{index}/delete-prompt", s.handleDeletePrompt)
			})

			r.Group(func(r chi.Router) {
				r.Use(timeout, mutations)
				r.Post("/rows", s.handleAddRow)
				r.Delete("/rows/{index}", s.handleDeleteRow)
				r.Post("/columns", s.handleAddColumn)
				r.Put("/columns/{label}", s.handleRenameColumn)
				r.Delete("/columns/{label}", s.handleDeleteColumn)
				r.Put("/columns/{label}/hidden", s.handleSetHidden)
				r.Post("/edit", s.handleStartEdit)
				r.Put("/edit", s.handleStageEdit)
				r.Post("/edit/save", s.handleSaveEdit)
				r.Delete("/edit", s.handleCancelEdit)
				r.Post("/edit/delete", s.handleDeleteEditingRow)
				r.Post("/modals/{modal}", s.handleOpenModal)
				r.Delete("/modals/{modal}", s.handleCloseModal)
				r.Post("/reset", s.handleReset)
			})
		})
	})
}

// mutationLimit returns the limiter for endpoints that change a page.
func (s *Server) mutationLimit() func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.newLimiter(s.cfg.Rate.MutationLimit).middleware
}

func (s *Server) newLimiter(perMinute int) *rateLimiter {
	l := newRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, l)
	return l
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	sc := s.cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout, // 0 keeps event streams open
		IdleTimeout:  sc.IdleTimeout,
	}

	slog.Info("starting server", "addr", sc.Addr())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "pages": len(s.service.ListPages())})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; connect-src 'self'")
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	slog.Warn("http error", "status", status, "message", message)
	writeJSONStatus(w, status, map[string]string{"error": message})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
