// Package api exposes the conversion table and the operator session over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ShoMaruoka/color-size-tool/internal/http/response"
	"github.com/ShoMaruoka/color-size-tool/internal/ratelimit"
	"github.com/ShoMaruoka/color-size-tool/internal/session"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
)

// Options configures the HTTP surface. A nil Limiter disables rate limiting.
type Options struct {
	CORSOrigins []string
	Limiter     *ratelimit.KeyedRateLimiter
}

// Server handles HTTP requests for the operator API.
type Server struct {
	table   *table.Table
	session *session.Session
	router  *chi.Mux
	api     huma.API
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(tbl *table.Table, sess *session.Session, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		table:   tbl,
		session: sess,
		router:  chi.NewRouter(),
		limiter: opts.Limiter,
		logger:  logger,
	}

	s.setupMiddleware(opts.CORSOrigins)

	humaConfig := huma.DefaultConfig("Color/Size Conversion API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the underlying huma API (used by tests and OpenAPI export).
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(corsOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(corsOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerEntryRoutes()
	s.registerSessionRoutes()
}
