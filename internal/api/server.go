// Package api provides the HTTP API server and handlers for AlbumDuel.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/albumduel/albumduel-server/internal/linkstore"
	"github.com/albumduel/albumduel-server/internal/ratelimit"
	"github.com/albumduel/albumduel-server/internal/store"
)

// Options holds the non-service settings of the server.
type Options struct {
	// CORSOrigins lists the allowed browser origins. Empty disables CORS.
	CORSOrigins []string
	// CollaboratorSecret must be presented by the authentication
	// collaborator when it requests tokens. Empty accepts any caller.
	CollaboratorSecret string
	// Gatherer backs /metrics. Nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
	// TokenLimiter throttles token requests per client IP. Nil disables it.
	TokenLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	api      huma.API
	router   *chi.Mux
	services *Services
	store    store.Store
	links    linkstore.Store
	opts     Options
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, st store.Store, links linkstore.Store, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		router:   router,
		services: services,
		store:    st,
		links:    links,
		opts:     opts,
		logger:   logger,
	}

	s.setupMiddleware()

	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	RegisterErrorHandler()

	humaConfig := huma.DefaultConfig("AlbumDuel API", "1.0.0")
	humaConfig.Info.Description = "Pairwise album comparisons and personal rankings."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(router, humaConfig)

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(s.opts.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.Use(authMiddleware(s.services.Auth))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerCompareRoutes()
	s.registerRankingRoutes()
	s.registerLibraryRoutes()
	s.registerExclusionRoutes()
	s.registerLinkRoutes()
	s.registerAdminRoutes()
}

// bearerAuth is the security requirement attached to protected operations.
var bearerAuth = []map[string][]string{{"bearer": {}}}
