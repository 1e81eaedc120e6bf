package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/taskledger/internal/api/v1"
	"github.com/gosuda/taskledger/internal/config"
	"github.com/gosuda/taskledger/internal/server/middleware"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PendingCounter reports the number of audit records awaiting a retry.
type PendingCounter interface {
	Len(ctx context.Context) (int64, error)
}

// Deps are the services the HTTP layer is wired to. Pending may be nil when
// audit records are written transactionally; Actors may be nil when actors
// are provisioned out of band.
type Deps struct {
	Tasks   v1.TaskService
	Audit   v1.AuditQuery
	DB      Pinger
	Pending PendingCounter
	Actors  middleware.ActorProvisioner
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	deps       Deps
}

// New creates a Server with all routes wired. ctx bounds the lifetime of
// background middleware state.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		deps:   deps,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Every /api/v1 route is authenticated. The ledger group is further
	// restricted to admins before any handler runs.
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		if deps.Actors != nil {
			r.Use(middleware.ProvisionActor(deps.Actors))
		}
		r.Use(middleware.RateLimit(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst))

		r.Group(func(r chi.Router) {
			apiConfig := huma.DefaultConfig("TaskLedger API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerTaskRoutes(api, deps.Tasks)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLedgerAccess())

			auditConfig := huma.DefaultConfig("TaskLedger Audit API", "1.0.0")
			auditConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			auditConfig.OpenAPIPath = "/audit/openapi"
			auditConfig.DocsPath = "/audit/docs"
			auditConfig.SchemasPath = "/audit/schemas"
			auditAPI := humachi.New(r, auditConfig)
			registerAuditRoutes(auditAPI, deps.Audit)
		})
	})

	// Health check (unauthenticated).
	router.With(middleware.RateLimitByIP(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst)).
		Get("/healthz", s.health)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

type healthResponse struct {
	Status       string `json:"status"`
	PendingAudit int64  `json:"pending_audit"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	status := http.StatusOK

	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health check: database unreachable")
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	if s.deps.Pending != nil {
		n, err := s.deps.Pending.Len(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("health check: pending audit queue unreachable")
		} else {
			resp.PendingAudit = n
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
