// ABOUTME: HTTP server struct, constructor, and route wiring.
// ABOUTME: Public read-only catalog endpoints use huma; role-gated routes use chi middleware.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/doron007/realtechee-auth/internal/authz"
	"github.com/doron007/realtechee-auth/internal/config"
	"github.com/doron007/realtechee-auth/internal/inference"
	"github.com/doron007/realtechee-auth/internal/store"
)

// Server holds the dependencies for the HTTP layer.
type Server struct {
	store       *store.Store
	cfg         *config.Config
	engine      *inference.Engine
	rateLimiter *ipRateLimiter
}

// NewServer creates a Server. The inference engine is built from the
// configured protected admin address and operator company names.
func NewServer(s *store.Store, cfg *config.Config) *Server {
	evictTTL := cfg.RateLimitEvictTTL
	if evictTTL == 0 {
		evictTTL = 15 * time.Minute
	}
	// 30 requests per minute, burst of 10 — classification is cheap but
	// attacker-suppliable.
	rl := newIPRateLimiter(rate.Limit(30.0/60), 10, evictTTL)
	return &Server{
		store:       s,
		cfg:         cfg,
		engine:      inference.New(cfg.ProtectedAdminEmail, cfg.OperatorNames()),
		rateLimiter: rl,
	}
}

// Handler builds and returns the http.Handler.
func (srv *Server) Handler() http.Handler {
	var db *pgxpool.Pool
	if srv.store != nil {
		db = srv.store.Pool()
	}
	r := chi.NewRouter()

	// ── Security headers ─────────────────────────────────────────────────────
	// Must be first so they appear on every response including errors.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	})

	// ── Standard chi middleware ───────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	// 1 MB global body limit — contact payloads are small; anything larger is abuse.
	r.Use(middleware.RequestSize(1 << 20))
	r.Use(middleware.Recoverer)

	// ── Infrastructure endpoints ──────────────────────────────────────────────
	r.Get("/healthz", healthzHandler(db))
	r.Handle("/metrics", promhttp.Handler())

	// ── API v1 sub-router ────────────────────────────────────────────────────
	apiRouter := chi.NewRouter()

	// Public read-only role catalog via huma (OpenAPI 3.1).
	humaConfig := huma.DefaultConfig("RealTechee Auth API", "0.1.0")
	humaConfig.Info.Description = "Role hierarchy, permission catalog, and role inference"
	registerRoleCatalogRoutes(humachi.New(apiRouter, humaConfig))

	// User management (chi, not huma, for per-route RBAC middleware).
	apiRouter.Route("/users", func(r chi.Router) {
		r.Use(srv.RequireAuthenticated())
		r.Get("/me", srv.getMeHandler)
		r.With(srv.RequirePermission(authz.PermManageUsers)).Get("/", srv.listUsersHandler)

		r.Route("/{user_id}", func(r chi.Router) {
			r.Use(srv.RequireMinimumRole(authz.RoleAdmin))
			r.Patch("/role", srv.updateUserRoleHandler)
			r.Get("/role-events", srv.listRoleEventsHandler)
		})
	})

	// Inference endpoints: staff tooling, rate limited per client IP.
	apiRouter.Route("/inference", func(r chi.Router) {
		r.Use(srv.RequireAuthenticated())
		r.Use(srv.RequireMinimumRole(authz.RoleSRM))
		r.Use(srv.inferenceRateLimit())
		r.Post("/classify", srv.classifyHandler)
		r.Post("/possible-roles", srv.possibleRolesHandler)
		r.Post("/validate", srv.validateRoleHandler)
	})

	// Batch reclassify sweep over the contact table.
	apiRouter.With(
		srv.RequireAuthenticated(),
		srv.RequireMinimumRole(authz.RoleAdmin),
	).Post("/admin/reclassify", srv.reclassifyHandler)

	r.Mount("/api/v1", apiRouter)

	return r
}

// healthResponse is the JSON body for /healthz.
type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db,omitempty"`
}

// healthzHandler returns 200 {"status":"ok"} when the DB is reachable,
// or 503 {"status":"degraded","db":"unavailable"} when it is not.
func healthzHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		statusCode := http.StatusOK

		if db == nil {
			resp.Status = "degraded"
			resp.DB = "unavailable"
			statusCode = http.StatusServiceUnavailable
		} else if err := db.Ping(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "healthz: db ping failed", "error", err)
			resp.Status = "degraded"
			resp.DB = "unavailable"
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.ErrorContext(r.Context(), "healthz: failed to encode response", "error", err)
		}
	}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON: encode failed", "error", err)
	}
}
