// Package httpapi assembles the service router. Feature handlers register
// their own routes; this package owns the middleware chain and the role
// boundaries between route groups.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"suraksha/internal/platform/metrics"
	authmw "suraksha/pkg/platform/middleware/auth"
	"suraksha/pkg/platform/middleware/metadata"
	"suraksha/pkg/platform/middleware/requestid"
	"suraksha/pkg/platform/middleware/requesttime"
	"suraksha/pkg/requestcontext"
)

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(r chi.Router)
}

// Config wires the router. Auth routes are public but rate limited; the
// worker, police and company groups sit behind token auth with role checks.
type Config struct {
	Logger    *slog.Logger
	Validator authmw.TokenValidator
	Metrics   *metrics.HTTP

	Auth       Registrar
	Worker     Registrar
	Police     Registrar
	Company    Registrar
	Disclosure Registrar

	// AuthLimiter throttles the unauthenticated auth endpoints. Nil
	// disables throttling.
	AuthLimiter func(http.Handler) http.Handler
}

// New builds the full router.
func New(cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public disclosure surface: the scan URL and the JSON lookup.
	cfg.Disclosure.Register(r)

	r.Route("/api/auth", func(r chi.Router) {
		if cfg.AuthLimiter != nil {
			r.Use(cfg.AuthLimiter)
		}
		cfg.Auth.Register(r)
	})

	r.Route("/api/worker", func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Validator, cfg.Logger))
		r.Use(authmw.RequireRole(cfg.Logger, requestcontext.RoleWorker))
		cfg.Worker.Register(r)
	})

	r.Route("/api/police", func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Validator, cfg.Logger))
		r.Use(authmw.RequireRole(cfg.Logger, requestcontext.RolePolice, requestcontext.RoleAdmin))
		cfg.Police.Register(r)
	})

	r.Route("/api/company", func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Validator, cfg.Logger))
		r.Use(authmw.RequireRole(cfg.Logger, requestcontext.RoleCompany))
		cfg.Company.Register(r)
	})

	return r
}
