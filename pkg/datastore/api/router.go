package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// RouterConfig controls how the API router is assembled.
type RouterConfig struct {
	// JWTSecret enables bearer-token auth when non-empty. Tokens must carry
	// a client_id claim identifying the tenant.
	JWTSecret string

	// DevTenant is the tenant identity assigned to every request when auth
	// is disabled.
	DevTenant string
}

// NewRouter assembles the full API surface under /api/v1.
func NewRouter(contentHandler *ContentHandler, projectHandler *ProjectHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.JWTSecret != "" {
				tokenAuth := NewTokenAuth(cfg.JWTSecret)
				r.Use(Verifier(tokenAuth))
				r.Use(TenantAuthenticator)
			} else {
				devTenant := cfg.DevTenant
				if devTenant == "" {
					devTenant = "dev"
				}
				r.Use(StaticTenant(devTenant))
			}

			r.Mount("/datastore/content", contentHandler.Routes())
			r.Get("/datastore/search", contentHandler.SearchContent)
			r.Mount("/projects", projectHandler.Routes())
		})
	})

	return r
}
