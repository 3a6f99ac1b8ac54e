// Package router sets up all HTTP routes and middleware chains for the
// pressroom template service. It organizes routes into public and admin
// groups with appropriate middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pressroom/internal/handlers"
	"pressroom/internal/middleware"
)

// renderRateLimit caps public render requests per client per minute.
const renderRateLimit = 300

// New creates and returns the configured chi router with all middleware
// and route groups wired up. The admin API is guarded by totpSecret and
// is not mounted at all when the secret is empty.
func New(public *handlers.Public, admin *handlers.Admin, totpSecret string) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check — no auth, no rate limit.
	r.Get("/health", healthHandler)

	// Management API — every route requires a valid TOTP code.
	if totpSecret != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireTOTP(totpSecret))

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", admin.TemplateList)
				r.Get("/*", admin.TemplateGet)
				r.Put("/*", admin.TemplateSave)
				r.Delete("/*", admin.TemplateDelete)
			})

			r.Route("/revisions", func(r chi.Router) {
				r.Get("/*", admin.RevisionList)
				r.Post("/*", admin.RevisionRestore)
			})

			r.Post("/preview", admin.Preview)
			r.Post("/validate", admin.Validate)

			r.Route("/cache", func(r chi.Router) {
				r.Get("/log", admin.CacheLogList)
				r.Delete("/", admin.CacheInvalidateAll)
				r.Delete("/*", admin.CacheInvalidate)
			})

			r.Get("/totp", admin.TOTPQR)
		})
	}

	// Public render routes — rate limited per client.
	limiter := middleware.NewRateLimiter(renderRateLimit, time.Minute)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/pages/*", public.Render)
		r.Post("/pages/*", public.RenderWithModel)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
