// Package router sets up all HTTP routes and middleware chains for the
// LLMAware API. It organizes routes into public, auth and admin groups
// with the appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"llmaware/internal/handlers"
	"llmaware/internal/middleware"
)

// Deps carries everything the router wires together.
type Deps struct {
	Sessions middleware.SessionStore
	Admins   middleware.AdminChecker
	Auth     *handlers.Auth
	Admin    *handlers.Admin
	Public   *handlers.Public

	// LoginLimiter throttles POST /api/auth/login. Nil disables it.
	LoginLimiter *middleware.RateLimiter
	// CORSOrigins lists the origins allowed to call /api. Empty allows none.
	CORSOrigins []string
	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
	Logger        *zap.Logger
}

// New creates and returns the configured Chi router.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", middleware.CSRFHeaderName},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		// Public blog API: no session, no CSRF.
		r.Group(d.Public.Routes)

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.LoadSession(d.Sessions, d.Logger))
			r.Use(middleware.NewCSRF(d.SecureCookies))

			r.Get("/csrf", d.Auth.CSRFToken)
			login := http.Handler(http.HandlerFunc(d.Auth.Login))
			if d.LoginLimiter != nil {
				login = d.LoginLimiter.Middleware(login)
			}
			r.Method(http.MethodPost, "/login", login)
			r.Post("/logout", d.Auth.Logout)

			// Second factor: a session is required, the factor itself is not.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/me", d.Auth.Me)
				r.Post("/2fa/setup", d.Auth.TwoFASetup)
				r.Post("/2fa/verify", d.Auth.TwoFAVerify)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.LoadSession(d.Sessions, d.Logger))
			r.Use(middleware.NewCSRF(d.SecureCookies))
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)
			r.Use(middleware.RequireAdmin(d.Admins, d.Sessions, d.Logger))
			d.Admin.Routes(r)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
