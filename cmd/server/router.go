package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskdeck-api/internal/api"
	"github.com/phrazzld/taskdeck-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.accounts, app.accessTTL, app.refreshTTL)
	userHandler := api.NewUserHandler(app.accounts)

	r.Route("/api", func(r chi.Router) {
		// Public account endpoints
		r.Post("/users", authHandler.SignUp)
		r.Post("/users/verify", authHandler.Verify)
		r.Post("/users/resend-verification", authHandler.ResendVerification)
		r.Post("/login", authHandler.Login)
		r.Get("/logout", authHandler.Logout)
		r.Post("/password/reset", authHandler.RequestPasswordReset)
		r.Post("/password/update", authHandler.FulfillPasswordReset)

		// Owner-scoped endpoints
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(app.authMiddleware.RequireOwner)
			r.Get("/", userHandler.GetAccount)
			r.Patch("/", userHandler.UpdateProfile)
			r.Delete("/", userHandler.DeleteAccount)
			r.Patch("/password", userHandler.ChangePassword)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
