package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Route("/v1", func(r chi.Router) {
			// Public routes
			r.Post("/auth/signup", apiHandler.SignupHandler)
			r.Post("/auth/login", apiHandler.LoginHandler)

			// User-authenticated routes
			r.Group(func(r chi.Router) {
				r.Use(apiHandler.JWTAuthMiddleware)

				r.Post("/query", apiHandler.QueryHandler)
				r.Get("/query/threads", apiHandler.ListThreadsHandler)
				r.Get("/query/threads/{threadID}/messages", apiHandler.ThreadMessagesHandler)
			})
		})
	})

	return r
}
