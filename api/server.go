/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:        Request logging
  2. Recoverer:     Panic recovery (500 instead of crash)
  3. RequestID:     Unique ID per request for tracing
  4. CORS:          Cross-origin requests for frontend
  5. requireWorker: X-Worker-ID header required on /api routes

ROUTE GROUPS:
  /api/session        Session hydration and sign-out
  /api/calendar/*     Month grids
  /api/entries/*      Daily entries
  /api/week*          Week summaries and submission

SEE ALSO:
  - handlers.go: Handler implementations
  - session.go: Worker identification and per-user state
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", workerHeader},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(requireWorker)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.SignOut)
		})

		r.Get("/calendar/{year}/{month}", h.GetMonth)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/{date}", h.GetEntry)
			r.Put("/{date}", h.PutEntry)
			r.Delete("/{date}", h.DeleteEntry)
		})

		r.Route("/week", func(r chi.Router) {
			r.Get("/", h.GetWeek)
			r.Post("/submit", h.SubmitWeek)
		})
		r.Get("/weeks/submitted", h.ListSubmittedWeeks)
	})

	return r
}
