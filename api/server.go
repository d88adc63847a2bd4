/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for dashboards

ROUTE GROUPS:
  /api/employees/*     Employee facts and compensation read model
  /api/plans/*         Plan configuration
  /api/deals           Deal booking
  /api/collections/*   Collection & clawback transitions
  /api/rates           Exchange rates
  /api/team/*          Team roll-up
  /api/close-runs      Year-end close audit
  /api/admin/*         Manual triggers

SEE ALSO:
  - handlers.go: Handler implementations
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
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/compensation", h.GetCompensation)
			r.Get("/{id}/deals", h.ListDeals)
			r.Get("/{id}/collections", h.ListCollections)
			r.Put("/{id}/metrics", h.UpsertMetricFact)
			r.Put("/{id}/nrr", h.UpsertNRRFact)
		})

		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)
			r.Get("/{id}", h.GetPlan)
		})

		// Deal routes
		r.Post("/deals", h.BookDeal)

		// Collection routes
		r.Route("/collections", func(r chi.Router) {
			r.Get("/overdue", h.ListOverdueCollections)
			r.Post("/{id}/collect", h.MarkCollected)
			r.Post("/{id}/clawback", h.TriggerClawback)
		})

		// Exchange rate routes
		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.ListRates)
			r.Post("/", h.SaveRate)
		})

		// Team roll-up
		r.Get("/team/compensation", h.GetTeamCompensation)

		// Year-end close
		r.Get("/close-runs", h.ListCloseRuns)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/close", h.TriggerYearEndClose)
		})
	})

	return r
}
