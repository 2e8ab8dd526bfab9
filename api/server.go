/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the reporting frontend

ROUTE GROUPS:
  /api/accounts/*   Chart of accounts
  /api/entries/*    Journal entry lifecycle
  /api/periods/*    Fiscal periods and closing
  /api/reports/*    Trial balance and financial statements
  /api/bridge/*     Source-transaction journalizers
  /api/admin/*      Chart seeding

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/ledgerd/main.go: Server startup
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
		// Chart of accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Get("/{id}/balance", h.GetAccountBalance)
			r.Get("/{id}/ledger", h.GetAccountLedger)
			r.Post("/{id}/deactivate", h.DeactivateAccount)
			r.Post("/{id}/reactivate", h.ReactivateAccount)
			r.Delete("/{id}", h.DeleteAccount)
		})

		// Journal entries
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.CreateEntry)
			r.Get("/{id}", h.GetEntry)
			r.Post("/{id}/post", h.PostEntry)
			r.Post("/{id}/unpost", h.UnpostEntry)
			r.Post("/{id}/void", h.VoidEntry)
			r.Delete("/{id}", h.DeleteEntry)
		})

		// Fiscal periods
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/", h.CreatePeriod)
			r.Get("/{id}", h.GetPeriod)
			r.Post("/{id}/close", h.ClosePeriod)
			r.Get("/{id}/retained-earnings", h.GetRetainedEarnings)
		})

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Get("/trial-balance", h.GetTrialBalance)
			r.Get("/income-statement", h.GetIncomeStatement)
			r.Get("/balance-sheet", h.GetBalanceSheet)
			r.Get("/cash-flow", h.GetCashFlow)
			r.Get("/general-ledger", h.GetGeneralLedger)
		})

		// Source-transaction journalizers
		r.Route("/bridge", func(r chi.Router) {
			r.Post("/sales", h.RecordSale)
			r.Post("/purchases", h.RecordPurchase)
			r.Post("/returns", h.RecordReturn)
			r.Post("/payroll", h.RecordPayroll)
			r.Post("/shrinkage", h.RecordShrinkage)
		})

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Post("/seed-chart", h.SeedChart)
		})
	})

	return r
}
