// Package v1 wires the HTTP surface of the wealth service.
// It keeps handlers thin, delegating business rules to the service layer.
package v1

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/wealth/internal/service/advice"
	"github.com/tinoosan/wealth/internal/service/analytics"
	"github.com/tinoosan/wealth/internal/service/holding"
	"github.com/tinoosan/wealth/internal/service/networth"
	"github.com/tinoosan/wealth/internal/service/transaction"
	"github.com/tinoosan/wealth/internal/service/user"
)

// Deps are the services the API delegates to.
type Deps struct {
	Users        user.Service
	Transactions transaction.Service
	Holdings     holding.Service
	NetWorth     networth.Service
	Analytics    analytics.Service
	Advice       advice.Service
	// Ready is optional; nil means always ready.
	Ready ReadyChecker
	// Currency is assumed when a create request omits one.
	Currency string
	// AuthEnabled requires a bearer token on every user-scoped route.
	AuthEnabled bool
}

// Server wires handlers and middleware using Chi.
type Server struct {
	users       user.Service
	tx          transaction.Service
	holdings    holding.Service
	networth    networth.Service
	analytics   analytics.Service
	advice      advice.Service
	ready       ReadyChecker
	currency    string
	authEnabled bool
	log         *slog.Logger
	rt          *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by request logging, panic recovery and 500 responses.
func New(deps Deps, logger *slog.Logger) *Server {
	if logger == nil { logger = slog.Default() }
	if deps.Currency == "" { deps.Currency = "USD" }
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		users:       deps.Users,
		tx:          deps.Transactions,
		holdings:    deps.Holdings,
		networth:    deps.NetWorth,
		analytics:   deps.Analytics,
		advice:      deps.Advice,
		ready:       deps.Ready,
		currency:    deps.Currency,
		authEnabled: deps.AuthEnabled,
		log:         logger,
		rt:          r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())

	s.rt.Route("/v1", func(r chi.Router) {
		r.With(requireJSON).Post("/users", s.postUser)
		r.With(requireJSON).Post("/auth/login", s.login)
		r.Get("/dictionary/kinds", s.getKindsDictionary)

		r.Group(func(r chi.Router) {
			if s.authEnabled { r.Use(s.authenticate) }

			// Transactions
			r.With(requireJSON, s.validatePostTransaction()).Post("/transactions", s.postTransaction)
			r.With(s.validateListTransactions()).Get("/transactions", s.listTransactions)
			r.With(s.withUser).Get("/transactions/{id}", s.getTransaction)
			r.With(requireJSON, s.withUser).Patch("/transactions/{id}", s.patchTransaction)
			r.With(s.withUser).Delete("/transactions/{id}", s.deleteTransaction)

			// Assets
			r.With(requireJSON, s.validatePostAsset()).Post("/assets", s.postAsset)
			r.With(s.withUser).Get("/assets", s.listAssets)
			r.With(s.withUser).Get("/assets/{id}", s.getAsset)
			r.With(requireJSON, s.withUser).Patch("/assets/{id}", s.patchAsset)
			r.With(s.withUser).Delete("/assets/{id}", s.deleteAsset)
			r.With(s.withUser).Post("/assets/{id}/recompute", s.recomputeAsset)

			// Liabilities
			r.With(requireJSON, s.validatePostLiability()).Post("/liabilities", s.postLiability)
			r.With(s.withUser).Get("/liabilities", s.listLiabilities)
			r.With(s.withUser).Get("/liabilities/{id}", s.getLiability)
			r.With(requireJSON, s.withUser).Patch("/liabilities/{id}", s.patchLiability)
			r.With(s.withUser).Delete("/liabilities/{id}", s.deleteLiability)
			r.With(s.withUser).Post("/liabilities/{id}/recompute", s.recomputeLiability)

			// Insights
			r.With(s.withUser).Get("/net-worth", s.getNetWorth)
			r.With(s.withUser).Get("/analytics/spending-patterns", s.getSpendingPatterns)
			r.With(s.withUser).Get("/analytics/anomalies", s.getAnomalies)
			r.With(s.withUser).Get("/analytics/recommendations", s.getRecommendations)

			// Advice
			r.With(s.withUser).Get("/advice", s.getAdvice)
			r.With(s.withUser).Get("/advice/summary", s.getAdviceSummary)
			r.With(s.withUser).Get("/advice/anomalies", s.getAdviceAnomalies)
			r.With(requireJSON).Post("/advice/ask", s.postAdviceAsk)
		})
	})
}
