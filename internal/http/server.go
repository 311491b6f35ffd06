// Package http exposes the JSON API. Handlers parse and validate requests,
// call the services and translate domain errors to status codes; no
// business rules live here.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"portfel/internal/cache"
	"portfel/internal/category"
	"portfel/internal/currency"
	"portfel/internal/log"
	"portfel/internal/services"
	"portfel/internal/store"
)

const (
	dashboardCacheSize = 256
	dashboardCacheTTL  = 30 * time.Second
)

// Deps carries everything the server needs. Rates may be nil when the
// exchange-rate endpoint is not wanted.
type Deps struct {
	Logger       *log.Logger
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Reports      *services.ReportingService
	Alerts       store.AlertStore
	Registry     *category.Registry
	Rates        *currency.RatesClient

	TopCategories int
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger

	transactions *services.TransactionService
	budgets      *services.BudgetService
	reports      *services.ReportingService
	alerts       store.AlertStore
	registry     *category.Registry
	rates        *currency.RatesClient

	topCategories  int
	dashboardCache *cache.LRU[[]byte]
	janitor        *cache.Janitor
	limiter        *rateLimiter
}

func NewServer(port string, deps Deps) *Server {
	s := &Server{
		logger:         deps.Logger.WithComponent(log.ComponentHTTP),
		transactions:   deps.Transactions,
		budgets:        deps.Budgets,
		reports:        deps.Reports,
		alerts:         deps.Alerts,
		registry:       deps.Registry,
		rates:          deps.Rates,
		topCategories:  deps.TopCategories,
		dashboardCache: cache.NewLRU[[]byte](dashboardCacheSize, dashboardCacheTTL),
		limiter:        newRateLimiter(),
	}
	s.janitor = cache.NewJanitor(s.dashboardCache)
	s.janitor.Start(time.Minute)

	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(log.Middleware(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.limiter.middleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Put("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/summary", s.handleDashboardSummary)
			r.Get("/monthly", s.handleDashboardMonthly)
			r.Get("/categories", s.handleDashboardCategories)
		})

		r.Get("/alerts", s.handleListAlerts)
		r.Get("/categories", s.handleListCategories)
		if s.rates != nil {
			r.Get("/rates/{code}", s.handleGetRate)
		}
	})

	return r
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the background loops.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
	s.limiter.stop()
	s.janitor.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ownerID pulls the owner from the query string. Stands in for an
// authenticated user id.
func ownerID(r *http.Request) string {
	return r.URL.Query().Get("owner")
}

func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := ownerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing_owner", "owner query parameter is required")
		return "", false
	}
	return owner, true
}
