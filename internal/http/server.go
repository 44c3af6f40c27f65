// Package http exposes the expense engine as a JSON API. Identity
// resolution happens upstream: requests arrive with the verified family
// owner phone in the X-Owner-Phone header.
package http

import (
	"net/http"
	"time"

	"gastos/internal/cache"
	"gastos/internal/core"
	"gastos/internal/directory"
	"gastos/internal/log"
	"gastos/internal/registry"
	"gastos/internal/services"
)

type Server struct {
	http.Server

	expenses *services.ExpenseService
	dir      *directory.Service
	registry *registry.Service
	logger   *log.Logger

	// Summary views are cheap to cache and expensive to recompute on every
	// dashboard poll. Any write purges all three.
	categoryCache *cache.LRUCache[[]core.CategorySummary]
	summaryCache  *cache.LRUCache[core.MonthlySummary]
	insightsCache *cache.LRUCache[[]core.InsightCard]

	started time.Time
}

func NewServer(addr string, expenses *services.ExpenseService, dir *directory.Service, reg *registry.Service, logger *log.Logger, cacheSize int, cacheTTL time.Duration) *Server {
	s := &Server{
		expenses:      expenses,
		dir:           dir,
		registry:      reg,
		logger:        logger.WithComponent(log.ComponentHTTP),
		categoryCache: cache.NewLRUCache[[]core.CategorySummary](cacheSize, cacheTTL),
		summaryCache:  cache.NewLRUCache[core.MonthlySummary](cacheSize, cacheTTL),
		insightsCache: cache.NewLRUCache[[]core.InsightCard](cacheSize, cacheTTL),
		started:       time.Now(),
	}

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.withMiddleware(s.routes()),
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/users", s.handleRegisterFamily)
	mux.HandleFunc("POST /api/users/secondary", s.handleAddSecondary)
	mux.HandleFunc("GET /api/users/family", s.handleGetFamily)

	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PATCH /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("POST /api/expenses/bulk", s.handleCreateExpenses)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/expenses/recent", s.handleRecentExpenses)
	mux.HandleFunc("GET /api/expenses/by-category", s.handleByCategory)
	mux.HandleFunc("GET /api/expenses/daily-trend", s.handleDailyTrend)
	mux.HandleFunc("GET /api/expenses/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /api/expenses/monthly-summary", s.handleMonthlySummary)
	mux.HandleFunc("GET /api/expenses/insights", s.handleInsights)
	mux.HandleFunc("PATCH /api/expenses/{id}/category", s.handleReassignCategory)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	return mux
}

// Caches returns the server's caches for registration with a cleanup
// manager.
func (s *Server) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.categoryCache, s.summaryCache, s.insightsCache}
}

func (s *Server) purgeCaches() {
	s.categoryCache.Purge()
	s.summaryCache.Purge()
	s.insightsCache.Purge()
}
