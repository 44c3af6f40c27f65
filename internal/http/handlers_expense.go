package http

import (
	"encoding/json"
	"net/http"

	"gastos/internal/core"
	"gastos/internal/services"
)

type expenseRequest struct {
	Phone          string  `json:"phone"`
	Description    string  `json:"description"`
	Amount         float64 `json:"amount"`
	Category       string  `json:"category"`
	Date           string  `json:"date"`
	IsFamilyShared bool    `json:"isFamilyShared"`
}

func (req expenseRequest) toExpense() (core.Expense, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Phone:          req.Phone,
		Description:    req.Description,
		Amount:         core.MoneyFromUnits(req.Amount),
		Category:       req.Category,
		Date:           date,
		IsFamilyShared: req.IsFamilyShared,
	}, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, decodeErr(err))
		return
	}
	e, err := req.toExpense()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.expenses.CreateExpense(r.Context(), ownerPhone, e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.purgeCaches()
	s.writeJSON(w, http.StatusCreated, expenseJSON(saved))
}

func (s *Server) handleCreateExpenses(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var reqs []expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		s.writeError(w, r, decodeErr(err))
		return
	}
	batch := make([]core.Expense, len(reqs))
	for i, req := range reqs {
		e, err := req.toExpense()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		batch[i] = e
	}
	saved, err := s.expenses.CreateExpenses(r.Context(), ownerPhone, batch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.purgeCaches()
	s.writeJSON(w, http.StatusCreated, expensesJSON(saved))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ownerPhone, f, err := s.readQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.expenses.ListExpenses(r.Context(), ownerPhone, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, expensesJSON(out))
}

func (s *Server) handleRecentExpenses(w http.ResponseWriter, r *http.Request) {
	ownerPhone, f, err := s.readQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.expenses.RecentExpenses(r.Context(), ownerPhone, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, expensesJSON(out))
}

func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request) {
	ownerPhone, f, err := s.readQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	key := cacheKey(ownerPhone, r)
	if cached, ok := s.categoryCache.Get(key); ok {
		s.writeJSON(w, http.StatusOK, cached)
		return
	}
	out, err := s.expenses.ByCategory(r.Context(), ownerPhone, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.categoryCache.Set(key, out)
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDailyTrend(w http.ResponseWriter, r *http.Request) {
	ownerPhone, f, err := s.readQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.expenses.DailyTrend(r.Context(), ownerPhone, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	ownerPhone, f, err := s.readQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.expenses.Breakdown(r.Context(), ownerPhone, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	ownerPhone, f, err := s.readQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	key := cacheKey(ownerPhone, r)
	if cached, ok := s.summaryCache.Get(key); ok {
		s.writeJSON(w, http.StatusOK, cached)
		return
	}
	out, err := s.expenses.MonthlySummary(r.Context(), ownerPhone, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.summaryCache.Set(key, out)
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cached, ok := s.insightsCache.Get(ownerPhone); ok {
		s.writeJSON(w, http.StatusOK, cached)
		return
	}
	out, err := s.expenses.Insights(r.Context(), ownerPhone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.insightsCache.Set(ownerPhone, out)
	s.writeJSON(w, http.StatusOK, out)
}

type reassignCategoryRequest struct {
	Category string `json:"category"`
}

func (s *Server) handleReassignCategory(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req reassignCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, decodeErr(err))
		return
	}
	e, err := s.expenses.ReassignCategory(r.Context(), ownerPhone, id, req.Category)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.purgeCaches()
	s.writeJSON(w, http.StatusOK, expenseJSON(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ownerPhone, err := owner(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.expenses.DeleteExpense(r.Context(), ownerPhone, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.purgeCaches()
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// readQuery resolves the owner header and the shared filter parameters in
// one step for the read endpoints.
func (s *Server) readQuery(r *http.Request) (string, services.Filter, error) {
	ownerPhone, err := owner(r)
	if err != nil {
		return "", services.Filter{}, err
	}
	f, err := filterFromQuery(r)
	if err != nil {
		return "", services.Filter{}, err
	}
	return ownerPhone, f, nil
}

// cacheKey scopes cached summary payloads per family and query shape.
func cacheKey(ownerPhone string, r *http.Request) string {
	return ownerPhone + "|" + r.URL.RawQuery
}
