package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gastos/internal/directory"
	"gastos/internal/ledger/memory"
	"gastos/internal/log"
	"gastos/internal/registry"
	"gastos/internal/services"
)

const testOwner = "5551234567"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.New()
	dir := directory.New(store)
	reg := registry.New(store)
	expenses := services.NewExpenseService(store, dir, reg, nil)
	logger := log.New(log.DefaultConfig())
	return NewServer(":0", expenses, dir, reg, logger, 16, time.Minute)
}

func doJSON(t *testing.T, srv *Server, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if owner != "" {
		req.Header.Set(ownerHeader, owner)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
	}
}

func registerFamily(t *testing.T, srv *Server) {
	t.Helper()
	mustStatus(t, doJSON(t, srv, http.MethodPost, "/api/users", "", map[string]string{"phone": testOwner}), http.StatusCreated)
}

func createCategory(t *testing.T, srv *Server, name string) {
	t.Helper()
	mustStatus(t, doJSON(t, srv, http.MethodPost, "/api/categories", testOwner, map[string]string{"name": name}), http.StatusCreated)
}

func createExpense(t *testing.T, srv *Server, desc string, amount float64, category, date string) expenseView {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", testOwner, map[string]any{
		"phone":       testOwner,
		"description": desc,
		"amount":      amount,
		"category":    category,
		"date":        date,
	})
	mustStatus(t, rec, http.StatusCreated)
	return decode[expenseView](t, rec)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	mustStatus(t, rec, http.StatusOK)
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestFamilyEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/users", "", map[string]string{"phone": testOwner})
	mustStatus(t, rec, http.StatusCreated)
	f := decode[familyView](t, rec)
	if f.MainPhone != testOwner || len(f.SecondaryPhones) != 0 {
		t.Errorf("family = %+v", f)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/users/secondary", testOwner, map[string]string{"phone": "5557654321"})
	mustStatus(t, rec, http.StatusOK)

	rec = doJSON(t, srv, http.MethodGet, "/api/users/family", testOwner, nil)
	mustStatus(t, rec, http.StatusOK)
	f = decode[familyView](t, rec)
	if len(f.SecondaryPhones) != 1 || f.SecondaryPhones[0] != "5557654321" {
		t.Errorf("secondaries = %v", f.SecondaryPhones)
	}
}

func TestMissingOwnerHeader(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/expenses", "", nil)
	mustStatus(t, rec, http.StatusBadRequest)
	body := decode[errorResponse](t, rec)
	if body.Kind != "validation" {
		t.Errorf("kind = %q, want validation", body.Kind)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	registerFamily(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", testOwner,
		map[string]string{"name": " Groceries ", "description": "food"})
	mustStatus(t, rec, http.StatusCreated)
	c := decode[categoryView](t, rec)
	if c.Name != "groceries" {
		t.Errorf("name = %q, want normalized", c.Name)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/categories", testOwner, map[string]string{"name": "GROCERIES"})
	mustStatus(t, rec, http.StatusBadRequest)

	rec = doJSON(t, srv, http.MethodPatch, fmt.Sprintf("/api/categories/%d", c.ID), testOwner,
		map[string]string{"name": "food"})
	mustStatus(t, rec, http.StatusOK)
	if got := decode[categoryView](t, rec); got.Name != "food" {
		t.Errorf("renamed to %q, want food", got.Name)
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/categories/%d", c.ID), testOwner, nil)
	mustStatus(t, rec, http.StatusOK)

	rec = doJSON(t, srv, http.MethodGet, "/api/categories", testOwner, nil)
	mustStatus(t, rec, http.StatusOK)
	if cats := decode[[]categoryView](t, rec); len(cats) != 0 {
		t.Errorf("got %d categories after delete, want 0", len(cats))
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t)
	registerFamily(t, srv)
	createCategory(t, srv, "groceries")
	createCategory(t, srv, "transport")

	e := createExpense(t, srv, "Supermercado", 100, "groceries", "2025-01-05")
	if e.Amount != 100 || e.Category != "groceries" {
		t.Errorf("expense = %+v", e)
	}
	createExpense(t, srv, "Nafta", 50, "transport", "2025-01-06T09:30:00Z")

	rec := doJSON(t, srv, http.MethodGet, "/api/expenses", testOwner, nil)
	mustStatus(t, rec, http.StatusOK)
	rows := decode[[]expenseView](t, rec)
	if len(rows) != 2 || rows[0].Description != "Nafta" {
		t.Errorf("rows = %+v, want 2 newest first", rows)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses?category=transport", testOwner, nil)
	mustStatus(t, rec, http.StatusOK)
	if rows := decode[[]expenseView](t, rec); len(rows) != 1 {
		t.Errorf("category filter rows = %+v", rows)
	}

	rec = doJSON(t, srv, http.MethodPatch, fmt.Sprintf("/api/expenses/%d/category", e.ID), testOwner,
		map[string]string{"category": "transport"})
	mustStatus(t, rec, http.StatusOK)
	if got := decode[expenseView](t, rec); got.Category != "transport" {
		t.Errorf("reassigned category = %q", got.Category)
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", e.ID), testOwner, nil)
	mustStatus(t, rec, http.StatusOK)
	if body := decode[map[string]bool](t, rec); !body["deleted"] {
		t.Errorf("delete body = %v", body)
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", e.ID), testOwner, nil)
	mustStatus(t, rec, http.StatusNotFound)
	if body := decode[errorResponse](t, rec); body.Kind != "not_found" {
		t.Errorf("kind = %q, want not_found", body.Kind)
	}
}

func TestExpenseValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	registerFamily(t, srv)
	createCategory(t, srv, "groceries")

	t.Run("unregistered category", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/expenses", testOwner, map[string]any{
			"phone": testOwner, "description": "Cine", "amount": 10.0,
			"category": "entertainment", "date": "2025-01-05",
		})
		mustStatus(t, rec, http.StatusBadRequest)
		if body := decode[errorResponse](t, rec); body.Kind != "invalid_reference" {
			t.Errorf("kind = %q, want invalid_reference", body.Kind)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/expenses", testOwner, map[string]any{
			"phone": testOwner, "description": "Cine", "amount": 10.0,
			"category": "groceries", "date": "05/01/2025",
		})
		mustStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/expenses", bytes.NewBufferString("{not json"))
		req.Header.Set(ownerHeader, testOwner)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		mustStatus(t, rec, http.StatusBadRequest)
	})
}

func TestBulkCreate(t *testing.T) {
	srv := newTestServer(t)
	registerFamily(t, srv)
	createCategory(t, srv, "groceries")

	batch := []map[string]any{
		{"phone": testOwner, "description": "Pan", "amount": 10.0, "category": "groceries", "date": "2025-01-03"},
		{"phone": testOwner, "description": "Leche", "amount": 5.0, "category": "groceries", "date": "2025-01-04"},
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/expenses/bulk", testOwner, batch)
	mustStatus(t, rec, http.StatusCreated)
	if rows := decode[[]expenseView](t, rec); len(rows) != 2 {
		t.Errorf("created %d rows, want 2", len(rows))
	}

	// One bad item fails the whole batch.
	batch[1]["category"] = "entertainment"
	rec = doJSON(t, srv, http.MethodPost, "/api/expenses/bulk", testOwner, batch)
	mustStatus(t, rec, http.StatusBadRequest)

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses", testOwner, nil)
	if rows := decode[[]expenseView](t, rec); len(rows) != 2 {
		t.Errorf("ledger has %d rows after failed batch, want 2", len(rows))
	}
}

func TestSummaryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	registerFamily(t, srv)
	createCategory(t, srv, "groceries")
	createCategory(t, srv, "transport")
	createExpense(t, srv, "Supermercado", 100, "groceries", "2025-01-05")
	createExpense(t, srv, "Nafta", 50, "transport", "2025-01-06")

	t.Run("by-category", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/expenses/by-category", testOwner, nil)
		mustStatus(t, rec, http.StatusOK)
		sums := decode[[]map[string]any](t, rec)
		if len(sums) != 2 {
			t.Fatalf("got %d groups, want 2", len(sums))
		}
		if sums[0]["category"] != "groceries" || sums[0]["percentage"] != float64(67) {
			t.Errorf("top group = %v", sums[0])
		}
	})

	t.Run("daily-trend", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/expenses/daily-trend", testOwner, nil)
		mustStatus(t, rec, http.StatusOK)
		points := decode[[]map[string]any](t, rec)
		if len(points) != 2 || points[0]["day"] != float64(5) {
			t.Errorf("points = %v", points)
		}
	})

	t.Run("breakdown", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/expenses/breakdown", testOwner, nil)
		mustStatus(t, rec, http.StatusOK)
		items := decode[[]map[string]any](t, rec)
		if len(items) != 2 || items[0]["merchant"] != "Nafta" {
			t.Errorf("items = %v", items)
		}
	})

	t.Run("monthly-summary explicit range", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet,
			"/api/expenses/monthly-summary?start=2025-01-01&end=2025-01-31", testOwner, nil)
		mustStatus(t, rec, http.StatusOK)
		sum := decode[map[string]any](t, rec)
		if sum["currentTotal"] != float64(150) {
			t.Errorf("currentTotal = %v, want 150", sum["currentTotal"])
		}
		if sum["deltaPercent"] != float64(0) {
			t.Errorf("deltaPercent = %v, want 0 with empty previous window", sum["deltaPercent"])
		}
	})

	t.Run("insights", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/expenses/insights", testOwner, nil)
		mustStatus(t, rec, http.StatusOK)
		cards := decode[[]map[string]any](t, rec)
		if len(cards) != 3 {
			t.Fatalf("got %d cards, want 3", len(cards))
		}
		if cards[0]["title"] != "Promedio por gasto" {
			t.Errorf("cards[0] = %v", cards[0])
		}
	})
}

func TestSummaryCacheInvalidation(t *testing.T) {
	srv := newTestServer(t)
	registerFamily(t, srv)
	createCategory(t, srv, "groceries")
	createExpense(t, srv, "Pan", 10, "groceries", "2025-01-03")

	read := func() float64 {
		rec := doJSON(t, srv, http.MethodGet, "/api/expenses/by-category", testOwner, nil)
		mustStatus(t, rec, http.StatusOK)
		sums := decode[[]map[string]any](t, rec)
		return sums[0]["total"].(float64)
	}

	if got := read(); got != 10 {
		t.Fatalf("total = %v, want 10", got)
	}
	if srv.categoryCache.Size() != 1 {
		t.Errorf("cache size = %d after read, want 1", srv.categoryCache.Size())
	}

	// A write purges the cached summary; the next read sees the new row.
	createExpense(t, srv, "Leche", 5, "groceries", "2025-01-04")
	if srv.categoryCache.Size() != 0 {
		t.Errorf("cache size = %d after write, want 0", srv.categoryCache.Size())
	}
	if got := read(); got != 15 {
		t.Errorf("total = %v after write, want 15", got)
	}
}
