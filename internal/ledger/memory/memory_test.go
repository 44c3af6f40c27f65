package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

func seedExpense(t *testing.T, s *Store, phone, desc string, micros int64, category string, date time.Time) core.Expense {
	t.Helper()
	e, err := s.InsertExpense(context.Background(), core.Expense{
		Phone:       phone,
		Description: desc,
		Amount:      core.Money{Micros: micros},
		Category:    category,
		Date:        date,
	})
	if err != nil {
		t.Fatalf("insert expense: %v", err)
	}
	return e
}

func TestFamilyPhoneUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.CreateFamily(ctx, "111"); err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}
	if _, err := s.CreateFamily(ctx, "111"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("duplicate main phone error = %v, want ErrValidation", err)
	}

	if _, err := s.AddSecondaryPhone(ctx, "111", "222"); err != nil {
		t.Fatalf("AddSecondaryPhone() error = %v", err)
	}
	if _, err := s.AddSecondaryPhone(ctx, "111", "222"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("duplicate secondary error = %v, want ErrValidation", err)
	}
	if _, err := s.CreateFamily(ctx, "222"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("secondary phone reused as main error = %v, want ErrValidation", err)
	}
	if _, err := s.AddSecondaryPhone(ctx, "999", "333"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown family error = %v, want ErrNotFound", err)
	}
}

func TestFamilyLookup(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.CreateFamily(ctx, "111"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSecondaryPhone(ctx, "111", "222"); err != nil {
		t.Fatal(err)
	}

	f, err := s.FamilyByAnyPhone(ctx, "222")
	if err != nil {
		t.Fatalf("FamilyByAnyPhone() error = %v", err)
	}
	if f.MainPhone != "111" {
		t.Errorf("main phone = %q, want %q", f.MainPhone, "111")
	}
	if len(f.SecondaryPhones) != 1 || f.SecondaryPhones[0] != "222" {
		t.Errorf("secondaries = %v", f.SecondaryPhones)
	}

	if _, err := s.FamilyByMainPhone(ctx, "222"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("secondary phone as main error = %v, want ErrNotFound", err)
	}
}

func TestCategoryScoping(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.CreateCategory(ctx, core.Category{MainPhone: "111", Name: "groceries"})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if _, err := s.CreateCategory(ctx, core.Category{MainPhone: "111", Name: "groceries"}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("duplicate name error = %v, want ErrValidation", err)
	}
	// Same name under a different family is fine.
	if _, err := s.CreateCategory(ctx, core.Category{MainPhone: "999", Name: "groceries"}); err != nil {
		t.Errorf("same name other family error = %v", err)
	}

	if _, err := s.GetCategory(ctx, "999", a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-family get error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteCategory(ctx, "999", a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-family delete error = %v, want ErrNotFound", err)
	}
}

func TestListCategoriesSorted(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, name := range []string{"transport", "groceries", "health"} {
		if _, err := s.CreateCategory(ctx, core.Category{MainPhone: "111", Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	cats, err := s.ListCategories(ctx, "111")
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	want := []string{"groceries", "health", "transport"}
	if len(cats) != len(want) {
		t.Fatalf("got %d categories, want %d", len(cats), len(want))
	}
	for i, name := range want {
		if cats[i].Name != name {
			t.Errorf("categories[%d] = %q, want %q", i, cats[i].Name, name)
		}
	}
}

func TestQueryExpenses(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := func(d int) time.Time { return time.Date(2025, time.January, d, 12, 0, 0, 0, time.UTC) }

	seedExpense(t, s, "111", "Supermercado Coto", 100_000_000, "groceries", day(5))
	seedExpense(t, s, "222", "Nafta", 50_000_000, "transport", day(6))
	seedExpense(t, s, "999", "Ajeno", 10_000_000, "groceries", day(7)) // other family
	seedExpense(t, s, "111", "Verduleria", 20_000_000, "groceries", day(6).Add(-12*time.Hour))

	family := []string{"111", "222"}

	t.Run("scopes to member phones, newest first", func(t *testing.T) {
		out, err := s.QueryExpenses(ctx, ledger.Query{Phones: family})
		if err != nil {
			t.Fatalf("QueryExpenses() error = %v", err)
		}
		if len(out) != 3 {
			t.Fatalf("got %d rows, want 3", len(out))
		}
		if out[0].Description != "Nafta" || out[1].Description != "Verduleria" || out[2].Description != "Supermercado Coto" {
			t.Errorf("order = %q, %q, %q", out[0].Description, out[1].Description, out[2].Description)
		}
	})

	t.Run("date range is inclusive", func(t *testing.T) {
		out, err := s.QueryExpenses(ctx, ledger.Query{Phones: family, Start: day(6), End: day(6)})
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 1 || out[0].Description != "Nafta" {
			t.Errorf("rows = %+v, want just Nafta", out)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		out, err := s.QueryExpenses(ctx, ledger.Query{Phones: family, Category: "transport"})
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 1 || out[0].Description != "Nafta" {
			t.Errorf("rows = %+v", out)
		}
	})

	t.Run("search is a substring match on description", func(t *testing.T) {
		out, err := s.QueryExpenses(ctx, ledger.Query{Phones: family, Search: "Coto"})
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 1 || out[0].Description != "Supermercado Coto" {
			t.Errorf("rows = %+v", out)
		}
	})

	t.Run("limit", func(t *testing.T) {
		out, err := s.QueryExpenses(ctx, ledger.Query{Phones: family, Limit: 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 2 {
			t.Errorf("got %d rows, want 2", len(out))
		}
	})

	t.Run("empty phone set matches nothing", func(t *testing.T) {
		out, err := s.QueryExpenses(ctx, ledger.Query{})
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 0 {
			t.Errorf("got %d rows, want 0", len(out))
		}
	})
}

func TestUpdateAndDeleteExpenseScoped(t *testing.T) {
	ctx := context.Background()
	s := New()
	e := seedExpense(t, s, "111", "Supermercado", 100_000_000, "groceries",
		time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC))

	if _, err := s.UpdateExpenseCategory(ctx, e.ID, []string{"999"}, "transport"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-family update error = %v, want ErrNotFound", err)
	}
	updated, err := s.UpdateExpenseCategory(ctx, e.ID, []string{"111"}, "transport")
	if err != nil {
		t.Fatalf("UpdateExpenseCategory() error = %v", err)
	}
	if updated.Category != "transport" {
		t.Errorf("category = %q, want transport", updated.Category)
	}

	if err := s.DeleteExpense(ctx, e.ID, []string{"999"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-family delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteExpense(ctx, e.ID, []string{"111"}); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if _, err := s.GetExpense(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get after delete error = %v, want ErrNotFound", err)
	}
}
