// Package ledger defines the store ports the expense engine runs against.
// Backends live in subpackages; the engine never touches a driver directly.
package ledger

import (
	"context"
	"time"

	"gastos/internal/core"
)

// Query filters an expense lookup. Phones is mandatory: every lookup must be
// scoped to a family's member set, never to the full ledger.
type Query struct {
	Phones   []string
	Start    time.Time // inclusive; zero means unbounded
	End      time.Time // inclusive; zero means unbounded
	Category string    // exact match on the stored category string
	Search   string    // substring match on description
	Status   string    // accepted but applied nowhere; forward-compatibility stub
	Limit    int       // 0 means no limit; applied after date-desc ordering
}

type (
	// FamilyStore persists families and the system-wide phone->family map.
	FamilyStore interface {
		// CreateFamily registers a new family rooted at mainPhone. Fails with
		// a validation error when the phone already belongs to any family.
		CreateFamily(ctx context.Context, mainPhone string) (core.Family, error)
		// AddSecondaryPhone appends phone to the family's member set, with
		// the same system-wide uniqueness guarantee.
		AddSecondaryPhone(ctx context.Context, mainPhone, phone string) (core.Family, error)
		FamilyByMainPhone(ctx context.Context, mainPhone string) (core.Family, error)
		FamilyByAnyPhone(ctx context.Context, phone string) (core.Family, error)
	}

	// CategoryStore persists the per-family category registry.
	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		// ListCategories returns the family's categories sorted by name.
		ListCategories(ctx context.Context, mainPhone string) ([]core.Category, error)
		GetCategory(ctx context.Context, mainPhone string, id int64) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, mainPhone string, id int64) error
		// CategoryByName looks up by normalized name within a family.
		CategoryByName(ctx context.Context, mainPhone, name string) (core.Category, error)
	}

	// ExpenseStore is the append-mostly expense ledger.
	ExpenseStore interface {
		InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		// InsertExpenses appends the whole batch or nothing.
		InsertExpenses(ctx context.Context, es []core.Expense) ([]core.Expense, error)
		// QueryExpenses returns matching records newest date first.
		QueryExpenses(ctx context.Context, q Query) ([]core.Expense, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		// UpdateExpenseCategory reassigns the category on one record, scoped
		// to the given member set. Not-found covers records owned elsewhere.
		UpdateExpenseCategory(ctx context.Context, id int64, phones []string, category string) (core.Expense, error)
		DeleteExpense(ctx context.Context, id int64, phones []string) error
	}

	// Store is the full surface a data backend provides.
	Store interface {
		FamilyStore
		CategoryStore
		ExpenseStore
	}
)
