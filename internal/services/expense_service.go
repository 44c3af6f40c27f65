// Package services implements the expense engine: family-scoped ledger
// writes and the aggregation views built on top of them.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/directory"
	"gastos/internal/ledger"
	"gastos/internal/registry"
)

const (
	defaultRecentLimit    = 10
	defaultBreakdownLimit = 4
	insightsFetchLimit    = 200
)

// EventPublisher receives a message for every ledger write. Publishing is
// best effort: the write has already committed when the event goes out.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *amqp.Event) error
}

// Filter carries the optional query parameters shared by the read endpoints.
type Filter struct {
	Start    time.Time
	End      time.Time
	Category string
	Search   string
	Status   string // accepted but has no effect on any query
	Limit    int
}

// ExpenseService orchestrates expense operations over the ledger store,
// scoping every query through the family directory.
type ExpenseService struct {
	store     ledger.ExpenseStore
	directory *directory.Service
	registry  *registry.Service
	events    EventPublisher

	now func() time.Time
}

func NewExpenseService(store ledger.ExpenseStore, dir *directory.Service, reg *registry.Service, events EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		directory: dir,
		registry:  reg,
		events:    events,
		now:       time.Now,
	}
}

// CreateExpense validates and appends one record, then publishes a created
// event. The expense phone must belong to the owner's family and the
// category must exist for it.
func (s *ExpenseService) CreateExpense(ctx context.Context, owner string, e core.Expense) (core.Expense, error) {
	prepared, err := s.prepare(ctx, owner, e)
	if err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.InsertExpense(ctx, prepared)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseCreatedEvent(saved.ID, owner))
	return saved, nil
}

// CreateExpenses appends a batch atomically: every record is validated
// before anything is written, and the store commits all or nothing.
func (s *ExpenseService) CreateExpenses(ctx context.Context, owner string, es []core.Expense) ([]core.Expense, error) {
	if len(es) == 0 {
		return nil, fmt.Errorf("empty expense batch: %w", core.ErrValidation)
	}

	prepared := make([]core.Expense, len(es))
	for i, e := range es {
		p, err := s.prepare(ctx, owner, e)
		if err != nil {
			return nil, fmt.Errorf("expense %d of %d: %w", i+1, len(es), err)
		}
		prepared[i] = p
	}

	saved, err := s.store.InsertExpenses(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("save expense batch: %w", err)
	}

	for _, e := range saved {
		s.publish(ctx, amqp.NewExpenseCreatedEvent(e.ID, owner))
	}
	return saved, nil
}

func (s *ExpenseService) prepare(ctx context.Context, owner string, e core.Expense) (core.Expense, error) {
	members, err := s.directory.Expand(ctx, owner)
	if err != nil {
		return core.Expense{}, err
	}
	if !containsPhone(members, e.Phone) {
		return core.Expense{}, fmt.Errorf("expense phone %s is not part of this family: %w", e.Phone, core.ErrValidation)
	}

	normalized, err := s.registry.AssertExists(ctx, owner, e.Category)
	if err != nil {
		return core.Expense{}, err
	}
	e.Category = normalized

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// ListExpenses returns matching records, newest date first.
func (s *ExpenseService) ListExpenses(ctx context.Context, owner string, f Filter) ([]core.Expense, error) {
	q, err := s.familyQuery(ctx, owner, f)
	if err != nil {
		return nil, err
	}
	return s.store.QueryExpenses(ctx, q)
}

// RecentExpenses returns the limit most recent records (default 10).
func (s *ExpenseService) RecentExpenses(ctx context.Context, owner string, f Filter) ([]core.Expense, error) {
	if f.Limit <= 0 {
		f.Limit = defaultRecentLimit
	}
	return s.ListExpenses(ctx, owner, f)
}

// ReassignCategory changes the category on one family-owned record. This is
// the only mutation an expense supports after creation.
func (s *ExpenseService) ReassignCategory(ctx context.Context, owner string, id int64, newCategory string) (core.Expense, error) {
	normalized, err := s.registry.AssertExists(ctx, owner, newCategory)
	if err != nil {
		return core.Expense{}, err
	}
	members, err := s.directory.Expand(ctx, owner)
	if err != nil {
		return core.Expense{}, err
	}
	return s.store.UpdateExpenseCategory(ctx, id, members, normalized)
}

// DeleteExpense removes one family-owned record and publishes a deleted
// event carrying a snapshot of the row.
func (s *ExpenseService) DeleteExpense(ctx context.Context, owner string, id int64) error {
	members, err := s.directory.Expand(ctx, owner)
	if err != nil {
		return err
	}

	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if !containsPhone(members, e.Phone) {
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}

	if err := s.store.DeleteExpense(ctx, id, members); err != nil {
		return err
	}

	s.publish(ctx, amqp.NewExpenseDeletedEvent(
		e.ID, owner, e.Phone, e.Description, e.Category, e.Amount.Micros, e.Date.UnixMilli()))
	return nil
}

func (s *ExpenseService) familyQuery(ctx context.Context, owner string, f Filter) (ledger.Query, error) {
	members, err := s.directory.Expand(ctx, owner)
	if err != nil {
		return ledger.Query{}, err
	}
	q := ledger.Query{
		Phones: members,
		Start:  f.Start,
		End:    f.End,
		Search: f.Search,
		Status: f.Status,
		Limit:  f.Limit,
	}
	if f.Category != "" {
		q.Category = core.NormalizeCategoryName(f.Category)
	}
	return q, nil
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, ev); err != nil {
		// The write already committed; losing the event only delays backup.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", ev.Type,
			"id", ev.ID,
			"error", err)
	}
}

func containsPhone(phones []string, phone string) bool {
	for _, p := range phones {
		if p == phone {
			return true
		}
	}
	return false
}
