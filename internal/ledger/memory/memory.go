// Package memory provides an in-process ledger backend. It backs local
// development and the service tests; semantics mirror the sqlite backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

type Store struct {
	mu sync.Mutex

	families map[string][]string // main phone -> secondary phones
	owners   map[string]string   // any member phone -> main phone

	categories []core.Category
	nextCatID  int64

	expenses  []core.Expense
	nextExpID int64
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		families:  make(map[string][]string),
		owners:    make(map[string]string),
		nextCatID: 1,
		nextExpID: 1,
	}
}

func (s *Store) CreateFamily(_ context.Context, mainPhone string) (core.Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.owners[mainPhone]; taken {
		return core.Family{}, fmt.Errorf("phone %s is already assigned to a family: %w", mainPhone, core.ErrValidation)
	}
	s.families[mainPhone] = nil
	s.owners[mainPhone] = mainPhone
	return core.Family{MainPhone: mainPhone}, nil
}

func (s *Store) AddSecondaryPhone(_ context.Context, mainPhone, phone string) (core.Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	secondaries, ok := s.families[mainPhone]
	if !ok {
		return core.Family{}, fmt.Errorf("family %s: %w", mainPhone, core.ErrNotFound)
	}
	if _, taken := s.owners[phone]; taken {
		return core.Family{}, fmt.Errorf("phone %s is already assigned to a family: %w", phone, core.ErrValidation)
	}
	secondaries = append(secondaries, phone)
	s.families[mainPhone] = secondaries
	s.owners[phone] = mainPhone
	return s.familyLocked(mainPhone), nil
}

func (s *Store) FamilyByMainPhone(_ context.Context, mainPhone string) (core.Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.families[mainPhone]; !ok {
		return core.Family{}, fmt.Errorf("family %s: %w", mainPhone, core.ErrNotFound)
	}
	return s.familyLocked(mainPhone), nil
}

func (s *Store) FamilyByAnyPhone(_ context.Context, phone string) (core.Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	main, ok := s.owners[phone]
	if !ok {
		return core.Family{}, fmt.Errorf("phone %s is not registered: %w", phone, core.ErrNotFound)
	}
	return s.familyLocked(main), nil
}

func (s *Store) familyLocked(mainPhone string) core.Family {
	return core.Family{
		MainPhone:       mainPhone,
		SecondaryPhones: append([]string(nil), s.families[mainPhone]...),
	}
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.MainPhone == c.MainPhone && existing.Name == c.Name {
			return core.Category{}, fmt.Errorf("category %q already exists for this family: %w", c.Name, core.ErrValidation)
		}
	}
	c.ID = s.nextCatID
	s.nextCatID++
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, mainPhone string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.MainPhone == mainPhone {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, mainPhone string, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id && c.MainPhone == mainPhone {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.categories {
		if existing.ID == c.ID && existing.MainPhone == c.MainPhone {
			s.categories[i] = c
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %d: %w", c.ID, core.ErrNotFound)
}

func (s *Store) DeleteCategory(_ context.Context, mainPhone string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id && c.MainPhone == mainPhone {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
}

func (s *Store) CategoryByName(_ context.Context, mainPhone, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.MainPhone == mainPhone && c.Name == name {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrNotFound)
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(e), nil
}

func (s *Store) InsertExpenses(_ context.Context, es []core.Expense) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(es))
	for i, e := range es {
		out[i] = s.insertLocked(e)
	}
	return out, nil
}

func (s *Store) insertLocked(e core.Expense) core.Expense {
	e.ID = s.nextExpID
	s.nextExpID++
	s.expenses = append(s.expenses, e)
	return e
}

func (s *Store) QueryExpenses(_ context.Context, q ledger.Query) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make(map[string]struct{}, len(q.Phones))
	for _, p := range q.Phones {
		members[p] = struct{}{}
	}

	var out []core.Expense
	for _, e := range s.expenses {
		if _, ok := members[e.Phone]; !ok {
			continue
		}
		if !q.Start.IsZero() && e.Date.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && e.Date.After(q.End) {
			continue
		}
		if q.Category != "" && e.Category != q.Category {
			continue
		}
		if q.Search != "" && !strings.Contains(e.Description, q.Search) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
}

func (s *Store) UpdateExpenseCategory(_ context.Context, id int64, phones []string, category string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id && contains(phones, e.Phone) {
			s.expenses[i].Category = category
			return s.expenses[i], nil
		}
	}
	return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteExpense(_ context.Context, id int64, phones []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id && contains(phones, e.Phone) {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
}

func contains(phones []string, phone string) bool {
	for _, p := range phones {
		if p == phone {
			return true
		}
	}
	return false
}
