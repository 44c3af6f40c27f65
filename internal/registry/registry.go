// Package registry manages the per-family category catalog. Expense writes
// validate their category here once, at creation time; records keep the
// string afterward even if the category is removed.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

type Service struct {
	store ledger.CategoryStore
}

func New(store ledger.CategoryStore) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, owner, name, description string) (core.Category, error) {
	normalized := core.NormalizeCategoryName(name)
	if normalized == "" {
		return core.Category{}, fmt.Errorf("category name is required: %w", core.ErrValidation)
	}
	if err := s.assertUniqueName(ctx, owner, normalized); err != nil {
		return core.Category{}, err
	}
	return s.store.CreateCategory(ctx, core.Category{
		MainPhone:   owner,
		Name:        normalized,
		Description: strings.TrimSpace(description),
	})
}

func (s *Service) List(ctx context.Context, owner string) ([]core.Category, error) {
	return s.store.ListCategories(ctx, owner)
}

func (s *Service) Get(ctx context.Context, owner string, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, owner, id)
}

// Update renames and/or re-describes a category. The uniqueness check only
// runs when the normalized name actually changes.
func (s *Service) Update(ctx context.Context, owner string, id int64, name, description *string) (core.Category, error) {
	existing, err := s.store.GetCategory(ctx, owner, id)
	if err != nil {
		return core.Category{}, err
	}

	if name != nil {
		normalized := core.NormalizeCategoryName(*name)
		if normalized == "" {
			return core.Category{}, fmt.Errorf("category name is required: %w", core.ErrValidation)
		}
		if normalized != existing.Name {
			if err := s.assertUniqueName(ctx, owner, normalized); err != nil {
				return core.Category{}, err
			}
			existing.Name = normalized
		}
	}
	if description != nil {
		existing.Description = strings.TrimSpace(*description)
	}

	return s.store.UpdateCategory(ctx, existing)
}

func (s *Service) Remove(ctx context.Context, owner string, id int64) error {
	return s.store.DeleteCategory(ctx, owner, id)
}

// AssertExists normalizes name and checks it is registered for the family.
// Returns the normalized name on success.
func (s *Service) AssertExists(ctx context.Context, owner, name string) (string, error) {
	normalized := core.NormalizeCategoryName(name)
	_, err := s.store.CategoryByName(ctx, owner, normalized)
	if errors.Is(err, core.ErrNotFound) {
		return "", fmt.Errorf("category %q does not exist for this family: %w", normalized, core.ErrInvalidReference)
	}
	if err != nil {
		return "", err
	}
	return normalized, nil
}

func (s *Service) assertUniqueName(ctx context.Context, owner, normalized string) error {
	_, err := s.store.CategoryByName(ctx, owner, normalized)
	if err == nil {
		return fmt.Errorf("category name %q already exists for this family: %w", normalized, core.ErrValidation)
	}
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	return err
}
