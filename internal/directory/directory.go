// Package directory resolves phone identities to family member sets. Every
// ledger query in the engine is scoped through Expand; nothing reads the
// ledger unscoped.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

type Service struct {
	store ledger.FamilyStore
}

func New(store ledger.FamilyStore) *Service {
	return &Service{store: store}
}

// Register creates a new family rooted at phone.
func (s *Service) Register(ctx context.Context, phone string) (core.Family, error) {
	phone = strings.TrimSpace(phone)
	if err := core.ValidatePhone(phone); err != nil {
		return core.Family{}, err
	}
	f, err := s.store.CreateFamily(ctx, phone)
	if err != nil {
		return core.Family{}, fmt.Errorf("register family: %w", err)
	}
	slog.InfoContext(ctx, "Family created", "main_phone", phone)
	return f, nil
}

// AddSecondary attaches phone to the owner's family.
func (s *Service) AddSecondary(ctx context.Context, owner, phone string) (core.Family, error) {
	phone = strings.TrimSpace(phone)
	if err := core.ValidatePhone(phone); err != nil {
		return core.Family{}, err
	}
	if phone == owner {
		return core.Family{}, fmt.Errorf("secondary phone cannot be the same as main phone: %w", core.ErrValidation)
	}
	f, err := s.store.AddSecondaryPhone(ctx, owner, phone)
	if err != nil {
		return core.Family{}, fmt.Errorf("add secondary phone: %w", err)
	}
	slog.InfoContext(ctx, "Secondary phone added", "main_phone", owner, "phone", phone)
	return f, nil
}

// Family returns the owner's family record.
func (s *Service) Family(ctx context.Context, owner string) (core.Family, error) {
	return s.store.FamilyByMainPhone(ctx, owner)
}

// Expand returns the owner's full member set, main phone first.
func (s *Service) Expand(ctx context.Context, owner string) ([]string, error) {
	f, err := s.store.FamilyByMainPhone(ctx, owner)
	if err != nil {
		return nil, err
	}
	return f.Phones(), nil
}

// ResolveOwner maps any member phone to its family's main phone.
func (s *Service) ResolveOwner(ctx context.Context, phone string) (string, error) {
	f, err := s.store.FamilyByAnyPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	return f.MainPhone, nil
}
