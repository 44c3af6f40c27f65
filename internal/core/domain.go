package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Error kinds. Every failure surfaced by the engine wraps exactly one of
// these so callers can branch with errors.Is; the HTTP layer maps them to
// status codes.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidReference = errors.New("invalid reference")
)

type (
	// Family groups the phones that share one expense pool. MainPhone is the
	// canonical identifier used to scope every query; each phone belongs to
	// at most one family across the whole system.
	Family struct {
		MainPhone       string
		SecondaryPhones []string
	}

	// Category is a family-scoped label expenses are classified under.
	// Name is stored normalized (trimmed, lowercased) and unique per family.
	Category struct {
		ID          int64
		MainPhone   string
		Name        string
		Description string
	}

	// Expense is one ledger record. Amounts are always positive; refunds are
	// not representable. Category keeps the string it was created with even
	// if the category is later deleted.
	Expense struct {
		ID             int64
		Phone          string
		Description    string
		Amount         Money
		Category       string
		Date           time.Time
		IsFamilyShared bool
	}
)

// Phones returns the full member set, main phone first.
func (f Family) Phones() []string {
	out := make([]string, 0, len(f.SecondaryPhones)+1)
	out = append(out, f.MainPhone)
	out = append(out, f.SecondaryPhones...)
	return out
}

// HasPhone reports whether phone is a member of the family.
func (f Family) HasPhone(phone string) bool {
	if phone == f.MainPhone {
		return true
	}
	for _, p := range f.SecondaryPhones {
		if p == phone {
			return true
		}
	}
	return false
}

// NormalizeCategoryName trims and lowercases a category name. All category
// lookups and uniqueness checks operate on the normalized form.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidatePhone checks the canonical phone format: 8 to 15 digits.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if len(phone) < 8 || len(phone) > 15 {
		return fmt.Errorf("phone must be 8-15 digits: %w", ErrValidation)
	}
	for _, r := range phone {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("phone must contain only digits: %w", ErrValidation)
		}
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Phone) == "" {
		return fmt.Errorf("empty phone: %w", ErrValidation)
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("empty description: %w", ErrValidation)
	}
	if len(e.Description) > 200 {
		return fmt.Errorf("description too long (max 200 characters): %w", ErrValidation)
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return fmt.Errorf("empty category: %w", ErrValidation)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("date cannot be zero: %w", ErrValidation)
	}
	return nil
}
