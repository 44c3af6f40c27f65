package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validExpense() Expense {
	return Expense{
		Phone:       "5551234567",
		Description: "groceries run",
		Amount:      Money{Micros: 100_000_000},
		Category:    "groceries",
		Date:        time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC),
	}
}

func TestExpenseValidate(t *testing.T) {
	if err := validExpense().Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
	}{
		{"empty phone", func(e *Expense) { e.Phone = " " }},
		{"empty description", func(e *Expense) { e.Description = "" }},
		{"long description", func(e *Expense) { e.Description = strings.Repeat("x", 201) }},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }},
		{"negative amount", func(e *Expense) { e.Amount = Money{Micros: -1} }},
		{"empty category", func(e *Expense) { e.Category = "" }},
		{"zero date", func(e *Expense) { e.Date = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := validExpense()
			tc.mutate(&e)
			err := e.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation kind, got %v", err)
			}
		})
	}
}

func TestFamilyPhones(t *testing.T) {
	f := Family{MainPhone: "5551234567", SecondaryPhones: []string{"5557654321"}}
	phones := f.Phones()
	if len(phones) != 2 || phones[0] != "5551234567" || phones[1] != "5557654321" {
		t.Fatalf("unexpected member set: %v", phones)
	}
	if !f.HasPhone("5557654321") || f.HasPhone("5550000000") {
		t.Fatal("membership check wrong")
	}
}

func TestValidatePhone(t *testing.T) {
	if err := ValidatePhone("5551234567"); err != nil {
		t.Fatalf("valid phone rejected: %v", err)
	}
	for _, bad := range []string{"", "1234567", "abc1234567", "1234567890123456"} {
		if err := ValidatePhone(bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", bad, err)
		}
	}
}

func TestNormalizeCategoryName(t *testing.T) {
	if got := NormalizeCategoryName("  Groceries "); got != "groceries" {
		t.Fatalf("expected groceries, got %q", got)
	}
}
