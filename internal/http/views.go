package http

import (
	"fmt"
	"time"

	"gastos/internal/core"
)

func decodeErr(err error) error {
	return fmt.Errorf("invalid request body: %v: %w", err, core.ErrValidation)
}

type familyView struct {
	MainPhone       string   `json:"mainPhone"`
	SecondaryPhones []string `json:"secondaryPhones"`
}

func familyJSON(f core.Family) familyView {
	secondaries := f.SecondaryPhones
	if secondaries == nil {
		secondaries = []string{}
	}
	return familyView{MainPhone: f.MainPhone, SecondaryPhones: secondaries}
}

type categoryView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func categoryJSON(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Description: c.Description}
}

type expenseView struct {
	ID             int64   `json:"id"`
	Phone          string  `json:"phone"`
	Description    string  `json:"description"`
	Amount         float64 `json:"amount"`
	Category       string  `json:"category"`
	Date           string  `json:"date"`
	IsFamilyShared bool    `json:"isFamilyShared"`
}

func expenseJSON(e core.Expense) expenseView {
	return expenseView{
		ID:             e.ID,
		Phone:          e.Phone,
		Description:    e.Description,
		Amount:         e.Amount.Units(),
		Category:       e.Category,
		Date:           e.Date.UTC().Format(time.RFC3339),
		IsFamilyShared: e.IsFamilyShared,
	}
}

func expensesJSON(es []core.Expense) []expenseView {
	out := make([]expenseView, 0, len(es))
	for _, e := range es {
		out = append(out, expenseJSON(e))
	}
	return out
}
