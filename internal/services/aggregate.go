package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gastos/internal/core"
)

// ISO-8601 with millisecond precision, always UTC.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ByCategory groups matching expenses by category and sums per group,
// descending by total. Percentage is the rounded share of the window total;
// an empty window substitutes a denominator of 1 so shares come out 0
// instead of dividing by zero.
func (s *ExpenseService) ByCategory(ctx context.Context, owner string, f Filter) ([]core.CategorySummary, error) {
	rows, err := s.ListExpenses(ctx, owner, f)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]int64)
	var order []string
	var total int64
	for _, e := range rows {
		if _, seen := sums[e.Category]; !seen {
			order = append(order, e.Category)
		}
		sums[e.Category] += e.Amount.Micros
		total += e.Amount.Micros
	}

	sort.SliceStable(order, func(i, j int) bool {
		return sums[order[i]] > sums[order[j]]
	})

	denom := total
	if denom == 0 {
		denom = 1
	}

	out := make([]core.CategorySummary, 0, len(order))
	for _, cat := range order {
		out = append(out, core.CategorySummary{
			Category:   cat,
			Total:      core.Money{Micros: sums[cat]}.Units(),
			Percentage: int(math.Round(float64(sums[cat]) / float64(denom) * 100)),
		})
	}
	return out, nil
}

// DailyTrend sums matching expenses per day-of-month (1-31), ascending by
// day number. Days repeat across months inside a multi-month range and land
// in the same bucket; that pooling is the defined behavior of this view.
func (s *ExpenseService) DailyTrend(ctx context.Context, owner string, f Filter) ([]core.DailyTrendPoint, error) {
	rows, err := s.ListExpenses(ctx, owner, f)
	if err != nil {
		return nil, err
	}

	sums := make(map[int]int64)
	for _, e := range rows {
		sums[e.Date.Day()] += e.Amount.Micros
	}

	days := make([]int, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	sort.Ints(days)

	out := make([]core.DailyTrendPoint, 0, len(days))
	for _, d := range days {
		out = append(out, core.DailyTrendPoint{
			Day:    d,
			Amount: core.Money{Micros: sums[d]}.Units(),
		})
	}
	return out, nil
}

// Breakdown projects the limit most recent matching expenses (default 4)
// into display rows.
func (s *ExpenseService) Breakdown(ctx context.Context, owner string, f Filter) ([]core.BreakdownItem, error) {
	if f.Limit <= 0 {
		f.Limit = defaultBreakdownLimit
	}
	rows, err := s.ListExpenses(ctx, owner, f)
	if err != nil {
		return nil, err
	}

	out := make([]core.BreakdownItem, 0, len(rows))
	for _, e := range rows {
		out = append(out, core.BreakdownItem{
			Date:        e.Date.Format("Mon Jan 02 2006"),
			Merchant:    e.Description,
			SubCategory: e.Category,
			Amount:      e.Amount.Units(),
		})
	}
	return out, nil
}

// MonthlySummary totals the current window and the equal-length window
// immediately preceding it. DeltaPercent is 0 whenever the previous total is
// 0, regardless of the current total.
func (s *ExpenseService) MonthlySummary(ctx context.Context, owner string, f Filter) (core.MonthlySummary, error) {
	cur := currentWindow(s.now(), f.Start, f.End)
	prev := previousWindow(cur)

	currentTotal, err := s.sumWindow(ctx, owner, cur)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	previousTotal, err := s.sumWindow(ctx, owner, prev)
	if err != nil {
		return core.MonthlySummary{}, err
	}

	delta := currentTotal - previousTotal
	deltaPercent := 0
	if previousTotal != 0 {
		deltaPercent = int(math.Round(float64(delta) / float64(previousTotal) * 100))
	}

	return core.MonthlySummary{
		CurrentTotal:        core.Money{Micros: currentTotal}.Units(),
		PreviousTotal:       core.Money{Micros: previousTotal}.Units(),
		Delta:               core.Money{Micros: delta}.Units(),
		DeltaPercent:        deltaPercent,
		PeriodStart:         cur.start.UTC().Format(isoMillis),
		PeriodEnd:           cur.end.UTC().Format(isoMillis),
		PreviousPeriodStart: prev.start.UTC().Format(isoMillis),
		PreviousPeriodEnd:   prev.end.UTC().Format(isoMillis),
	}, nil
}

func (s *ExpenseService) sumWindow(ctx context.Context, owner string, w window) (int64, error) {
	rows, err := s.ListExpenses(ctx, owner, Filter{Start: w.start, End: w.end})
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range rows {
		total += e.Amount.Micros
	}
	return total, nil
}

// Insights derives the three fixed narrative cards from the family's most
// recent expenses (capped at 200). Card copy is a fixed template with one
// dynamic substitution each.
func (s *ExpenseService) Insights(ctx context.Context, owner string) ([]core.InsightCard, error) {
	rows, err := s.ListExpenses(ctx, owner, Filter{Limit: insightsFetchLimit})
	if err != nil {
		return nil, err
	}

	var totalMicros int64
	for _, e := range rows {
		totalMicros += e.Amount.Micros
	}
	total := core.Money{Micros: totalMicros}.Units()
	count := len(rows)
	avg := 0.0
	if count > 0 {
		avg = total / float64(count)
	}

	lastText := "Todavía no hay gastos registrados para esta familia."
	if count > 0 {
		last := rows[0]
		lastText = fmt.Sprintf("%s por $%.2f.", last.Description, last.Amount.Units())
	}

	return []core.InsightCard{
		{
			Title:      "Promedio por gasto",
			Text:       fmt.Sprintf("Promedio actual: $%.2f por transacción registrada.", avg),
			Icon:       "payments",
			ColorClass: "card-icon--blue",
		},
		{
			Title:      "Último gasto registrado",
			Text:       lastText,
			Icon:       "receipt_long",
			ColorClass: "card-icon--purple",
		},
		{
			Title:      "Total familiar",
			Text:       fmt.Sprintf("Total acumulado en el período cargado: $%.2f.", total),
			Icon:       "analytics",
			ColorClass: "card-icon--green",
		},
	}, nil
}
