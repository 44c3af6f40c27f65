package core

// CategorySummary is one by-category rollup row. Percentage is the rounded
// share of the window total; rows are ordered by descending total.
type CategorySummary struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Percentage int     `json:"percentage"`
}

// DailyTrendPoint sums expenses sharing a day-of-month (1-31). Multi-month
// ranges pool the same day number across months.
type DailyTrendPoint struct {
	Day    int     `json:"day"`
	Amount float64 `json:"amount"`
}

// BreakdownItem is one row of the recent-detail projection.
type BreakdownItem struct {
	Date        string  `json:"date"`
	Merchant    string  `json:"merchant"`
	SubCategory string  `json:"subCategory"`
	Amount      float64 `json:"amount"`
}

// MonthlySummary compares the current window against the immediately
// preceding window of equal duration. Bounds are ISO-8601 timestamps.
type MonthlySummary struct {
	CurrentTotal        float64 `json:"currentTotal"`
	PreviousTotal       float64 `json:"previousTotal"`
	Delta               float64 `json:"delta"`
	DeltaPercent        int     `json:"deltaPercent"`
	PeriodStart         string  `json:"periodStart"`
	PeriodEnd           string  `json:"periodEnd"`
	PreviousPeriodStart string  `json:"previousPeriodStart"`
	PreviousPeriodEnd   string  `json:"previousPeriodEnd"`
}

// InsightCard is one narrative summary card. Title, icon and color class are
// static per-card metadata; only the text carries dynamic data.
type InsightCard struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	Icon       string `json:"icon"`
	ColorClass string `json:"colorClass"`
}
