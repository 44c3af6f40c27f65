// Package backup defines the outbound port for the ledger backup sink.
package backup

import (
	"context"

	"gastos/internal/core"
)

// Appender receives one row per created expense. Implementations must be
// safe to call repeatedly for the same expense: redeliveries happen.
type Appender interface {
	AppendExpense(ctx context.Context, owner string, e core.Expense) error
}
