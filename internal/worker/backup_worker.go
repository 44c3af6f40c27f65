// Package worker consumes ledger events and mirrors expenses into the
// backup sink.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gastos/internal/amqp"
	"gastos/internal/backup"
	"gastos/internal/core"
	"gastos/internal/directory"
	"gastos/internal/ledger"
)

type BackupWorker struct {
	store     ledger.ExpenseStore
	directory *directory.Service
	sink      backup.Appender
}

func NewBackupWorker(store ledger.ExpenseStore, dir *directory.Service, sink backup.Appender) *BackupWorker {
	return &BackupWorker{
		store:     store,
		directory: dir,
		sink:      sink,
	}
}

// HandleEvent processes one ledger event from AMQP.
func (w *BackupWorker) HandleEvent(ctx context.Context, ev *amqp.Event) error {
	switch ev.Type {
	case amqp.EventExpenseCreated:
		return w.handleCreated(ctx, ev)
	case amqp.EventExpenseDeleted:
		// The backup sheet is append-only; deletions stay visible there and
		// are logged so the sheet can be reconciled by hand when needed.
		slog.InfoContext(ctx, "Expense deleted upstream, backup row kept",
			"id", ev.ID,
			"description", ev.Description,
			"category", ev.Category)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown ledger event type", "type", ev.Type)
		return nil
	}
}

func (w *BackupWorker) handleCreated(ctx context.Context, ev *amqp.Event) error {
	e, err := w.store.GetExpense(ctx, ev.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before the event was consumed; nothing left to back up.
		slog.WarnContext(ctx, "Expense gone before backup", "id", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	owner := ev.Owner
	if owner == "" {
		owner, err = w.directory.ResolveOwner(ctx, e.Phone)
		if err != nil {
			return fmt.Errorf("resolve owner: %w", err)
		}
	}

	if err := w.sink.AppendExpense(ctx, owner, e); err != nil {
		return fmt.Errorf("append expense to backup: %w", err)
	}

	slog.InfoContext(ctx, "Expense backed up",
		"id", e.ID,
		"owner", owner,
		"category", e.Category)
	return nil
}
