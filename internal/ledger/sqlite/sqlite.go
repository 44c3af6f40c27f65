// Package sqlite is the durable ledger backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gastos/internal/core"
	"gastos/internal/ledger"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

var _ ledger.Store = (*Repository)(nil)

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) CreateFamily(ctx context.Context, mainPhone string) (core.Family, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Family{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := r.assertPhoneAvailable(ctx, tx, mainPhone); err != nil {
		return core.Family{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO families (main_phone) VALUES (?)`, mainPhone); err != nil {
		return core.Family{}, fmt.Errorf("insert family: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO family_phones (phone, main_phone) VALUES (?, ?)`, mainPhone, mainPhone); err != nil {
		return core.Family{}, fmt.Errorf("insert family phone: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Family{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Family registered", "main_phone", mainPhone)
	return core.Family{MainPhone: mainPhone}, nil
}

func (r *Repository) AddSecondaryPhone(ctx context.Context, mainPhone, phone string) (core.Family, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Family{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM families WHERE main_phone = ?`, mainPhone).Scan(&exists); err != nil {
		return core.Family{}, fmt.Errorf("check family: %w", err)
	}
	if exists == 0 {
		return core.Family{}, fmt.Errorf("family %s: %w", mainPhone, core.ErrNotFound)
	}
	if err := r.assertPhoneAvailable(ctx, tx, phone); err != nil {
		return core.Family{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO family_phones (phone, main_phone) VALUES (?, ?)`, phone, mainPhone); err != nil {
		return core.Family{}, fmt.Errorf("insert family phone: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Family{}, fmt.Errorf("commit: %w", err)
	}

	return r.FamilyByMainPhone(ctx, mainPhone)
}

func (r *Repository) assertPhoneAvailable(ctx context.Context, tx *sql.Tx, phone string) error {
	var taken int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM family_phones WHERE phone = ?`, phone).Scan(&taken); err != nil {
		return fmt.Errorf("check phone availability: %w", err)
	}
	if taken > 0 {
		return fmt.Errorf("phone %s is already assigned to a family: %w", phone, core.ErrValidation)
	}
	return nil
}

func (r *Repository) FamilyByMainPhone(ctx context.Context, mainPhone string) (core.Family, error) {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM families WHERE main_phone = ?`, mainPhone).Scan(&exists); err != nil {
		return core.Family{}, fmt.Errorf("check family: %w", err)
	}
	if exists == 0 {
		return core.Family{}, fmt.Errorf("family %s: %w", mainPhone, core.ErrNotFound)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT phone FROM family_phones WHERE main_phone = ? AND phone != ? ORDER BY created_at, phone`,
		mainPhone, mainPhone)
	if err != nil {
		return core.Family{}, fmt.Errorf("list family phones: %w", err)
	}
	defer rows.Close()

	f := core.Family{MainPhone: mainPhone}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return core.Family{}, fmt.Errorf("scan phone: %w", err)
		}
		f.SecondaryPhones = append(f.SecondaryPhones, p)
	}
	return f, rows.Err()
}

func (r *Repository) FamilyByAnyPhone(ctx context.Context, phone string) (core.Family, error) {
	var main string
	err := r.db.QueryRowContext(ctx, `SELECT main_phone FROM family_phones WHERE phone = ?`, phone).Scan(&main)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Family{}, fmt.Errorf("phone %s is not registered: %w", phone, core.ErrNotFound)
	}
	if err != nil {
		return core.Family{}, fmt.Errorf("resolve phone: %w", err)
	}
	return r.FamilyByMainPhone(ctx, main)
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (main_phone, name, description) VALUES (?, ?, ?)`,
		c.MainPhone, c.Name, c.Description)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return core.Category{}, fmt.Errorf("category %q already exists for this family: %w", c.Name, core.ErrValidation)
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context, mainPhone string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, main_phone, name, description FROM categories WHERE main_phone = ? ORDER BY name`,
		mainPhone)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.MainPhone, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, mainPhone string, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, main_phone, name, description FROM categories WHERE id = ? AND main_phone = ?`,
		id, mainPhone).Scan(&c.ID, &c.MainPhone, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ? WHERE id = ? AND main_phone = ?`,
		c.Name, c.Description, c.ID, c.MainPhone)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return core.Category{}, fmt.Errorf("category %q already exists for this family: %w", c.Name, core.ErrValidation)
		}
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Category{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.Category{}, fmt.Errorf("category %d: %w", c.ID, core.ErrNotFound)
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, mainPhone string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND main_phone = ?`, id, mainPhone)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) CategoryByName(ctx context.Context, mainPhone, name string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, main_phone, name, description FROM categories WHERE main_phone = ? AND name = ?`,
		mainPhone, name).Scan(&c.ID, &c.MainPhone, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category by name: %w", err)
	}
	return c, nil
}

func (r *Repository) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (phone, description, amount_micros, category, date_ms, is_family_shared)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Phone, e.Description, e.Amount.Micros, e.Category, e.Date.UnixMilli(), e.IsFamilyShared)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"phone", e.Phone,
		"amount_micros", e.Amount.Micros,
		"category", e.Category)
	return e, nil
}

// InsertExpenses appends the whole batch in one transaction.
func (r *Repository) InsertExpenses(ctx context.Context, es []core.Expense) ([]core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	out := make([]core.Expense, len(es))
	for i, e := range es {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (phone, description, amount_micros, category, date_ms, is_family_shared)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.Phone, e.Description, e.Amount.Micros, e.Category, e.Date.UnixMilli(), e.IsFamilyShared)
		if err != nil {
			return nil, fmt.Errorf("insert expense %d of %d: %w", i+1, len(es), err)
		}
		e.ID, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("expense id: %w", err)
		}
		out[i] = e
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (r *Repository) QueryExpenses(ctx context.Context, q ledger.Query) ([]core.Expense, error) {
	if len(q.Phones) == 0 {
		return nil, nil
	}

	var (
		where []string
		args  []any
	)
	placeholders := strings.TrimRight(strings.Repeat("?,", len(q.Phones)), ",")
	where = append(where, "phone IN ("+placeholders+")")
	for _, p := range q.Phones {
		args = append(args, p)
	}
	if !q.Start.IsZero() {
		where = append(where, "date_ms >= ?")
		args = append(args, q.Start.UnixMilli())
	}
	if !q.End.IsZero() {
		where = append(where, "date_ms <= ?")
		args = append(args, q.End.UnixMilli())
	}
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}
	if q.Search != "" {
		where = append(where, "instr(description, ?) > 0")
		args = append(args, q.Search)
	}

	query := `SELECT id, phone, description, amount_micros, category, date_ms, is_family_shared
		 FROM expenses WHERE ` + strings.Join(where, " AND ") + ` ORDER BY date_ms DESC, id DESC`
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, phone, description, amount_micros, category, date_ms, is_family_shared
		 FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return e, err
}

func (r *Repository) UpdateExpenseCategory(ctx context.Context, id int64, phones []string, category string) (core.Expense, error) {
	if len(phones) == 0 {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(phones)), ",")
	args := []any{category, id}
	for _, p := range phones {
		args = append(args, p)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET category = ? WHERE id = ? AND phone IN (`+placeholders+`)`, args...)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return r.GetExpense(ctx, id)
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64, phones []string) error {
	if len(phones) == 0 {
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(phones)), ",")
	args := []any{id}
	for _, p := range phones {
		args = append(args, p)
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND phone IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (core.Expense, error) {
	var (
		e      core.Expense
		dateMS int64
		micros int64
	)
	if err := row.Scan(&e.ID, &e.Phone, &e.Description, &micros, &e.Category, &dateMS, &e.IsFamilyShared); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Amount = core.Money{Micros: micros}
	e.Date = time.UnixMilli(dateMS).UTC()
	return e, nil
}
