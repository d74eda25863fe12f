package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"checkbook/internal/core"
	"checkbook/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
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

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// NewRepositoryFromDB wraps an already open database handle. Migrations
// are the caller's problem.
func NewRepositoryFromDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertAccount implements ledger.AccountWriter
func (r *SQLiteRepository) InsertAccount(ctx context.Context, account core.Account) (int64, error) {
	if err := account.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(user_id, name, opening_balance_cents, low_balance_threshold_cents)
	VALUES(?, ?, ?, ?);
	`, account.UserID, account.Name, account.OpeningBalance.Cents, account.LowBalanceThreshold.Cents)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account insert id: %w", err)
	}

	slog.InfoContext(ctx, "Account saved to SQLite",
		"id", id,
		"user_id", account.UserID,
		"name", account.Name)

	return id, nil
}

// ListAccounts implements ledger.AccountReader
func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, name, opening_balance_cents, low_balance_threshold_cents, created_at
	FROM accounts WHERE user_id = ? ORDER BY id;
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

// GetAccount implements ledger.AccountReader
func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, name, opening_balance_cents, low_balance_threshold_cents, created_at
	FROM accounts WHERE id = ?;
	`, id)

	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Account{}, core.ErrAccountNotFound
		}
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// InsertEntry implements ledger.EntryWriter
func (r *SQLiteRepository) InsertEntry(ctx context.Context, entry core.LedgerEntry) (int64, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}
	if entry.MirrorStatus == "" {
		entry.MirrorStatus = ledger.MirrorStatusPending
	}

	res, err := r.db.ExecContext(ctx, `
	INSERT INTO ledger_entries(
	 user_id, kind, direction, account_id, amount_cents, entry_date, payee, description, template_id, mirror_status)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, entry.UserID, string(entry.Kind), string(entry.Direction), entry.AccountID, entry.Amount.Cents,
		entry.Date, entry.Payee, entry.Description, entry.TemplateID, entry.MirrorStatus)
	if err != nil {
		// The partial unique index on (template_id, entry_date) makes a
		// repeated materialization of the same occurrence fail here.
		if entry.TemplateID != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, core.ErrDuplicateEntry
		}
		return 0, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry insert id: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", id,
		"user_id", entry.UserID,
		"kind", entry.Kind,
		"amount_cents", entry.Amount.Cents,
		"date", entry.Date)

	return id, nil
}

// GetEntry implements ledger.EntryReader
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, entrySelect+` WHERE id = ?;`, id)

	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.LedgerEntry{}, core.ErrEntryNotFound
		}
		return core.LedgerEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// GetTemplateEntry implements ledger.EntryReader
func (r *SQLiteRepository) GetTemplateEntry(ctx context.Context, templateID int64, date core.Date) (core.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, entrySelect+` WHERE template_id = ? AND entry_date = ?;`, templateID, date)

	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.LedgerEntry{}, core.ErrEntryNotFound
		}
		return core.LedgerEntry{}, fmt.Errorf("get template entry: %w", err)
	}
	return e, nil
}

// SumCashCents implements ledger.EntryReader
func (r *SQLiteRepository) SumCashCents(ctx context.Context, userID string, through core.Date) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount_cents ELSE -amount_cents END), 0)
	FROM ledger_entries
	WHERE user_id = ? AND kind = 'cash' AND entry_date <= ?;
	`, userID, through).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum cash entries: %w", err)
	}
	return sum, nil
}

// SumCheckCents implements ledger.EntryReader
func (r *SQLiteRepository) SumCheckCents(ctx context.Context, accountID int64, through core.Date) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(CASE WHEN direction = 'incoming' THEN amount_cents ELSE -amount_cents END), 0)
	FROM ledger_entries
	WHERE account_id = ? AND kind = 'check' AND entry_date <= ?;
	`, accountID, through).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum check entries: %w", err)
	}
	return sum, nil
}

// InsertTemplate implements ledger.TemplateWriter
func (r *SQLiteRepository) InsertTemplate(ctx context.Context, template core.RecurringTemplate) (int64, error) {
	if err := template.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
	INSERT INTO recurring_templates(
	 user_id, kind, direction, account_id, amount_cents, payee, description, frequency,
	 start_date, end_date, day_of_month, day_of_week, is_active, last_created_date, next_due_date)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, template.UserID, string(template.Kind), string(template.Direction), template.AccountID,
		template.Amount.Cents, template.Payee, template.Description, string(template.Frequency),
		template.StartDate, template.EndDate, template.DayOfMonth, template.DayOfWeek,
		template.IsActive, template.LastCreatedDate, template.NextDueDate)
	if err != nil {
		return 0, fmt.Errorf("insert template: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("template insert id: %w", err)
	}

	slog.InfoContext(ctx, "Template saved to SQLite",
		"id", id,
		"user_id", template.UserID,
		"frequency", template.Frequency,
		"next_due_date", template.NextDueDate)

	return id, nil
}

// GetTemplate implements ledger.TemplateReader
func (r *SQLiteRepository) GetTemplate(ctx context.Context, id int64) (core.RecurringTemplate, error) {
	row := r.db.QueryRowContext(ctx, templateSelect+` WHERE id = ?;`, id)

	t, err := scanTemplate(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.RecurringTemplate{}, core.ErrTemplateNotFound
		}
		return core.RecurringTemplate{}, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// ListDueTemplates implements ledger.TemplateReader
func (r *SQLiteRepository) ListDueTemplates(ctx context.Context, asOf core.Date) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, templateSelect+`
	WHERE is_active = 1
	  AND next_due_date <= ?
	  AND start_date <= next_due_date
	  AND (end_date IS NULL OR end_date >= next_due_date)
	ORDER BY next_due_date, id;
	`, asOf)
	if err != nil {
		return nil, fmt.Errorf("list due templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list due templates: %w", err)
	}
	return out, nil
}

// UpdateTemplateSchedule implements ledger.TemplateWriter. The update
// only lands while the stored next due date matches expectedNextDue, so
// two workers firing the same template cannot both advance it.
func (r *SQLiteRepository) UpdateTemplateSchedule(ctx context.Context, id int64, lastCreated, nextDue, expectedNextDue core.Date) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE recurring_templates SET last_created_date = ?, next_due_date = ?
	WHERE id = ? AND next_due_date = ?;
	`, lastCreated, nextDue, id, expectedNextDue)
	if err != nil {
		return fmt.Errorf("update template schedule: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update template schedule: %w", err)
	}
	if affected == 0 {
		var n int
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recurring_templates WHERE id = ?;`, id).Scan(&n)
		if err != nil {
			return fmt.Errorf("check template exists: %w", err)
		}
		if n == 0 {
			return core.ErrTemplateNotFound
		}
		return core.ErrScheduleConflict
	}

	slog.InfoContext(ctx, "Template schedule advanced",
		"id", id,
		"last_created_date", lastCreated,
		"next_due_date", nextDue)

	return nil
}

// GetPendingMirrorEntries implements ledger.MirrorStore
func (r *SQLiteRepository) GetPendingMirrorEntries(ctx context.Context, limit int) ([]core.LedgerEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as no limit
	}
	rows, err := r.db.QueryContext(ctx, entrySelect+` WHERE mirror_status = ? ORDER BY id LIMIT ?;`, ledger.MirrorStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending mirror entries: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get pending mirror entries: %w", err)
	}
	return out, nil
}

// MarkMirrored implements ledger.MirrorStore
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, entryID int64) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE ledger_entries SET mirror_status = ?, mirrored_at = CURRENT_TIMESTAMP WHERE id = ?;
	`, ledger.MirrorStatusMirrored, entryID)
	if err != nil {
		return fmt.Errorf("mark entry mirrored: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Entry marked as mirrored", "id", entryID)
	return nil
}

// MarkMirrorError implements ledger.MirrorStore
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, entryID int64) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE ledger_entries SET mirror_status = ? WHERE id = ?;
	`, ledger.MirrorStatusError, entryID)
	if err != nil {
		return fmt.Errorf("mark entry mirror error: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	slog.WarnContext(ctx, "Entry marked with mirror error", "id", entryID)
	return nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrEntryNotFound
	}
	return nil
}

const entrySelect = `
	SELECT id, user_id, kind, direction, account_id, amount_cents, entry_date, payee, description, template_id, mirror_status, created_at
	FROM ledger_entries`

const templateSelect = `
	SELECT id, user_id, kind, direction, account_id, amount_cents, payee, description, frequency,
	 start_date, end_date, day_of_month, day_of_week, is_active, last_created_date, next_due_date, created_at
	FROM recurring_templates`

// scanner lets the scan helpers work with both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row scanner) (core.Account, error) {
	var a core.Account
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.OpeningBalance.Cents,
		&a.LowBalanceThreshold.Cents, &a.CreatedAt); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func scanEntry(row scanner) (core.LedgerEntry, error) {
	var e core.LedgerEntry
	var accountID, templateID sql.NullInt64
	if err := row.Scan(&e.ID, &e.UserID, &e.Kind, &e.Direction, &accountID, &e.Amount.Cents,
		&e.Date, &e.Payee, &e.Description, &templateID, &e.MirrorStatus, &e.CreatedAt); err != nil {
		return core.LedgerEntry{}, err
	}
	if accountID.Valid {
		e.AccountID = &accountID.Int64
	}
	if templateID.Valid {
		e.TemplateID = &templateID.Int64
	}
	return e, nil
}

func scanTemplate(row scanner) (core.RecurringTemplate, error) {
	var t core.RecurringTemplate
	var accountID sql.NullInt64
	var dayOfMonth, dayOfWeek sql.NullInt64
	var endDate, lastCreated core.Date
	if err := row.Scan(&t.ID, &t.UserID, &t.Kind, &t.Direction, &accountID, &t.Amount.Cents,
		&t.Payee, &t.Description, &t.Frequency, &t.StartDate, &endDate, &dayOfMonth, &dayOfWeek,
		&t.IsActive, &lastCreated, &t.NextDueDate, &t.CreatedAt); err != nil {
		return core.RecurringTemplate{}, err
	}
	if accountID.Valid {
		t.AccountID = &accountID.Int64
	}
	if dayOfMonth.Valid {
		day := int(dayOfMonth.Int64)
		t.DayOfMonth = &day
	}
	if dayOfWeek.Valid {
		day := int(dayOfWeek.Int64)
		t.DayOfWeek = &day
	}
	if !endDate.IsZero() {
		t.EndDate = &endDate
	}
	if !lastCreated.IsZero() {
		t.LastCreatedDate = &lastCreated
	}
	return t, nil
}
