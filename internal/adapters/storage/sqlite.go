package storage

// sqlite.go — the option ledger.
//
// One row per option. Rows are inserted at open and updated exactly once at
// settlement; the WHERE status='OPEN' guard on that update is the at-most-once
// backstop against double settlement. The default DSN is ":memory:", so
// history normally lives and dies with the process; a file path turns the
// journal into an opt-in persistent record.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/optionsim/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS options (
    id           TEXT PRIMARY KEY,
    account_id   TEXT NOT NULL,
    asset        TEXT NOT NULL,
    direction    TEXT NOT NULL,
    stake        REAL NOT NULL,
    duration_ms  INTEGER NOT NULL,
    entry_price  REAL NOT NULL,
    entry_time   DATETIME NOT NULL,
    expiry_time  DATETIME NOT NULL,
    status       TEXT NOT NULL DEFAULT 'OPEN',
    exit_price   REAL NOT NULL DEFAULT 0,
    payout       REAL NOT NULL DEFAULT 0,
    settled_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_options_status ON options(status);
`

// SQLiteJournal implements ports.TradeJournal using SQLite (pure Go, no CGo).
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) the journal at the given DSN and
// applies the schema. Use ":memory:" for a process-lifetime ledger.
func NewSQLiteJournal(dsn string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Append inserts a freshly opened option.
func (j *SQLiteJournal) Append(ctx context.Context, opt domain.Option) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO options (id, account_id, asset, direction, stake, duration_ms,
		                     entry_price, entry_time, expiry_time, status, exit_price, payout)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		opt.ID, opt.AccountID, opt.Asset, string(opt.Direction), opt.Stake,
		opt.Duration.Milliseconds(),
		opt.EntryPrice,
		opt.EntryTime.UTC().Format(time.RFC3339Nano),
		opt.ExpiryTime.UTC().Format(time.RFC3339Nano),
		string(opt.Status), opt.ExitPrice, opt.Payout,
	)
	if err != nil {
		return fmt.Errorf("storage.Append: %w", err)
	}
	return nil
}

// Get returns an option by ID. Unknown IDs report ErrInvalidParameter.
func (j *SQLiteJournal) Get(ctx context.Context, id string) (domain.Option, error) {
	row := j.db.QueryRowContext(ctx, selectColumns+` FROM options WHERE id = ?`, id)
	opt, err := scanOption(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Option{}, fmt.Errorf("storage.Get: %w: unknown option %q", domain.ErrInvalidParameter, id)
	}
	if err != nil {
		return domain.Option{}, fmt.Errorf("storage.Get: %w", err)
	}
	return opt, nil
}

// MarkSettled transitions an OPEN option to its terminal state. The status
// guard makes the update a no-op if the option was already settled.
func (j *SQLiteJournal) MarkSettled(ctx context.Context, id string, status domain.Status, exitPrice, payout float64, settledAt time.Time) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE options SET status = ?, exit_price = ?, payout = ?, settled_at = ?
		WHERE id = ? AND status = ?`,
		string(status), exitPrice, payout,
		settledAt.UTC().Format(time.RFC3339Nano),
		id, string(domain.StatusOpen),
	)
	if err != nil {
		return fmt.Errorf("storage.MarkSettled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage.MarkSettled: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage.MarkSettled: %w: option %q not OPEN", domain.ErrInvalidState, id)
	}
	return nil
}

// OpenOptions returns all OPEN options, oldest first. Appends are serialized
// by the engine, so rowid order is chronological; entry_time text is RFC3339Nano
// and does not sort chronologically on sub-second values.
func (j *SQLiteJournal) OpenOptions(ctx context.Context) ([]domain.Option, error) {
	rows, err := j.db.QueryContext(ctx,
		selectColumns+` FROM options WHERE status = ? ORDER BY rowid ASC`,
		string(domain.StatusOpen))
	if err != nil {
		return nil, fmt.Errorf("storage.OpenOptions: %w", err)
	}
	defer rows.Close()
	return collectOptions(rows, "storage.OpenOptions")
}

// History returns options newest-first, at most limit (0 = all).
func (j *SQLiteJournal) History(ctx context.Context, limit int) ([]domain.Option, error) {
	q := selectColumns + ` FROM options ORDER BY rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.History: %w", err)
	}
	defer rows.Close()
	return collectOptions(rows, "storage.History")
}

// All returns the full ledger in insertion order.
func (j *SQLiteJournal) All(ctx context.Context) ([]domain.Option, error) {
	rows, err := j.db.QueryContext(ctx, selectColumns+` FROM options ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.All: %w", err)
	}
	defer rows.Close()
	return collectOptions(rows, "storage.All")
}

// Reset wipes the ledger.
func (j *SQLiteJournal) Reset(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, `DELETE FROM options`); err != nil {
		return fmt.Errorf("storage.Reset: %w", err)
	}
	return nil
}

// Close closes the database cleanly.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

const selectColumns = `
	SELECT id, account_id, asset, direction, stake, duration_ms,
	       entry_price, entry_time, expiry_time, status, exit_price, payout`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOption(row rowScanner) (domain.Option, error) {
	var (
		opt        domain.Option
		direction  string
		status     string
		durationMS int64
		entryTime  string
		expiryTime string
	)
	err := row.Scan(
		&opt.ID, &opt.AccountID, &opt.Asset, &direction, &opt.Stake, &durationMS,
		&opt.EntryPrice, &entryTime, &expiryTime, &status, &opt.ExitPrice, &opt.Payout,
	)
	if err != nil {
		return domain.Option{}, err
	}

	opt.Direction = domain.Direction(direction)
	opt.Status = domain.Status(status)
	opt.Duration = time.Duration(durationMS) * time.Millisecond

	if opt.EntryTime, err = time.Parse(time.RFC3339Nano, entryTime); err != nil {
		return domain.Option{}, fmt.Errorf("parse entry_time %q: %w", entryTime, err)
	}
	if opt.ExpiryTime, err = time.Parse(time.RFC3339Nano, expiryTime); err != nil {
		return domain.Option{}, fmt.Errorf("parse expiry_time %q: %w", expiryTime, err)
	}
	return opt, nil
}

func collectOptions(rows *sql.Rows, op string) ([]domain.Option, error) {
	var out []domain.Option
	for rows.Next() {
		opt, err := scanOption(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
