package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	// Driver is "sqlite" or "pgx".
	Driver      string
	DSN         string
	DialTimeout time.Duration
}

// Open connects, pings, and runs migrations. The returned handle is safe for
// concurrent use.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "driver", cfg.Driver)

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// modernc sqlite serializes writes; a single connection avoids
		// SQLITE_BUSY under concurrent saves.
		db.SetMaxOpenConns(1)
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		_ = db.Close()
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		logger.Error("migration failed", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("successfully connected to database")
	return db, nil
}

// Close closes the database connection gracefully
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
		return
	}
	logger.Info("database connection closed")
}

// Migrate creates the schema when absent. Idempotent; both supported engines
// accept this dialect. Decimals are stored as text to keep them exact.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS expense_records (
			id               TEXT PRIMARY KEY,
			vendor_name      TEXT NOT NULL,
			document_date    TEXT NOT NULL,
			currency_code    TEXT NOT NULL,
			subtotal         TEXT NOT NULL,
			tax              TEXT NOT NULL,
			total            TEXT NOT NULL,
			confidence       REAL NOT NULL,
			review_status    TEXT NOT NULL,
			warnings         TEXT NOT NULL,
			created_at       TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expense_line_items (
			record_id    TEXT NOT NULL REFERENCES expense_records(id) ON DELETE CASCADE,
			position     INTEGER NOT NULL,
			description  TEXT NOT NULL,
			quantity     TEXT NOT NULL,
			unit_price   TEXT NOT NULL,
			line_total   TEXT NOT NULL,
			confidence   REAL NOT NULL,
			PRIMARY KEY (record_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expense_records_date ON expense_records(document_date)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
