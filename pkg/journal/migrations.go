package journal

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations are applied in order and recorded in schema_migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "submissions",
		SQL: `CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	function     TEXT NOT NULL,
	args         TEXT NOT NULL DEFAULT '[]',
	sender       TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	tx_hash      TEXT NOT NULL DEFAULT '',
	block_number INTEGER NOT NULL DEFAULT 0,
	gas_used     INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
)`,
	},
	{
		Version: 2,
		Name:    "submissions_tx_hash_index",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_submissions_tx_hash ON submissions(tx_hash)`,
	},
	{
		Version: 3,
		Name:    "submissions_created_at_index",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at)`,
	},
	{
		Version: 4,
		Name:    "submissions_drop_args",
		SQL:     `ALTER TABLE submissions DROP COLUMN args`,
	},
}

func applyMigrations(ctx context.Context, db *sql.DB, logger *logging.ColoredLogger) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("load applied versions: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("load applied versions: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load applied versions: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES (?, strftime('%s','now'))`, m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
		logger.ComponentInfo(logging.ComponentJournal, "Migration applied",
			zap.Int("version", m.Version), zap.String("name", m.Name))
	}
	return nil
}
