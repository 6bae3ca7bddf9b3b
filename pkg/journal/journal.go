// Package journal records every write submission in a local SQLite database
// so a caller whose confirmation wait timed out can find out what happened
// to the transaction before resubmitting.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/contracts"
	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

// List limits. limit <= 0 means DefaultListLimit.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Entry is one journaled submission.
type Entry struct {
	ID          string                     `json:"id"`
	Function    string                     `json:"function"`
	Sender      string                     `json:"sender"`
	Status      contracts.SubmissionStatus `json:"status"`
	TxHash      string                     `json:"transaction_hash,omitempty"`
	BlockNumber uint64                     `json:"block_number,omitempty"`
	GasUsed     uint64                     `json:"gas_used,omitempty"`
	Error       string                     `json:"error,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// Store is a SQLite-backed submission journal.
type Store struct {
	db     *sql.DB
	logger *logging.ColoredLogger
	now    func() time.Time
}

var _ contracts.Recorder = (*Store)(nil)

// Open opens (creating if needed) the journal at path and applies pending
// migrations.
func Open(ctx context.Context, path string, logger *logging.ColoredLogger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}

	dsn := path
	if path != MemoryPath {
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := applyMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.ComponentInfo(logging.ComponentJournal, "Submission journal ready", zap.String("path", path))
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin records a new pending submission and returns its id. Only the
// function name is kept; the arguments carry customer data and are never
// written.
func (s *Store) Begin(ctx context.Context, intent contracts.Intent, sender string) (string, error) {
	id := uuid.NewString()
	now := s.now().UnixNano()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, function, sender, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, intent.Function, sender, string(contracts.StatusPending), now, now)
	if err != nil {
		return "", apperrors.NewStorageError("insert", err)
	}
	return id, nil
}

// Update applies the non-zero fields of u to the entry id.
func (s *Store) Update(ctx context.Context, id string, u contracts.SubmissionUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []any{s.now().UnixNano()}
	if u.Status != "" {
		sets = append(sets, "status = ?")
		args = append(args, string(u.Status))
	}
	if u.TxHash != "" {
		sets = append(sets, "tx_hash = ?")
		args = append(args, u.TxHash)
	}
	if u.BlockNumber > 0 {
		sets = append(sets, "block_number = ?")
		args = append(args, int64(u.BlockNumber))
	}
	if u.GasUsed > 0 {
		sets = append(sets, "gas_used = ?")
		args = append(args, int64(u.GasUsed))
	}
	if u.Error != "" {
		sets = append(sets, "error = ?")
		args = append(args, u.Error)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return apperrors.NewStorageError("update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("submission", id)
	}
	return nil
}

const selectEntry = `SELECT id, function, sender, status, tx_hash, block_number, gas_used, error, created_at, updated_at FROM submissions`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e                    Entry
		status               string
		block, gas           int64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&e.ID, &e.Function, &e.Sender, &status, &e.TxHash, &block, &gas, &e.Error, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Status = contracts.SubmissionStatus(status)
	e.BlockNumber = uint64(block)
	e.GasUsed = uint64(gas)
	e.CreatedAt = time.Unix(0, createdAt).UTC()
	e.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &e, nil
}

// Get returns the entry with id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("submission", id)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get", err)
	}
	return e, nil
}

// FindByTxHash returns the most recent entry for txHash.
func (s *Store) FindByTxHash(ctx context.Context, txHash string) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		selectEntry+` WHERE lower(tx_hash) = lower(?) ORDER BY created_at DESC LIMIT 1`, txHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("submission", txHash)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("find", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	rows, err := s.db.QueryContext(ctx, selectEntry+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("list", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("list", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
