package journal

import (
	"context"
	"database/sql"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/noforma/pkg/contracts"
	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
)

const testHash = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// Deterministic, strictly increasing clock.
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestBeginAndUpdateLifecycle(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	id, err := s.Begin(ctx, contracts.Intent{Function: "updateCustomer", Args: []any{big.NewInt(7), "Ada", "ada@example.com", ""}}, "0xabc")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	e, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusPending, e.Status)
	assert.Equal(t, "updateCustomer", e.Function)
	assert.Equal(t, "0xabc", e.Sender)

	require.NoError(t, s.Update(ctx, id, contracts.SubmissionUpdate{TxHash: testHash}))
	require.NoError(t, s.Update(ctx, id, contracts.SubmissionUpdate{Status: contracts.StatusBroadcast}))
	require.NoError(t, s.Update(ctx, id, contracts.SubmissionUpdate{
		Status:      contracts.StatusConfirmed,
		TxHash:      testHash,
		BlockNumber: 120,
		GasUsed:     48000,
	}))

	e, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusConfirmed, e.Status)
	assert.Equal(t, testHash, e.TxHash)
	assert.Equal(t, uint64(120), e.BlockNumber)
	assert.Equal(t, uint64(48000), e.GasUsed)
	assert.Empty(t, e.Error)
	assert.True(t, e.UpdatedAt.After(e.CreatedAt))
}

// dumpSubmissions returns every stored column value as text.
func dumpSubmissions(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT * FROM submissions`)
	require.NoError(t, err)
	defer rows.Close()
	cols, err := rows.Columns()
	require.NoError(t, err)
	var values []string
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		require.NoError(t, rows.Scan(dest...))
		for _, v := range raw {
			values = append(values, v.String)
		}
	}
	require.NoError(t, rows.Err())
	return values
}

func TestBeginDoesNotStoreArguments(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	_, err := s.Begin(ctx, contracts.Intent{Function: "createCustomer", Args: []any{"Ada Lovelace", "ada@example.com", "+44 20 7946 0018"}}, "0xabc")
	require.NoError(t, err)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM pragma_table_info('submissions') WHERE name = 'args'`).Scan(&n))
	assert.Zero(t, n, "no column for arguments")

	values := dumpSubmissions(t, s.db)
	assert.Contains(t, values, "createCustomer")
	for _, v := range values {
		assert.NotContains(t, v, "Ada Lovelace")
		assert.NotContains(t, v, "ada@example.com")
		assert.NotContains(t, v, "7946")
	}
}

func TestOpenDropsArgumentsFromOlderJournal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY, applied_at INTEGER NOT NULL)`)
	require.NoError(t, err)
	for _, m := range migrations[:3] {
		_, err = db.Exec(m.SQL)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO schema_migrations(version, applied_at) VALUES (?, 0)`, m.Version)
		require.NoError(t, err)
	}
	_, err = db.Exec(`INSERT INTO submissions (id, function, args, sender, status, created_at, updated_at)
		VALUES ('old', 'createCustomer', '["Ada","ada@example.com",""]', '0xabc', 'confirmed', 1, 1)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()

	e, err := s.Get(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusConfirmed, e.Status)
	for _, v := range dumpSubmissions(t, s.db) {
		assert.NotContains(t, v, "ada@example.com")
	}
}

func TestUpdateKeepsFieldsNotSet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	id, err := s.Begin(ctx, contracts.Intent{Function: "createProject"}, "0xabc")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, id, contracts.SubmissionUpdate{TxHash: testHash}))
	require.NoError(t, s.Update(ctx, id, contracts.SubmissionUpdate{Status: contracts.StatusTimeout, Error: "not confirmed"}))

	e, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusTimeout, e.Status)
	assert.Equal(t, testHash, e.TxHash, "an empty hash does not clear the stored one")
	assert.Equal(t, "not confirmed", e.Error)
}

func TestUnknownEntry(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	err = s.Update(ctx, "missing", contracts.SubmissionUpdate{Status: contracts.StatusFailed})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListNewestFirst(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	var ids []string
	for _, fn := range []string{"createCustomer", "createProject", "deleteCustomer"} {
		id, err := s.Begin(ctx, contracts.Intent{Function: fn}, "0xabc")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestFindByTxHash(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	id, err := s.Begin(ctx, contracts.Intent{Function: "createCustomer"}, "0xabc")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, id, contracts.SubmissionUpdate{TxHash: testHash}))

	e, err := s.FindByTxHash(ctx, "0x5C504ED432CB51138BCF09AA5E8A410DD4A1E204EF84BFED1BE16DFBA1B22060")
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)

	_, err = s.FindByTxHash(ctx, "0x00")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReopenFileKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	s, err := Open(ctx, path, nil)
	require.NoError(t, err)
	id, err := s.Begin(ctx, contracts.Intent{Function: "createCustomer"}, "0xabc")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, nil)
	require.NoError(t, err, "migrations are not reapplied")
	defer s.Close()
	e, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "createCustomer", e.Function)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestClosedStoreReportsStorageError(t *testing.T) {
	s, err := Open(context.Background(), MemoryPath, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Begin(context.Background(), contracts.Intent{Function: "createCustomer"}, "0xabc")
	assert.True(t, apperrors.IsStorage(err))

	_, err = s.List(context.Background(), 10)
	assert.True(t, apperrors.IsStorage(err))
}
