package numerator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	value int64
	err   error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.value
	return nil
}

type mockQuerier struct {
	lastSQL  string
	lastArgs []any
	row      mockRow
}

func (q *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL = sql
	q.lastArgs = args
	return q.row
}

func TestNext(t *testing.T) {
	q := &mockQuerier{row: mockRow{value: 42}}
	svc := New("document_sequences")

	value, err := svc.Next(context.Background(), q, "Receipt_2026")
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)

	assert.Contains(t, q.lastSQL, "INSERT INTO document_sequences")
	assert.Contains(t, q.lastSQL, "ON CONFLICT (key) DO UPDATE SET value = document_sequences.value + 1")
	assert.True(t, strings.Contains(q.lastSQL, "RETURNING value"))
	assert.Equal(t, []any{"Receipt_2026"}, q.lastArgs)
}

func TestNext_ScanError(t *testing.T) {
	q := &mockQuerier{row: mockRow{err: errors.New("connection reset")}}
	svc := New("document_sequences")

	_, err := svc.Next(context.Background(), q, "Receipt_2026")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Receipt_2026")
}
