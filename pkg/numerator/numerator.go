// Package numerator provides gapless document auto-numbering backed
// by a sequence table. Every number is taken with a single
// upsert-returning statement, so concurrent writers never collide.
package numerator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the database handle the numerator runs against; it is
// satisfied by a pool or an open transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service hands out sequential numbers per key.
type Service struct {
	table string
}

// New creates a numerator over the given sequence table.
func New(table string) *Service {
	return &Service{table: table}
}

// Next returns the next sequence value for the key, starting at 1.
// Call inside the same transaction as the write that uses the number
// to keep sequences gapless.
func (s *Service) Next(ctx context.Context, q Querier, key string) (int64, error) {
	sql := fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET value = %s.value + 1
		RETURNING value`, s.table, s.table)

	var value int64
	if err := q.QueryRow(ctx, sql, key).Scan(&value); err != nil {
		return 0, fmt.Errorf("next number for %q: %w", key, err)
	}

	return value, nil
}
