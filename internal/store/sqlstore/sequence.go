package sqlstore

import (
	"context"
	"errors"
	"fmt"
)

// Next increments scope's counter in a single upsert and returns the new value.
func (s *Store) Next(ctx context.Context, scope string) (int64, error) {
	if scope == "" {
		return 0, errors.New("sequence scope must not be empty")
	}
	var n int64
	err := s.queryRow(ctx, s.db, `
		INSERT INTO sequences (scope, value) VALUES (?, 1)
		ON CONFLICT (scope) DO UPDATE SET value = sequences.value + 1
		RETURNING value`, scope).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s sequence: %w", scope, err)
	}
	return n, nil
}

// Seed raises scope's counter to at least value.
func (s *Store) Seed(ctx context.Context, scope string, value int64) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO sequences (scope, value) VALUES (?, ?)
		ON CONFLICT (scope) DO UPDATE SET value = CASE
			WHEN excluded.value > sequences.value THEN excluded.value ELSE sequences.value END`,
		scope, value)
	if err != nil {
		return fmt.Errorf("failed to seed %s sequence: %w", scope, err)
	}
	return nil
}
