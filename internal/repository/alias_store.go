package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type aliasLookup struct {
	pool *pgxpool.Pool
}

// NewAliasLookup creates a Postgres-backed path alias lookup.
func NewAliasLookup(pool *pgxpool.Pool) AliasLookup {
	return &aliasLookup{pool: pool}
}

func (s *aliasLookup) Resolve(ctx context.Context, path, locale string) (string, bool, error) {
	var target string
	err := s.pool.QueryRow(ctx, `
		SELECT target FROM path_aliases WHERE alias = $1 AND locale = $2`,
		path, locale,
	).Scan(&target)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve alias: %w", err)
	}
	return target, true, nil
}
