package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentpub/importer/internal/domain"
)

type termStore struct {
	pool *pgxpool.Pool
}

// NewTermStore creates a Postgres-backed taxonomy term store.
func NewTermStore(pool *pgxpool.Pool) TermStore {
	return &termStore{pool: pool}
}

func (s *termStore) FindByName(ctx context.Context, vocabulary, name string) (*domain.Term, error) {
	var term domain.Term
	err := s.pool.QueryRow(ctx, `
		SELECT id, vocabulary, name FROM taxonomy_terms
		WHERE vocabulary = $1 AND LOWER(name) = LOWER($2)`,
		vocabulary, strings.TrimSpace(name),
	).Scan(&term.ID, &term.Vocabulary, &term.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find term: %w", err)
	}
	return &term, nil
}

func (s *termStore) Create(ctx context.Context, term domain.Term) (domain.Term, error) {
	if term.ID == uuid.Nil {
		term.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO taxonomy_terms (id, vocabulary, name) VALUES ($1, $2, $3)`,
		term.ID, term.Vocabulary, term.Name,
	)
	if err != nil {
		return domain.Term{}, fmt.Errorf("failed to insert term: %w", err)
	}
	return term, nil
}

func (s *termStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM taxonomy_terms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete term: %w", err)
	}
	return nil
}
