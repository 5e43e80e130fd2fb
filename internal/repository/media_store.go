package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentpub/importer/internal/domain"
)

type mediaStore struct {
	pool *pgxpool.Pool
}

// NewMediaStore creates a Postgres-backed media store.
func NewMediaStore(pool *pgxpool.Pool) MediaStore {
	return &mediaStore{pool: pool}
}

func (s *mediaStore) Create(ctx context.Context, ref *domain.MediaReference) (uuid.UUID, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO media_refs (id, kind, source_url, bundle, file_name, alt)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ref.ID, string(ref.Kind), ref.SourceURL, ref.Bundle, ref.FileName, ref.Alt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert media reference: %w", err)
	}
	return ref.ID, nil
}

func (s *mediaStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM media_refs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete media reference: %w", err)
	}
	return nil
}
