package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentpub/importer/internal/domain"
)

type collectionRegistry struct {
	pool *pgxpool.Pool
}

// NewCollectionRegistry creates a Postgres-backed owning-collection registry.
func NewCollectionRegistry(pool *pgxpool.Pool) CollectionRegistry {
	return &collectionRegistry{pool: pool}
}

func (s *collectionRegistry) AddMember(ctx context.Context, collectionID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collection_members (collection_id, entity_type, entity_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		collectionID, string(entityType), entityID,
	)
	if err != nil {
		return fmt.Errorf("failed to add collection member: %w", err)
	}
	return nil
}

func (s *collectionRegistry) RemoveMember(ctx context.Context, collectionID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM collection_members
		WHERE collection_id = $1 AND entity_type = $2 AND entity_id = $3`,
		collectionID, string(entityType), entityID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove collection member: %w", err)
	}
	return nil
}
