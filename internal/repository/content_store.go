package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentpub/importer/internal/domain"
)

// contentStore implements ContentStore on Postgres with a JSONB fields column.
type contentStore struct {
	pool *pgxpool.Pool
}

// NewContentStore creates a Postgres-backed content store.
func NewContentStore(pool *pgxpool.Pool) ContentStore {
	return &contentStore{pool: pool}
}

func (s *contentStore) Create(ctx context.Context, item *domain.ContentItem) (uuid.UUID, error) {
	fields, err := json.Marshal(item.Fields)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode fields: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO content_items (id, kind, label, path, path_auto, idempotency_key, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, string(item.Kind), item.Label, item.Path, item.PathAuto,
		item.IdempotencyKey, fields, item.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert content item: %w", err)
	}
	return item.ID, nil
}

func (s *contentStore) Update(ctx context.Context, item *domain.ContentItem) error {
	fields, err := json.Marshal(item.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE content_items
		SET label = $2, path = $3, path_auto = $4, fields = $5
		WHERE id = $1`,
		item.ID, item.Label, item.Path, item.PathAuto, fields,
	)
	if err != nil {
		return fmt.Errorf("failed to update content item: %w", err)
	}
	return nil
}

func (s *contentStore) Load(ctx context.Context, id uuid.UUID) (*domain.ContentItem, error) {
	var (
		item   domain.ContentItem
		kind   string
		fields []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, kind, label, path, path_auto, idempotency_key, fields, created_at
		FROM content_items WHERE id = $1`, id,
	).Scan(&item.ID, &kind, &item.Label, &item.Path, &item.PathAuto,
		&item.IdempotencyKey, &fields, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load content item: %w", err)
	}
	item.Kind = domain.Kind(kind)
	if err := json.Unmarshal(fields, &item.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	return &item, nil
}

func (s *contentStore) ListKind(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, label, path, path_auto, idempotency_key, fields, created_at
		FROM content_items WHERE kind = $1 ORDER BY created_at, id`, string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list content items: %w", err)
	}
	defer rows.Close()

	var items []*domain.ContentItem
	for rows.Next() {
		var (
			item      domain.ContentItem
			kindValue string
			fields    []byte
		)
		if err := rows.Scan(&item.ID, &kindValue, &item.Label, &item.Path, &item.PathAuto,
			&item.IdempotencyKey, &fields, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}
		item.Kind = domain.Kind(kindValue)
		if err := json.Unmarshal(fields, &item.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list content items: %w", err)
	}
	return items, nil
}

func (s *contentStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM content_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete content item: %w", err)
	}
	return nil
}

func (s *contentStore) ExistsKey(ctx context.Context, kind domain.Kind, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM content_items WHERE kind = $1 AND idempotency_key = $2
		)`, string(kind), key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return exists, nil
}
