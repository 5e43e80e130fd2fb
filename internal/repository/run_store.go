package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentpub/importer/internal/domain"
)

// runStore implements RunStore on Postgres. The created-entity ledger is a
// JSONB column, ordered as recorded so reversal order survives a reload.
type runStore struct {
	pool *pgxpool.Pool
}

// NewRunStore creates a Postgres-backed run store.
func NewRunStore(pool *pgxpool.Pool) RunStore {
	return &runStore{pool: pool}
}

func (s *runStore) Save(ctx context.Context, run *domain.ImportRun) error {
	created, err := json.Marshal(run.Created)
	if err != nil {
		return fmt.Errorf("failed to encode run ledger: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO import_runs (id, kind, collection_id, file_name, state, created, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, created = EXCLUDED.created`,
		run.ID, string(run.Kind), run.CollectionID, run.FileName,
		string(run.State), created, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save import run: %w", err)
	}
	return nil
}

func (s *runStore) Load(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	var (
		run     domain.ImportRun
		kind    string
		state   string
		created []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, kind, collection_id, file_name, state, created, started_at
		FROM import_runs WHERE id = $1`, id,
	).Scan(&run.ID, &kind, &run.CollectionID, &run.FileName, &state, &created, &run.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load import run: %w", err)
	}
	run.Kind = domain.Kind(kind)
	run.State = domain.RunState(state)
	if err := json.Unmarshal(created, &run.Created); err != nil {
		return nil, fmt.Errorf("failed to decode run ledger: %w", err)
	}
	return &run, nil
}

func (s *runStore) SetState(ctx context.Context, id uuid.UUID, state domain.RunState) error {
	tag, err := s.pool.Exec(ctx, `UPDATE import_runs SET state = $2 WHERE id = $1`, id, string(state))
	if err != nil {
		return fmt.Errorf("failed to update import run state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}
