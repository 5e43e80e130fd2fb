package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contentpub/importer/internal/domain"
)

type importLogStore struct {
	pool *pgxpool.Pool
}

// NewImportLogStore creates a Postgres-backed import error log.
func NewImportLogStore(pool *pgxpool.Pool) ImportLogStore {
	return &importLogStore{pool: pool}
}

func (s *importLogStore) Record(ctx context.Context, entry domain.ImportLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_logs (id, run_id, kind, file_name, row_number, message)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.RunID, string(entry.Kind), entry.FileName, entry.RowNumber, entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to record import log entry: %w", err)
	}
	return nil
}

func (s *importLogStore) List(ctx context.Context, runID uuid.UUID) ([]domain.ImportLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, kind, file_name, row_number, message, created_at
		FROM import_logs WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list import log entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.ImportLogEntry
	for rows.Next() {
		var (
			entry domain.ImportLogEntry
			kind  string
		)
		if err := rows.Scan(&entry.ID, &entry.RunID, &kind, &entry.FileName, &entry.RowNumber, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import log entry: %w", err)
		}
		entry.Kind = domain.Kind(kind)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read import log entries: %w", err)
	}
	return entries, nil
}
