// Package repository defines the persistence boundary of the import pipeline
// and its Postgres implementations. The orchestrator only ever talks to these
// interfaces.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/contentpub/importer/internal/domain"
)

// ErrRunNotFound is returned when no persisted run carries the requested id.
var ErrRunNotFound = errors.New("import run not found")

// ContentStore persists imported content entities. The idempotency key is a
// dedup input: ExistsKey lets the orchestrator skip rows already imported.
type ContentStore interface {
	Create(ctx context.Context, item *domain.ContentItem) (uuid.UUID, error)
	Update(ctx context.Context, item *domain.ContentItem) error
	Load(ctx context.Context, id uuid.UUID) (*domain.ContentItem, error)
	ListKind(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsKey(ctx context.Context, kind domain.Kind, key string) (bool, error)
}

// MediaStore persists resolved media references.
type MediaStore interface {
	Create(ctx context.Context, ref *domain.MediaReference) (uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TermStore persists taxonomy terms. FindByName matches case-insensitively on
// the trimmed name within a vocabulary and returns nil when absent.
type TermStore interface {
	FindByName(ctx context.Context, vocabulary, name string) (*domain.Term, error)
	Create(ctx context.Context, term domain.Term) (domain.Term, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CollectionRegistry assigns created entities to their owning collection.
type CollectionRegistry interface {
	AddMember(ctx context.Context, collectionID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error
	RemoveMember(ctx context.Context, collectionID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error
}

// AliasLookup resolves a path alias to its target. found is false when the
// alias is unknown.
type AliasLookup interface {
	Resolve(ctx context.Context, path, locale string) (target string, found bool, err error)
}

// RunStore persists run ledgers so a completed run stays reversible after
// the importing call returns.
type RunStore interface {
	Save(ctx context.Context, run *domain.ImportRun) error
	Load(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error)
	SetState(ctx context.Context, id uuid.UUID, state domain.RunState) error
}

// ImportLogStore records row-level import errors for observability.
type ImportLogStore interface {
	Record(ctx context.Context, entry domain.ImportLogEntry) error
	List(ctx context.Context, runID uuid.UUID) ([]domain.ImportLogEntry, error)
}
