// Package importer turns validated tabular rows into persisted content. Each
// content kind registers a strategy that knows its columns, its validation
// rules, and how a row becomes a content item.
package importer

import (
	"context"
	"errors"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/media"
	"github.com/contentpub/importer/internal/report"
	"github.com/contentpub/importer/internal/repository"
	"github.com/contentpub/importer/internal/taxonomy"
)

// ErrNoImporter is returned when a kind has no registered strategy.
var ErrNoImporter = errors.New("no importer registered for kind")

// Importer validates and transforms rows of a single content kind. The
// orchestrator drives the three row hooks in order: PrepareRow builds the
// item from normalized cell values, PreSave runs immediately before the item
// is persisted, and PostSave runs once the entity id exists. A kind with no
// special needs inherits the base behavior for PreSave and PostSave.
type Importer interface {
	Kind() domain.Kind

	// ValidateHeaders checks the file's columns against the kind's schema,
	// reporting each missing column under its own placeholder.
	ValidateHeaders(rows []domain.ImportRow) *report.Report

	// Validate inspects every row and returns the accumulated violations.
	// A non-empty report rejects the whole file.
	Validate(ctx context.Context, rows []domain.ImportRow) *report.Report

	// PrepareRow builds the content item for one clean row: canonicalized
	// dates, derived flags, structured link fields, the aliasing decision.
	PrepareRow(ctx context.Context, run *domain.ImportRun, row domain.ImportRow) (*domain.ContentItem, error)

	// PreSave resolves and attaches remote media and parent linkages. A
	// resolution failure leaves the field unset; only a store error fails
	// the row. Media stored along the way is recorded on the run.
	PreSave(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error

	// PostSave attaches taxonomy terms once the entity exists, recording
	// newly created terms on the run for rollback.
	PostSave(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error
}

// Deps carries the collaborators shared by every strategy.
type Deps struct {
	Media      *media.Resolver
	MediaStore repository.MediaStore
	Taxonomy   *taxonomy.Resolver
	Aliases    repository.AliasLookup
	Checker    *URLChecker
}

// Registry holds the compiled-in strategies, one per kind.
type Registry struct {
	importers map[domain.Kind]Importer
}

// NewRegistry wires a strategy for every supported kind.
func NewRegistry(deps Deps) *Registry {
	b := newBase(deps)
	registry := &Registry{importers: make(map[domain.Kind]Importer)}
	for _, imp := range []Importer{
		&eventsImporter{base: b},
		&linksImporter{base: b},
		&newsImporter{base: b},
		&pagesImporter{base: b},
		&profilesImporter{base: b},
		&softwareImporter{base: b},
		&publicationsImporter{base: b},
	} {
		registry.importers[imp.Kind()] = imp
	}
	return registry
}

// For returns the strategy registered for kind.
func (r *Registry) For(kind domain.Kind) (Importer, error) {
	imp, ok := r.importers[kind]
	if !ok {
		return nil, ErrNoImporter
	}
	return imp, nil
}
