package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/report"
	"github.com/contentpub/importer/internal/schema"
)

// baseDateLayouts are the accepted spellings of plain date cells, tried in
// order. A value parses only when formatting it back reproduces the input, so
// "13/40/2020" cannot sneak through layout normalization.
var baseDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02-01-2006",
}

// eventDateLayout is the spelling of event start and end cells.
const eventDateLayout = "2006-01-02 03:04 PM"

// base bundles the collaborators and row helpers shared by every kind
// strategy.
type base struct {
	deps Deps
}

func newBase(deps Deps) base {
	return base{deps: deps}
}

// PreSave is the default pre-persistence hook; kinds with media columns or
// parent linkages override it.
func (b base) PreSave(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error {
	return nil
}

// PostSave attaches the row's taxonomy terms once the entity id exists.
func (b base) PostSave(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error {
	return b.applyTaxonomy(ctx, run, item, row)
}

// validateHeaders reports every schema column absent from the rows' header
// under the column's own name, so a caller can test a specific column's
// presence directly.
func validateHeaders(kind domain.Kind, rows []domain.ImportRow) *report.Report {
	rep := report.New()
	if len(rows) == 0 {
		return rep
	}
	required, err := schema.RequiredColumns(kind)
	if err != nil {
		return rep
	}
	present := make(map[string]struct{}, len(rows[0].Columns()))
	for _, column := range rows[0].Columns() {
		present[column] = struct{}{}
	}
	for _, column := range required {
		if _, ok := present[column]; !ok {
			rep.AddFile(column, fmt.Sprintf("The %s column is missing.", column))
		}
	}
	return rep
}

// parseBaseDate parses a plain date cell, reporting ok only on an exact
// round-trip against one of the accepted layouts.
func parseBaseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range baseDateLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if parsed.Format(layout) == value {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// canonicalDate rewrites a date cell to ISO form, leaving unparseable values
// untouched.
func canonicalDate(value string) string {
	if parsed, ok := parseBaseDate(value); ok {
		return parsed.Format("2006-01-02")
	}
	return value
}

func validURL(value string) bool {
	parsed, err := url.ParseRequestURI(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// requireColumn flags every row whose cell for the column is blank.
func requireColumn(rep *report.Report, rows []domain.ImportRow, column, field, message string) {
	var affected []int
	for _, row := range rows {
		if strings.TrimSpace(row.Value(column)) == "" {
			affected = append(affected, row.Number())
		}
	}
	rep.Add(field, affected, message)
}

// validateCreatedDate flags rows whose non-empty Created date cell does not
// parse. An empty cell is fine; creation time falls back to the import time.
func validateCreatedDate(rep *report.Report, rows []domain.ImportRow) {
	var affected []int
	for _, row := range rows {
		value := strings.TrimSpace(row.Value("Created date"))
		if value == "" {
			continue
		}
		if _, ok := parseBaseDate(value); !ok {
			affected = append(affected, row.Number())
		}
	}
	rep.Add("created_date", affected, "Created date format is invalid.")
}

// createdAt resolves a row's creation time, falling back to now.
func createdAt(row domain.ImportRow) time.Time {
	if parsed, ok := parseBaseDate(row.Value("Created date")); ok {
		return parsed
	}
	return time.Now()
}

// newItem starts the content item for a row: id, kind, idempotency key,
// label, creation time.
func (b base) newItem(kind domain.Kind, row domain.ImportRow, label string) *domain.ContentItem {
	item := domain.NewContentItem(kind, row.Key())
	item.Label = strings.TrimSpace(label)
	item.CreatedAt = createdAt(row)
	return item
}

// applyPath sets the item's path and decides automatic aliasing: a path whose
// alias already resolves keeps it verbatim with aliasing off, anything else
// gets an automatically generated alias.
func (b base) applyPath(ctx context.Context, item *domain.ContentItem, row domain.ImportRow) error {
	path := strings.TrimSpace(row.Value("Path"))
	item.Path = path
	item.PathAuto = true
	if path == "" || b.deps.Aliases == nil {
		return nil
	}
	_, found, err := b.deps.Aliases.Resolve(ctx, path, "")
	if err != nil {
		return fmt.Errorf("failed to resolve path alias %q: %w", path, err)
	}
	if found {
		item.PathAuto = false
	}
	return nil
}

// attachMedia resolves the row's pipe-delimited URLs for the column and
// stores a reference for each match. Resolved ids land on the item under the
// field name; unresolvable URLs are skipped without failing the row.
func (b base) attachMedia(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow, column, field, alt string) error {
	var ids []string
	for _, raw := range splitList(row.Value(column)) {
		ref := b.deps.Media.Resolve(ctx, item.Kind, column, raw)
		if ref == nil {
			continue
		}
		ref.Alt = alt
		id, err := b.deps.MediaStore.Create(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to store media for %q: %w", raw, err)
		}
		run.Record(domain.EntityMedia, id)
		ids = append(ids, id.String())
	}
	if len(ids) > 0 {
		item.SetField(field, ids)
	}
	return nil
}

// applyTaxonomy treats every non-reserved header column as a vocabulary and
// resolves its pipe-delimited cell into terms, creating missing ones. Created
// terms are recorded on the run so rollback removes them.
func (b base) applyTaxonomy(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error {
	vocabularies, err := schema.VocabularyColumns(item.Kind, row.Columns())
	if err != nil {
		return err
	}
	assigned := make(map[string][]string)
	for _, vocabulary := range vocabularies {
		terms, created, err := b.deps.Taxonomy.ResolveOrCreate(ctx, vocabulary, row.Value(vocabulary))
		if err != nil {
			return err
		}
		for _, term := range created {
			run.Record(domain.EntityTerm, term.ID)
		}
		for _, term := range terms {
			assigned[vocabulary] = append(assigned[vocabulary], term.ID.String())
		}
	}
	if len(assigned) > 0 {
		item.SetField("terms", assigned)
	}
	return nil
}

// cells projects one column across all rows for bulk URL checks.
func cells(rows []domain.ImportRow, column string) []rowColumn {
	out := make([]rowColumn, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowColumn{number: row.Number(), value: row.Value(column)})
	}
	return out
}

// splitList splits a pipe-delimited cell into trimmed non-empty parts.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "|") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
