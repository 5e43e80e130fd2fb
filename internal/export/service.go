// Package export renders imported content back out as CSV or spreadsheet
// downloads, in the same tabular shape the import pipeline accepts.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/repository"
)

// Service builds export documents from stored content.
type Service struct {
	content repository.ContentStore
}

// NewService creates an export service over the content store.
func NewService(content repository.ContentStore) *Service {
	return &Service{content: content}
}

// Document is one exported kind: a header and its data rows.
type Document struct {
	Kind    domain.Kind
	Columns []string
	Rows    [][]string
}

// coreColumns lead every export; field columns follow alphabetically.
var coreColumns = []string{"Timestamp", "Title", "Path"}

// Export collects every item of the kind into a single document. The header
// is the union of the items' field names so sparse fields stay addressable.
func (s *Service) Export(ctx context.Context, kind domain.Kind) (*Document, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	items, err := s.content.ListKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", kind, err)
	}

	fieldSet := make(map[string]struct{})
	for _, item := range items {
		for name := range item.Fields {
			fieldSet[name] = struct{}{}
		}
	}
	fields := make([]string, 0, len(fieldSet))
	for name := range fieldSet {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	doc := &Document{Kind: kind, Columns: append(append([]string{}, coreColumns...), fields...)}
	for _, item := range items {
		row := []string{item.IdempotencyKey, item.Label, item.Path}
		for _, name := range fields {
			row = append(row, renderValue(item.Fields[name]))
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

// WriteCSV streams the document as CSV.
func (d *Document) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(d.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range d.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX streams the document as a single-sheet workbook.
func (d *Document) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := setSheetRow(f, sheet, 1, d.Columns); err != nil {
		return err
	}
	for i, row := range d.Rows {
		if err := setSheetRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setSheetRow(f *excelize.File, sheet string, rowNumber int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", rowNumber, err)
	}
	values := make([]any, len(cells))
	for i, v := range cells {
		values[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNumber, err)
	}
	return nil
}

// renderValue flattens a stored field back into a cell. Lists rejoin with
// pipes, matching the import spelling; structured values fall back to JSON.
func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "on"
		}
		return "off"
	case []string:
		return strings.Join(v, "|")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, renderValue(item))
		}
		return strings.Join(parts, "|")
	case float64, int, int64:
		return fmt.Sprint(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}
