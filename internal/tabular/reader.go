// Package tabular parses delimited upload files into import rows, normalizes
// their encoding, and assigns per-row idempotency keys.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/schema"
)

// RowLimit caps the number of data rows accepted from one file. Files beyond
// the limit are rejected outright rather than truncated.
const RowLimit = 100

var (
	// ErrEmptyResult is returned when the file has no data rows or when any
	// row's column count differs from the header's. The whole file is
	// rejected, never row by row.
	ErrEmptyResult = errors.New("file has no importable rows")

	// ErrOverLimit is returned when the file exceeds RowLimit data rows.
	ErrOverLimit = errors.New("rows over allowed limit")

	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Options configure delimited parsing.
type Options struct {
	Delimiter rune   // field delimiter, ',' when zero
	Encoding  string // source charset, UTF-8 when empty
}

// Reader converts upload files into rows sharing one header.
type Reader struct {
	opts Options
}

// NewReader builds a reader with the given options.
func NewReader(opts Options) *Reader {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &Reader{opts: opts}
}

// ParseFile reads the file at path and returns its data rows. When the header
// lacks the idempotency-key column the keys are synthesized and the file is
// rewritten in place with the column prepended, so that re-reading the same
// file yields identical keys and appended rows get fresh ones.
func (r *Reader) ParseFile(path string) ([]domain.ImportRow, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return r.parseCSVFile(path)
	case ".xlsx":
		return r.parseExcelFile(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func (r *Reader) parseCSVFile(path string) ([]domain.ImportRow, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	payload, err = r.decode(payload)
	if err != nil {
		return nil, err
	}

	payload = bytes.TrimPrefix(payload, byteOrderMark)

	csvReader := csv.NewReader(bytes.NewReader(payload))
	csvReader.Comma = r.opts.Delimiter
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	header, data, err := splitRecords(records)
	if err != nil {
		return nil, err
	}

	header, data, changed := ensureKeys(header, data)
	if changed {
		if err := r.writeBackCSV(path, header, data); err != nil {
			return nil, err
		}
	}

	return buildRows(header, data)
}

// splitRecords separates the header from data rows and applies the structural
// checks: zero data rows and column-count mismatches reject the whole file,
// and the row ceiling yields its own signal instead of a truncated prefix.
func splitRecords(records [][]string) ([]string, [][]string, error) {
	if len(records) == 0 {
		return nil, nil, ErrEmptyResult
	}
	header := records[0]
	var data [][]string
	for _, row := range records[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) != len(header) {
			return nil, nil, ErrEmptyResult
		}
		data = append(data, row)
	}
	if len(data) == 0 {
		return nil, nil, ErrEmptyResult
	}
	if len(data) > RowLimit {
		return nil, nil, ErrOverLimit
	}
	return header, data, nil
}

// ensureKeys guarantees every row carries an idempotency key. A missing
// column is prepended and filled; rows appended to an already-keyed file get
// fresh keys while existing rows keep theirs. The caller rewrites the file
// when anything changed.
func ensureKeys(header []string, data [][]string) ([]string, [][]string, bool) {
	keyIdx := -1
	for i, col := range header {
		if col == schema.IdempotencyColumn {
			keyIdx = i
			break
		}
	}

	if keyIdx == -1 {
		newHeader := append([]string{schema.IdempotencyColumn}, header...)
		newData := make([][]string, len(data))
		for i, row := range data {
			newData[i] = append([]string{uuid.NewString()}, row...)
		}
		return newHeader, newData, true
	}

	changed := false
	for _, row := range data {
		if strings.TrimSpace(row[keyIdx]) == "" {
			row[keyIdx] = uuid.NewString()
			changed = true
		}
	}
	return header, data, changed
}

// writeBackCSV rewrites the source file so repeat ingestion of the same file
// keeps its keys.
func (r *Reader) writeBackCSV(path string, header []string, data [][]string) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.Comma = r.opts.Delimiter
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to rewrite header: %w", err)
	}
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to rewrite row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to rewrite csv: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write back keys: %w", err)
	}
	return nil
}

// buildRows turns raw records into rows carrying their 1-based number and the
// key taken from the idempotency column.
func buildRows(header []string, data [][]string) ([]domain.ImportRow, error) {
	keyIdx := -1
	for i, col := range header {
		if col == schema.IdempotencyColumn {
			keyIdx = i
			break
		}
	}
	rows := make([]domain.ImportRow, len(data))
	for i, cells := range data {
		key := ""
		if keyIdx >= 0 {
			key = cells[keyIdx]
		}
		rows[i] = domain.NewImportRow(i+1, key, header, cells)
	}
	return rows, nil
}

// decode converts the payload from the configured charset to UTF-8.
func (r *Reader) decode(payload []byte) ([]byte, error) {
	name := strings.ToLower(strings.TrimSpace(r.opts.Encoding))
	if name == "" || name == "utf-8" || name == "utf8" {
		return payload, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", r.opts.Encoding, err)
	}
	decoded, err := enc.NewDecoder().Bytes(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %q to utf-8: %w", r.opts.Encoding, err)
	}
	return decoded, nil
}

func contains(columns []string, name string) bool {
	for _, col := range columns {
		if col == name {
			return true
		}
	}
	return false
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
