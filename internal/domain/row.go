package domain

// ImportRow is one parsed data row: an ordered mapping from column name to
// string value, the 1-based row number used in error messages, and the
// idempotency key assigned at first ingestion.
type ImportRow struct {
	number  int
	key     string
	columns []string
	values  map[string]string
}

// NewImportRow builds a row from a shared header and its cell values.
// columns and cells must have equal length; the reader enforces this before
// constructing rows.
func NewImportRow(number int, key string, columns []string, cells []string) ImportRow {
	values := make(map[string]string, len(columns))
	for i, col := range columns {
		values[col] = cells[i]
	}
	return ImportRow{
		number:  number,
		key:     key,
		columns: append([]string(nil), columns...),
		values:  values,
	}
}

// Number returns the 1-based position of the row within the source file.
func (r ImportRow) Number() int { return r.number }

// Key returns the row's idempotency key.
func (r ImportRow) Key() string { return r.key }

// Columns returns the header columns in file order.
func (r ImportRow) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Value returns the cell for the named column, empty when absent.
func (r ImportRow) Value(column string) string {
	return r.values[column]
}

// Has reports whether the row's header carries the named column.
func (r ImportRow) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// WithValue returns a copy of the row with one cell replaced. Rows are
// immutable; transformers work on copies.
func (r ImportRow) WithValue(column, value string) ImportRow {
	values := make(map[string]string, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	values[column] = value
	columns := r.columns
	if _, exists := r.values[column]; !exists {
		columns = append(append([]string(nil), r.columns...), column)
	}
	return ImportRow{
		number:  r.number,
		key:     r.key,
		columns: columns,
		values:  values,
	}
}
