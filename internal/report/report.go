// Package report aggregates row-indexed validation errors into compacted,
// row-range-annotated messages with a running total.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Entry is one compacted rule violation: a stable placeholder key, the raw
// rule message, its rendered form, and the distinct affected rows for display
// on demand.
type Entry struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Rendered string `json:"rendered"`
	Rows     []int  `json:"rows"`
	Count    int    `json:"count"`
}

// Report collects entries keyed by placeholder. A report is empty if and only
// if its total count is zero; callers treat a non-empty report as "reject the
// whole file, persist nothing".
type Report struct {
	entries map[string]Entry
	order   []string
	total   int
}

// New returns an empty report.
func New() *Report {
	return &Report{entries: make(map[string]Entry)}
}

// Compact renders one rule violation. A single affected row renders
// "Row R: <message>"; multiple rows render "<count> Rows: <message>" with the
// count equal to the number of distinct affected rows.
func Compact(rows []int, message string) (string, int) {
	rows = normalizeRows(rows)
	if len(rows) == 0 {
		return "", 0
	}
	if len(rows) == 1 {
		return fmt.Sprintf("Row %d: %s", rows[0], message), 1
	}
	return fmt.Sprintf("%d Rows: %s", len(rows), message), len(rows)
}

// Add records a rule violation under the placeholder key. Rows are sorted and
// deduplicated; a violation with no affected rows is never surfaced. Adding
// the same key again replaces the previous entry.
func (r *Report) Add(field string, rows []int, message string) {
	rows = normalizeRows(rows)
	if len(rows) == 0 {
		return
	}
	rendered, count := Compact(rows, message)
	if previous, seen := r.entries[field]; seen {
		r.total -= previous.Count
	} else {
		r.order = append(r.order, field)
	}
	r.entries[field] = Entry{
		Field:    field,
		Message:  message,
		Rendered: rendered,
		Rows:     rows,
		Count:    count,
	}
	r.total += count
}

// AddFile records a file-scoped violation, one that rejects the upload as a
// whole rather than pointing at rows. It renders verbatim and counts once.
func (r *Report) AddFile(field, message string) {
	if previous, seen := r.entries[field]; seen {
		r.total -= previous.Count
	} else {
		r.order = append(r.order, field)
	}
	r.entries[field] = Entry{
		Field:    field,
		Message:  message,
		Rendered: message,
		Count:    1,
	}
	r.total++
}

// Merge folds every entry of other into r. Per-kind validators merge the base
// validator's report rather than replacing it.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	for _, field := range other.order {
		entry := other.entries[field]
		if len(entry.Rows) == 0 {
			r.AddFile(field, entry.Message)
			continue
		}
		r.Add(field, entry.Rows, entry.Message)
	}
}

// Empty reports whether the report carries no errors.
func (r *Report) Empty() bool {
	return r == nil || r.total == 0
}

// Total returns the sum of counts across all distinct rule violations.
func (r *Report) Total() int {
	if r == nil {
		return 0
	}
	return r.total
}

// Entry returns the entry stored under the placeholder key.
func (r *Report) Entry(field string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	entry, ok := r.entries[field]
	return entry, ok
}

// Entries returns all entries in insertion order.
func (r *Report) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, len(r.order))
	for _, field := range r.order {
		out = append(out, r.entries[field])
	}
	return out
}

// Summary synthesizes the final total message, empty when there are no errors.
func (r *Report) Summary() string {
	if r.Empty() {
		return ""
	}
	return fmt.Sprintf("The Import file has %d error(s).", r.total)
}

type reportJSON struct {
	Errors  []Entry `json:"errors"`
	Total   int     `json:"total"`
	Summary string  `json:"summary,omitempty"`
}

// MarshalJSON renders the report for API responses.
func (r *Report) MarshalJSON() ([]byte, error) {
	if r == nil {
		return json.Marshal(reportJSON{Errors: []Entry{}})
	}
	return json.Marshal(reportJSON{
		Errors:  r.Entries(),
		Total:   r.total,
		Summary: r.Summary(),
	})
}

func normalizeRows(rows []int) []int {
	if len(rows) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(rows))
	out := make([]int, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	sort.Ints(out)
	return out
}
