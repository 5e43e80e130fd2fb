// Package schema declares the expected and reserved columns for every
// importable content kind. Lookups are pure; no I/O happens here.
package schema

import (
	"errors"

	"github.com/contentpub/importer/internal/domain"
)

// ErrUnknownKind is returned for kinds with no declared schema.
var ErrUnknownKind = errors.New("unknown content kind")

// IdempotencyColumn is the reserved column carrying the per-row idempotency
// key. When absent the tabular reader synthesizes it and rewrites the source
// file with it prepended.
const IdempotencyColumn = "Timestamp"

// bookkeepingColumns are always treated as reserved regardless of kind: row
// identity, delimiter metadata, the idempotency date stamp, and free-form
// constants. They never become taxonomy vocabulary candidates.
var bookkeepingColumns = []string{
	IdempotencyColumn,
	"path",
	"ids",
	"header_offset",
	"fields",
	"delimiter",
	"enclosure",
	"escape",
	"plugin",
	"constants",
	"view",
}

type kindSchema struct {
	required []string
	extra    []string
}

var schemas = map[domain.Kind]kindSchema{
	domain.KindEvents: {
		required: []string{"Title", "Body", "Start date", "End date", "Location", "Registration", "Files", "Created date", "Path"},
	},
	domain.KindLinks: {
		required: []string{"Title", "Body", "URL", "Files", "Created date", "Path"},
	},
	domain.KindNews: {
		required: []string{"Title", "Date", "Body", "Redirect", "Image", "Files", "Created date", "Path"},
	},
	domain.KindPages: {
		required: []string{"Title", "Body", "Files", "Created date", "Path", "Parent Path"},
	},
	domain.KindProfiles: {
		required: []string{"First name", "Last name", "Photo", "Created date", "Email", "Path"},
		extra: []string{
			"Prefix", "Middle name",
			"Title 1", "Title 2", "Title 3",
			"Address", "Phone",
			"Websites title 1", "Websites url 1",
			"Websites title 2", "Websites url 2",
			"Websites title 3", "Websites url 3",
			"Short bio", "links",
		},
	},
	domain.KindSoftware: {
		required: []string{"Title", "Body", "Files", "Created date", "Path"},
	},
	domain.KindPublications: {
		required: []string{"Title", "Authors", "Year", "Created date", "Path"},
		extra:    []string{"Type", "Journal", "Abstract", "URL", "Editors"},
	},
}

// RequiredColumns returns the columns a file header must carry for the kind,
// in declaration order.
func RequiredColumns(kind domain.Kind) ([]string, error) {
	s, ok := schemas[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return append([]string(nil), s.required...), nil
}

// ReservedColumns returns every column that must be excluded when inferring
// "extra columns are taxonomy vocabularies": the kind's known columns plus
// the always-present bookkeeping set.
func ReservedColumns(kind domain.Kind) ([]string, error) {
	s, ok := schemas[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	out := make([]string, 0, len(bookkeepingColumns)+len(s.required)+len(s.extra))
	out = append(out, bookkeepingColumns...)
	out = append(out, s.required...)
	out = append(out, s.extra...)
	return out, nil
}

// VocabularyColumns computes the candidate taxonomy vocabulary columns for a
// row header: every column not in the kind's reserved set, in header order.
func VocabularyColumns(kind domain.Kind, header []string) ([]string, error) {
	reserved, err := ReservedColumns(kind)
	if err != nil {
		return nil, err
	}
	reservedSet := make(map[string]struct{}, len(reserved))
	for _, col := range reserved {
		reservedSet[col] = struct{}{}
	}
	var vocabs []string
	for _, col := range header {
		if _, ok := reservedSet[col]; !ok {
			vocabs = append(vocabs, col)
		}
	}
	return vocabs, nil
}
