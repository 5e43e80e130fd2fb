package schema

import (
	"errors"
	"testing"

	"github.com/contentpub/importer/internal/domain"
)

func TestRequiredColumnsKnownKinds(t *testing.T) {
	for _, kind := range domain.Kinds() {
		columns, err := RequiredColumns(kind)
		if err != nil {
			t.Fatalf("kind %s: %v", kind, err)
		}
		if len(columns) == 0 {
			t.Fatalf("kind %s: expected required columns", kind)
		}
	}
}

func TestRequiredColumnsUnknownKind(t *testing.T) {
	_, err := RequiredColumns(domain.Kind("faq"))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestReservedColumnsIncludeBookkeeping(t *testing.T) {
	reserved, err := ReservedColumns(domain.KindEvents)
	if err != nil {
		t.Fatalf("reserved columns: %v", err)
	}
	seen := make(map[string]bool, len(reserved))
	for _, col := range reserved {
		seen[col] = true
	}
	for _, col := range []string{IdempotencyColumn, "Title", "Start date", "constants"} {
		if !seen[col] {
			t.Fatalf("expected %q in reserved set", col)
		}
	}
}

func TestVocabularyColumnsExcludesReserved(t *testing.T) {
	header := []string{IdempotencyColumn, "Title", "Body", "Start date", "End date", "Location", "Registration", "Files", "Created date", "Path", "Topics", "Regions"}
	vocabs, err := VocabularyColumns(domain.KindEvents, header)
	if err != nil {
		t.Fatalf("vocabulary columns: %v", err)
	}
	if len(vocabs) != 2 || vocabs[0] != "Topics" || vocabs[1] != "Regions" {
		t.Fatalf("unexpected vocabulary columns: %v", vocabs)
	}
}
