package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/contentpub/importer/internal/domain"
)

type stubContentStore struct {
	items []*domain.ContentItem
}

func (s *stubContentStore) Create(_ context.Context, item *domain.ContentItem) (uuid.UUID, error) {
	s.items = append(s.items, item)
	return item.ID, nil
}

func (s *stubContentStore) Load(_ context.Context, id uuid.UUID) (*domain.ContentItem, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, nil
}

func (s *stubContentStore) ListKind(_ context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	var out []*domain.ContentItem
	for _, item := range s.items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubContentStore) Update(context.Context, *domain.ContentItem) error { return nil }

func (s *stubContentStore) Delete(context.Context, uuid.UUID) error { return nil }

func (s *stubContentStore) ExistsKey(context.Context, domain.Kind, string) (bool, error) {
	return false, nil
}

func sampleStore() *stubContentStore {
	link := domain.NewContentItem(domain.KindLinks, "key-1")
	link.Label = "Docs"
	link.Path = "links/docs"
	link.SetField("url", "https://example.org")
	link.SetField("body", "Reference docs")
	link.CreatedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	other := domain.NewContentItem(domain.KindNews, "key-2")
	other.Label = "Unrelated"

	return &stubContentStore{items: []*domain.ContentItem{link, other}}
}

func TestExportBuildsDocument(t *testing.T) {
	service := NewService(sampleStore())

	doc, err := service.Export(context.Background(), domain.KindLinks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantColumns := []string{"Timestamp", "Title", "Path", "body", "url"}
	if !reflect.DeepEqual(doc.Columns, wantColumns) {
		t.Errorf("expected columns %v, got %v", wantColumns, doc.Columns)
	}
	if len(doc.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(doc.Rows))
	}
	wantRow := []string{"key-1", "Docs", "links/docs", "Reference docs", "https://example.org"}
	if !reflect.DeepEqual(doc.Rows[0], wantRow) {
		t.Errorf("expected row %v, got %v", wantRow, doc.Rows[0])
	}
}

func TestExportUnknownKind(t *testing.T) {
	service := NewService(sampleStore())
	if _, err := service.Export(context.Background(), domain.Kind("podcasts")); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}

func TestWriteCSVRoundTrips(t *testing.T) {
	service := NewService(sampleStore())
	doc, err := service.Export(context.Background(), domain.KindLinks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := doc.WriteCSV(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV must parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d records", len(records))
	}
}

func TestRenderValue(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{nil, ""},
		{"plain", "plain"},
		{true, "on"},
		{false, "off"},
		{[]string{"a", "b"}, "a|b"},
		{[]any{"x", "y"}, "x|y"},
		{42, "42"},
	}
	for _, tc := range cases {
		if got := renderValue(tc.value); got != tc.want {
			t.Errorf("renderValue(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestHandlerServesCSV(t *testing.T) {
	handler := NewHTTPHandler(NewService(sampleStore()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/export?kind=links", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
}

func TestHandlerRejectsUnknownKind(t *testing.T) {
	handler := NewHTTPHandler(NewService(sampleStore()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/export?kind=podcasts", nil))
	if rec.Code != 400 {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
