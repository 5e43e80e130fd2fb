package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/media"
	"github.com/contentpub/importer/internal/repository"
	"github.com/contentpub/importer/internal/tabular"
	"github.com/contentpub/importer/internal/taxonomy"
)

type memContentStore struct {
	items     map[uuid.UUID]*domain.ContentItem
	keys      map[string]bool
	failLabel string
	deleted   []uuid.UUID
}

func newMemContentStore() *memContentStore {
	return &memContentStore{items: make(map[uuid.UUID]*domain.ContentItem), keys: make(map[string]bool)}
}

func (s *memContentStore) Create(_ context.Context, item *domain.ContentItem) (uuid.UUID, error) {
	if s.failLabel != "" && item.Label == s.failLabel {
		return uuid.Nil, errors.New("constraint violation")
	}
	s.items[item.ID] = item
	s.keys[string(item.Kind)+"/"+item.IdempotencyKey] = true
	return item.ID, nil
}

func (s *memContentStore) Update(_ context.Context, item *domain.ContentItem) error {
	if _, ok := s.items[item.ID]; !ok {
		return errors.New("not found")
	}
	s.items[item.ID] = item
	return nil
}

func (s *memContentStore) Load(_ context.Context, id uuid.UUID) (*domain.ContentItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return item, nil
}

func (s *memContentStore) ListKind(_ context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	var items []*domain.ContentItem
	for _, item := range s.items {
		if item.Kind == kind {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *memContentStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.items, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *memContentStore) ExistsKey(_ context.Context, kind domain.Kind, key string) (bool, error) {
	return s.keys[string(kind)+"/"+key], nil
}

type memMediaStore struct {
	refs    map[uuid.UUID]*domain.MediaReference
	deleted []uuid.UUID
}

func newMemMediaStore() *memMediaStore {
	return &memMediaStore{refs: make(map[uuid.UUID]*domain.MediaReference)}
}

func (s *memMediaStore) Create(_ context.Context, ref *domain.MediaReference) (uuid.UUID, error) {
	s.refs[ref.ID] = ref
	return ref.ID, nil
}

func (s *memMediaStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.refs, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type memTermStore struct {
	terms   []domain.Term
	deleted []uuid.UUID
}

func (s *memTermStore) FindByName(_ context.Context, vocabulary, name string) (*domain.Term, error) {
	for i := range s.terms {
		if s.terms[i].Vocabulary == vocabulary && strings.EqualFold(s.terms[i].Name, name) {
			return &s.terms[i], nil
		}
	}
	return nil, nil
}

func (s *memTermStore) Create(_ context.Context, term domain.Term) (domain.Term, error) {
	s.terms = append(s.terms, term)
	return term, nil
}

func (s *memTermStore) Delete(_ context.Context, id uuid.UUID) error {
	for i := range s.terms {
		if s.terms[i].ID == id {
			s.terms = append(s.terms[:i], s.terms[i+1:]...)
			break
		}
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type memCollections struct {
	members map[uuid.UUID][]domain.EntityRef
	removed []domain.EntityRef
}

func newMemCollections() *memCollections {
	return &memCollections{members: make(map[uuid.UUID][]domain.EntityRef)}
}

func (c *memCollections) AddMember(_ context.Context, collectionID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error {
	c.members[collectionID] = append(c.members[collectionID], domain.EntityRef{Type: entityType, ID: entityID})
	return nil
}

func (c *memCollections) RemoveMember(_ context.Context, collectionID uuid.UUID, entityType domain.EntityType, entityID uuid.UUID) error {
	refs := c.members[collectionID]
	for i, ref := range refs {
		if ref.ID == entityID {
			c.members[collectionID] = append(refs[:i], refs[i+1:]...)
			break
		}
	}
	c.removed = append(c.removed, domain.EntityRef{Type: entityType, ID: entityID})
	return nil
}

type memRunStore struct {
	runs map[uuid.UUID]*domain.ImportRun
}

func newMemRunStore() *memRunStore {
	return &memRunStore{runs: make(map[uuid.UUID]*domain.ImportRun)}
}

func (s *memRunStore) Save(_ context.Context, run *domain.ImportRun) error {
	saved := *run
	saved.Created = append([]domain.EntityRef(nil), run.Created...)
	s.runs[run.ID] = &saved
	return nil
}

func (s *memRunStore) Load(_ context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	loaded := *run
	loaded.Created = append([]domain.EntityRef(nil), run.Created...)
	return &loaded, nil
}

func (s *memRunStore) SetState(_ context.Context, id uuid.UUID, state domain.RunState) error {
	run, ok := s.runs[id]
	if !ok {
		return repository.ErrRunNotFound
	}
	run.State = state
	return nil
}

type memAliases struct {
	known map[string]string
}

func (a *memAliases) Resolve(_ context.Context, path, _ string) (string, bool, error) {
	target, ok := a.known[path]
	return target, ok, nil
}

type memLogs struct {
	entries []domain.ImportLogEntry
}

func (l *memLogs) Record(_ context.Context, entry domain.ImportLogEntry) error {
	l.entries = append(l.entries, entry)
	return nil
}

func (l *memLogs) List(_ context.Context, runID uuid.UUID) ([]domain.ImportLogEntry, error) {
	var out []domain.ImportLogEntry
	for _, entry := range l.entries {
		if entry.RunID == runID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type okFetcher struct {
	contentType string
}

func (f *okFetcher) Probe(context.Context, string) (media.ProbeResult, error) {
	ct := f.contentType
	if ct == "" {
		ct = "application/pdf"
	}
	return media.ProbeResult{StatusCode: 200, ContentType: ct}, nil
}

func (f *okFetcher) Download(_ context.Context, url string) ([]byte, string, error) {
	return []byte("data"), url, nil
}

type harness struct {
	service     *Service
	content     *memContentStore
	mediaStore  *memMediaStore
	terms       *memTermStore
	collections *memCollections
	runs        *memRunStore
	logs        *memLogs
}

func newHarness() *harness {
	return newHarnessWith(&okFetcher{}, nil)
}

func newHarnessWith(fetcher media.RemoteFetcher, aliases map[string]string) *harness {
	content := newMemContentStore()
	mediaStore := newMemMediaStore()
	terms := &memTermStore{}
	collections := newMemCollections()
	runs := newMemRunStore()
	logs := &memLogs{}

	deps := Deps{
		Media:      media.NewResolver(fetcher, nil),
		MediaStore: mediaStore,
		Taxonomy:   taxonomy.NewResolver(terms),
		Aliases:    &memAliases{known: aliases},
		Checker:    NewURLChecker(fetcher, 4),
	}
	service := NewService(
		tabular.NewReader(tabular.Options{}),
		NewRegistry(deps),
		content, mediaStore, terms, collections, runs, logs,
	)
	return &harness{service: service, content: content, mediaStore: mediaStore, terms: terms, collections: collections, runs: runs, logs: logs}
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const eventsHeader = "Title,Body,Start date,End date,Location,Registration,Files,Created date,Path,Topics"

func TestImportFileCreatesEvents(t *testing.T) {
	h := newHarness()
	path := writeTempCSV(t, eventsHeader+"\n"+
		`Board meeting,Agenda attached,2024-06-10 09:00 AM,2024-06-10 11:00 AM,Main hall,on,,2024-06-01,events/board,Governance`+"\n"+
		`Open day,,2024-06-12 09:00 AM,2024-06-12 09:00 AM,Campus,off,,,,`+"\n")

	collectionID := uuid.New()
	result, err := h.service.ImportFile(context.Background(), domain.KindEvents, collectionID, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != domain.RunCompleted {
		t.Fatalf("expected completed, got %s: %v", result.State, result.Report.Entries())
	}
	if result.Created != 2 {
		t.Fatalf("expected 2 created, got %d", result.Created)
	}

	var meeting, openDay *domain.ContentItem
	for _, item := range h.content.items {
		switch item.Label {
		case "Board meeting":
			meeting = item
		case "Open day":
			openDay = item
		}
	}
	if meeting == nil || openDay == nil {
		t.Fatal("expected both events to be stored")
	}

	if got := meeting.Field("registration"); got != true {
		t.Errorf("expected registration true, got %v", got)
	}
	if got := openDay.Field("registration"); got != false {
		t.Errorf("expected registration false, got %v", got)
	}

	// Identical start and end stretch to the end of the day.
	if got := openDay.StringField("end"); got != "2024-06-13T08:59:59Z" {
		t.Errorf("expected all-day end, got %q", got)
	}
	if got := meeting.StringField("end"); got != "2024-06-10T11:00:00Z" {
		t.Errorf("expected explicit end, got %q", got)
	}

	if len(h.terms.terms) != 1 || h.terms.terms[0].Name != "Governance" {
		t.Errorf("expected term Governance, got %v", h.terms.terms)
	}
	// Two content items plus the created term join the collection.
	if got := len(h.collections.members[collectionID]); got != 3 {
		t.Errorf("expected 3 collection members, got %d", got)
	}
}

func TestImportFileSkipsExistingKeys(t *testing.T) {
	h := newHarness()
	path := writeTempCSV(t, eventsHeader+"\n"+
		`Board meeting,,2024-06-10 09:00 AM,2024-06-10 11:00 AM,Hall,on,,,,`+"\n")

	collectionID := uuid.New()
	first, err := h.service.ImportFile(context.Background(), domain.KindEvents, collectionID, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Created != 1 {
		t.Fatalf("expected 1 created, got %d", first.Created)
	}

	// The file now carries the generated keys, so a second run is a no-op.
	second, err := h.service.ImportFile(context.Background(), domain.KindEvents, collectionID, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Created != 0 || second.Skipped != 1 {
		t.Errorf("expected rerun to skip, got created=%d skipped=%d", second.Created, second.Skipped)
	}
	if len(h.content.items) != 1 {
		t.Errorf("expected a single stored item, got %d", len(h.content.items))
	}
}

func TestImportFileRejectsOnValidationErrors(t *testing.T) {
	h := newHarness()
	path := writeTempCSV(t, eventsHeader+"\n"+
		`,,2024-06-10 09:00 AM,bad,Hall,on,,,,`+"\n")

	result, err := h.service.ImportFile(context.Background(), domain.KindEvents, uuid.New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != domain.RunReject {
		t.Fatalf("expected reject, got %s", result.State)
	}
	if len(h.content.items) != 0 {
		t.Error("a rejected file must persist nothing")
	}
	entry, ok := result.Report.Entry("title")
	if !ok || entry.Rendered != "Row 1: The Title is required." {
		t.Errorf("unexpected title entry: %+v", entry)
	}
	if _, ok := result.Report.Entry("end_date"); !ok {
		t.Error("expected end date format entry")
	}
	if result.Report.Summary() != "The Import file has 2 error(s)." {
		t.Errorf("unexpected summary %q", result.Report.Summary())
	}
	if len(h.logs.entries) == 0 {
		t.Error("expected rejected rows to be logged")
	}
}

func TestImportFileRejectsMissingColumns(t *testing.T) {
	h := newHarness()
	path := writeTempCSV(t, "Title,Body\nOrientation,Welcome\n")

	result, err := h.service.ImportFile(context.Background(), domain.KindEvents, uuid.New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != domain.RunReject {
		t.Fatalf("expected reject, got %s", result.State)
	}
	// Each absent column gets its own entry; present columns get none.
	entry, ok := result.Report.Entry("Start date")
	if !ok {
		t.Fatal("expected an entry for the missing Start date column")
	}
	if entry.Message != "The Start date column is missing." {
		t.Errorf("unexpected message %q", entry.Message)
	}
	for _, column := range []string{"End date", "Location", "Registration", "Files", "Created date", "Path"} {
		if _, ok := result.Report.Entry(column); !ok {
			t.Errorf("expected an entry for the missing %s column", column)
		}
	}
	for _, column := range []string{"Title", "Body"} {
		if _, ok := result.Report.Entry(column); ok {
			t.Errorf("unexpected entry for the present %s column", column)
		}
	}
	if result.Report.Total() != 7 {
		t.Errorf("expected one error per missing column, got total %d", result.Report.Total())
	}
}

func TestImportFileOverLimit(t *testing.T) {
	h := newHarness()
	var b strings.Builder
	b.WriteString(eventsHeader + "\n")
	for i := 0; i <= tabular.RowLimit; i++ {
		b.WriteString(`Event,,2024-06-10 09:00 AM,2024-06-10 11:00 AM,Hall,on,,,,` + "\n")
	}
	path := writeTempCSV(t, b.String())

	result, err := h.service.ImportFile(context.Background(), domain.KindEvents, uuid.New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OverLimit {
		t.Error("expected the over limit flag")
	}
	if result.State != domain.RunReject {
		t.Errorf("expected reject, got %s", result.State)
	}
}

func TestImportFileRollsBackOnPersistFailure(t *testing.T) {
	h := newHarness()
	h.content.failLabel = "Second"
	path := writeTempCSV(t, eventsHeader+"\n"+
		`First,,2024-06-10 09:00 AM,2024-06-10 11:00 AM,Hall,on,,,,Research`+"\n"+
		`Second,,2024-06-11 09:00 AM,2024-06-11 11:00 AM,Hall,on,,,,`+"\n")

	collectionID := uuid.New()
	result, err := h.service.ImportFile(context.Background(), domain.KindEvents, collectionID, path)
	if err == nil {
		t.Fatal("expected an error")
	}
	if result.State != domain.RunRolledBack {
		t.Fatalf("expected rolled back, got %s", result.State)
	}
	if len(h.content.items) != 0 {
		t.Error("expected created content to be deleted")
	}
	if len(h.terms.terms) != 0 {
		t.Error("expected created terms to be deleted")
	}
	if got := len(h.collections.members[collectionID]); got != 0 {
		t.Errorf("expected collection membership to be unwound, got %d", got)
	}
	if result.Created != 0 {
		t.Errorf("expected created count reset, got %d", result.Created)
	}
}

func TestRollbackReversesCompletedRun(t *testing.T) {
	h := newHarness()
	// A pre-existing item must survive the rollback untouched.
	existing := domain.NewContentItem(domain.KindEvents, "existing-key")
	existing.Label = "Existing"
	if _, err := h.content.Create(context.Background(), existing); err != nil {
		t.Fatal(err)
	}

	path := writeTempCSV(t, eventsHeader+"\n"+
		`Board meeting,,2024-06-10 09:00 AM,2024-06-10 11:00 AM,Hall,on,,,,Governance`+"\n"+
		`Open day,,2024-06-12 09:00 AM,2024-06-12 11:00 AM,Campus,off,,,,`+"\n")

	collectionID := uuid.New()
	result, err := h.service.ImportFile(context.Background(), domain.KindEvents, collectionID, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 2 {
		t.Fatalf("expected 2 created, got %d", result.Created)
	}

	rolled, err := h.service.Rollback(context.Background(), result.RunID, collectionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rolled.State != domain.RunRolledBack {
		t.Errorf("expected rolled back, got %s", rolled.State)
	}
	if len(h.content.items) != 1 {
		t.Errorf("expected only the pre-existing item to remain, got %d", len(h.content.items))
	}
	if _, err := h.content.Load(context.Background(), existing.ID); err != nil {
		t.Error("expected the pre-existing item to survive")
	}
	if len(h.terms.terms) != 0 {
		t.Errorf("expected the run's terms to be deleted, got %v", h.terms.terms)
	}
	if got := len(h.collections.members[collectionID]); got != 0 {
		t.Errorf("expected collection membership to be unwound, got %d", got)
	}

	// A rolled back run cannot be rolled back again.
	if _, err := h.service.Rollback(context.Background(), result.RunID, collectionID); !errors.Is(err, ErrRunNotReversible) {
		t.Errorf("expected ErrRunNotReversible, got %v", err)
	}
}

func TestRollbackUnknownRun(t *testing.T) {
	h := newHarness()
	if _, err := h.service.Rollback(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, repository.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRollbackWrongCollection(t *testing.T) {
	h := newHarness()
	path := writeTempCSV(t, eventsHeader+"\n"+
		`Board meeting,,2024-06-10 09:00 AM,2024-06-10 11:00 AM,Hall,on,,,,`+"\n")

	result, err := h.service.ImportFile(context.Background(), domain.KindEvents, uuid.New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.service.Rollback(context.Background(), result.RunID, uuid.New()); !errors.Is(err, ErrRunScope) {
		t.Errorf("expected ErrRunScope, got %v", err)
	}
	if len(h.content.items) != 1 {
		t.Errorf("expected the run's content to survive, got %d items", len(h.content.items))
	}
}

func TestImportFileUnknownKind(t *testing.T) {
	h := newHarness()
	if _, err := h.service.ImportFile(context.Background(), domain.Kind("podcasts"), uuid.New(), "ignored.csv"); !errors.Is(err, ErrNoImporter) {
		t.Fatalf("expected ErrNoImporter, got %v", err)
	}
}

func TestImportCalendarCreatesEvents(t *testing.T) {
	h := newHarness()
	ics := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:evt-1@example.org",
		"DTSTART:20240610T130000Z",
		"DTEND:20240610T150000Z",
		"SUMMARY:Seminar",
		"LOCATION:Room 2",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	result, err := h.service.ImportCalendar(context.Background(), uuid.New(), "feed.ics", strings.NewReader(ics))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected 1 created, got %d: %v", result.Created, result.Report.Entries())
	}
	for _, item := range h.content.items {
		if item.IdempotencyKey != "evt-1@example.org" {
			t.Errorf("expected the UID as idempotency key, got %q", item.IdempotencyKey)
		}
	}
}
