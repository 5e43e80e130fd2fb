package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/report"
	"github.com/contentpub/importer/internal/repository"
	"github.com/contentpub/importer/internal/tabular"
)

// ErrRunNotReversible is returned when rollback is requested for a run that
// did not complete; only completed runs hold entities to reverse.
var ErrRunNotReversible = errors.New("only completed runs can be rolled back")

// ErrRunScope is returned when a run belongs to a different collection than
// the one the caller is operating on.
var ErrRunScope = errors.New("run does not belong to the collection")

// Service orchestrates one import end to end: read, header check, row
// validation, then sequential persistence with rollback on failure. Completed
// runs keep their ledger in the run store so they stay reversible on demand.
type Service struct {
	reader      *tabular.Reader
	registry    *Registry
	content     repository.ContentStore
	media       repository.MediaStore
	terms       repository.TermStore
	collections repository.CollectionRegistry
	runs        repository.RunStore
	logs        repository.ImportLogStore
}

// NewService creates the orchestrator over its stores.
func NewService(
	reader *tabular.Reader,
	registry *Registry,
	content repository.ContentStore,
	media repository.MediaStore,
	terms repository.TermStore,
	collections repository.CollectionRegistry,
	runs repository.RunStore,
	logs repository.ImportLogStore,
) *Service {
	return &Service{
		reader:      reader,
		registry:    registry,
		content:     content,
		media:       media,
		terms:       terms,
		collections: collections,
		runs:        runs,
		logs:        logs,
	}
}

// Result summarizes one import execution. A rejected file carries the full
// error report and touched nothing.
type Result struct {
	RunID     uuid.UUID       `json:"run_id"`
	Kind      domain.Kind     `json:"kind"`
	FileName  string          `json:"file_name"`
	State     domain.RunState `json:"state"`
	Created   int             `json:"created"`
	Skipped   int             `json:"skipped"`
	OverLimit bool            `json:"over_limit"`
	Report    *report.Report  `json:"report"`
}

// ImportFile imports a CSV or spreadsheet upload of the given kind into the
// collection. The file on disk may be rewritten to add idempotency keys
// before rows are read.
func (s *Service) ImportFile(ctx context.Context, kind domain.Kind, collectionID uuid.UUID, path string) (*Result, error) {
	imp, err := s.registry.For(kind)
	if err != nil {
		return nil, err
	}

	run := domain.NewImportRun(kind, collectionID, filepath.Base(path))
	result := &Result{RunID: run.ID, Kind: kind, FileName: run.FileName, Report: report.New()}

	run.State = domain.RunReading
	rows, err := s.reader.ParseFile(path)
	if err != nil {
		if rejected := s.rejectRead(ctx, run, result, err); rejected {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", run.FileName, err)
	}
	return s.execute(ctx, imp, run, result, rows)
}

// ImportCalendar imports an iCal feed as events.
func (s *Service) ImportCalendar(ctx context.Context, collectionID uuid.UUID, name string, src io.Reader) (*Result, error) {
	imp, err := s.registry.For(domain.KindEvents)
	if err != nil {
		return nil, err
	}
	run := domain.NewImportRun(domain.KindEvents, collectionID, name)
	result := &Result{RunID: run.ID, Kind: run.Kind, FileName: name, Report: report.New()}

	run.State = domain.RunReading
	rows, err := tabular.ReadICal(src)
	if err != nil {
		if rejected := s.rejectRead(ctx, run, result, err); rejected {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read calendar %s: %w", name, err)
	}
	return s.execute(ctx, imp, run, result, rows)
}

// ImportFeed imports an RSS or Atom feed as news.
func (s *Service) ImportFeed(ctx context.Context, collectionID uuid.UUID, name string, src io.Reader) (*Result, error) {
	imp, err := s.registry.For(domain.KindNews)
	if err != nil {
		return nil, err
	}
	run := domain.NewImportRun(domain.KindNews, collectionID, name)
	result := &Result{RunID: run.ID, Kind: run.Kind, FileName: name, Report: report.New()}

	run.State = domain.RunReading
	rows, err := tabular.ReadRSS(src)
	if err != nil {
		if rejected := s.rejectRead(ctx, run, result, err); rejected {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read feed %s: %w", name, err)
	}
	return s.execute(ctx, imp, run, result, rows)
}

// rejectRead maps the reader's sentinel failures onto a rejected result and
// reports whether the error was one of them.
func (s *Service) rejectRead(ctx context.Context, run *domain.ImportRun, result *Result, err error) bool {
	switch {
	case errors.Is(err, tabular.ErrOverLimit):
		result.OverLimit = true
		result.Report.AddFile("rows", fmt.Sprintf("The file exceeds the maximum of %d rows. Please split it into smaller files.", tabular.RowLimit))
	case errors.Is(err, tabular.ErrEmptyResult):
		result.Report.AddFile("file", "The file is empty or its rows do not match the header.")
	default:
		return false
	}
	s.reject(ctx, run, result)
	return true
}

func (s *Service) execute(ctx context.Context, imp Importer, run *domain.ImportRun, result *Result, rows []domain.ImportRow) (*Result, error) {
	run.State = domain.RunHeaderCheck
	if headerReport := imp.ValidateHeaders(rows); !headerReport.Empty() {
		result.Report.Merge(headerReport)
		s.reject(ctx, run, result)
		return result, nil
	}

	run.State = domain.RunRowValidate
	result.Report.Merge(imp.Validate(ctx, rows))
	if !result.Report.Empty() {
		s.reject(ctx, run, result)
		return result, nil
	}

	run.State = domain.RunPersisting
	for _, row := range rows {
		exists, err := s.content.ExistsKey(ctx, run.Kind, row.Key())
		if err != nil {
			return s.abort(ctx, run, result, row, err)
		}
		if exists {
			result.Skipped++
			continue
		}

		before := len(run.Created)
		item, err := imp.PrepareRow(ctx, run, row)
		if err != nil {
			return s.abort(ctx, run, result, row, err)
		}
		if err := imp.PreSave(ctx, run, item, row); err != nil {
			return s.abort(ctx, run, result, row, err)
		}
		id, err := s.content.Create(ctx, item)
		if err != nil {
			return s.abort(ctx, run, result, row, err)
		}
		run.Record(domain.EntityContent, id)

		if err := imp.PostSave(ctx, run, item, row); err != nil {
			return s.abort(ctx, run, result, row, err)
		}
		if err := s.content.Update(ctx, item); err != nil {
			return s.abort(ctx, run, result, row, err)
		}

		for _, ref := range run.Created[before:] {
			if err := s.collections.AddMember(ctx, run.CollectionID, ref.Type, ref.ID); err != nil {
				return s.abort(ctx, run, result, row, err)
			}
		}
		result.Created++
	}

	run.State = domain.RunCompleted
	result.State = run.State
	if s.runs != nil {
		if err := s.runs.Save(ctx, run); err != nil {
			log.Printf("[IMPORT] failed to save run ledger for %s: %v", run.ID, err)
		}
	}
	log.Printf("[IMPORT] %s %s completed: %d created, %d skipped", run.Kind, run.FileName, result.Created, result.Skipped)
	return result, nil
}

// Rollback reverses one completed run: the content, media, and terms it
// created are deleted in reverse creation order and their collection
// memberships removed, leaving pre-existing data untouched.
func (s *Service) Rollback(ctx context.Context, runID, collectionID uuid.UUID) (*Result, error) {
	if s.runs == nil {
		return nil, errors.New("run store is not configured")
	}
	run, err := s.runs.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.CollectionID != collectionID {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunScope)
	}
	if run.State != domain.RunCompleted {
		return nil, fmt.Errorf("run %s is %s: %w", runID, run.State, ErrRunNotReversible)
	}

	ctx = context.WithoutCancel(ctx)
	log.Printf("[IMPORT] %s %s: rolling back %d entities on demand", run.Kind, run.FileName, len(run.Created))
	s.reverse(ctx, run)

	run.State = domain.RunRolledBack
	if err := s.runs.SetState(ctx, run.ID, run.State); err != nil {
		log.Printf("[IMPORT] failed to update run %s state: %v", run.ID, err)
	}
	s.record(ctx, run, nil, fmt.Sprintf("Rolled back %d entities.", len(run.Created)))

	return &Result{
		RunID:    run.ID,
		Kind:     run.Kind,
		FileName: run.FileName,
		State:    run.State,
		Report:   report.New(),
	}, nil
}

// reject finalizes a run whose file was refused before persistence and logs
// every reported violation.
func (s *Service) reject(ctx context.Context, run *domain.ImportRun, result *Result) {
	run.State = domain.RunReject
	result.State = run.State
	log.Printf("[IMPORT] %s %s rejected: %s", run.Kind, run.FileName, result.Report.Summary())
	s.logReport(ctx, run, result.Report)
}

// abort unwinds a run whose persistence failed mid-file, then surfaces the
// row that failed.
func (s *Service) abort(ctx context.Context, run *domain.ImportRun, result *Result, row domain.ImportRow, cause error) (*Result, error) {
	// Cleanup must proceed even when the failure was a cancellation.
	ctx = context.WithoutCancel(ctx)
	log.Printf("[IMPORT] %s %s: row %d failed, rolling back %d entities: %v", run.Kind, run.FileName, row.Number(), len(run.Created), cause)
	s.reverse(ctx, run)

	run.State = domain.RunRolledBack
	result.State = run.State
	result.Created = 0

	rowNumber := row.Number()
	s.record(ctx, run, &rowNumber, fmt.Sprintf("Row %d could not be imported: %v", rowNumber, cause))
	return result, fmt.Errorf("failed to import row %d of %s: %w", rowNumber, run.FileName, cause)
}

// reverse deletes the run's created entities in reverse creation order and
// removes their collection memberships. Individual delete failures are
// logged, not fatal, so one stuck entity cannot strand the rest.
func (s *Service) reverse(ctx context.Context, run *domain.ImportRun) {
	for _, ref := range run.Reversed() {
		if err := s.collections.RemoveMember(ctx, run.CollectionID, ref.Type, ref.ID); err != nil {
			log.Printf("[IMPORT] failed to unregister %s %s: %v", ref.Type, ref.ID, err)
		}
		var err error
		switch ref.Type {
		case domain.EntityContent:
			err = s.content.Delete(ctx, ref.ID)
		case domain.EntityMedia:
			err = s.media.Delete(ctx, ref.ID)
		case domain.EntityTerm:
			err = s.terms.Delete(ctx, ref.ID)
		}
		if err != nil {
			log.Printf("[IMPORT] failed to delete %s %s: %v", ref.Type, ref.ID, err)
		}
	}
}

func (s *Service) logReport(ctx context.Context, run *domain.ImportRun, rep *report.Report) {
	for _, entry := range rep.Entries() {
		if len(entry.Rows) == 0 {
			s.record(ctx, run, nil, entry.Rendered)
			continue
		}
		for _, number := range entry.Rows {
			rowNumber := number
			s.record(ctx, run, &rowNumber, entry.Message)
		}
	}
}

func (s *Service) record(ctx context.Context, run *domain.ImportRun, rowNumber *int, message string) {
	if s.logs == nil {
		return
	}
	entry := domain.ImportLogEntry{
		ID:        uuid.New(),
		RunID:     run.ID,
		Kind:      run.Kind,
		FileName:  run.FileName,
		RowNumber: rowNumber,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := s.logs.Record(ctx, entry); err != nil {
		log.Printf("[IMPORT] failed to record log entry: %v", err)
	}
}

