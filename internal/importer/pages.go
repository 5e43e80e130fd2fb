package importer

import (
	"context"
	"strings"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/report"
)

type pagesImporter struct {
	base
}

func (i *pagesImporter) Kind() domain.Kind { return domain.KindPages }

func (i *pagesImporter) ValidateHeaders(rows []domain.ImportRow) *report.Report {
	return validateHeaders(domain.KindPages, rows)
}

func (i *pagesImporter) Validate(ctx context.Context, rows []domain.ImportRow) *report.Report {
	rep := report.New()
	requireColumn(rep, rows, "Title", "title", "The Title is required.")
	rep.Add("file", i.invalidURLRows(ctx, cells(rows, "Files")), "File url is invalid.")
	validateCreatedDate(rep, rows)
	return rep
}

func (i *pagesImporter) PrepareRow(ctx context.Context, run *domain.ImportRun, row domain.ImportRow) (*domain.ContentItem, error) {
	item := i.newItem(domain.KindPages, row, row.Value("Title"))
	item.SetField("body", row.Value("Body"))

	if err := i.applyPath(ctx, item, row); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *pagesImporter) PreSave(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error {
	// A page nests under its parent only when the parent path already
	// resolves; an unknown parent leaves the page at the top level.
	if parent := strings.TrimSpace(row.Value("Parent Path")); parent != "" && i.deps.Aliases != nil {
		_, found, err := i.deps.Aliases.Resolve(ctx, parent, "")
		if err != nil {
			return err
		}
		if found {
			item.SetField("parent_path", parent)
		}
	}
	return i.attachMedia(ctx, run, item, row, "Files", "files", "")
}
