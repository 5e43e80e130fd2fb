package importer

import (
	"context"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/report"
)

type softwareImporter struct {
	base
}

func (i *softwareImporter) Kind() domain.Kind { return domain.KindSoftware }

func (i *softwareImporter) ValidateHeaders(rows []domain.ImportRow) *report.Report {
	return validateHeaders(domain.KindSoftware, rows)
}

func (i *softwareImporter) Validate(ctx context.Context, rows []domain.ImportRow) *report.Report {
	rep := report.New()
	requireColumn(rep, rows, "Title", "title", "The Title is required.")
	requireColumn(rep, rows, "Body", "body", "Body is required.")
	rep.Add("file", i.invalidURLRows(ctx, cells(rows, "Files")), "File url is invalid.")
	validateCreatedDate(rep, rows)
	return rep
}

func (i *softwareImporter) PrepareRow(ctx context.Context, run *domain.ImportRun, row domain.ImportRow) (*domain.ContentItem, error) {
	item := i.newItem(domain.KindSoftware, row, row.Value("Title"))
	item.SetField("body", row.Value("Body"))

	if err := i.applyPath(ctx, item, row); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *softwareImporter) PreSave(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error {
	return i.attachMedia(ctx, run, item, row, "Files", "files", "")
}
