package importer

import (
	"context"
	"strings"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/report"
)

type newsImporter struct {
	base
}

func (i *newsImporter) Kind() domain.Kind { return domain.KindNews }

func (i *newsImporter) ValidateHeaders(rows []domain.ImportRow) *report.Report {
	return validateHeaders(domain.KindNews, rows)
}

func (i *newsImporter) Validate(ctx context.Context, rows []domain.ImportRow) *report.Report {
	rep := report.New()
	requireColumn(rep, rows, "Title", "title", "The Title is required.")

	var emptyDate, badDate []int
	for _, row := range rows {
		value := strings.TrimSpace(row.Value("Date"))
		switch {
		case value == "":
			emptyDate = append(emptyDate, row.Number())
		default:
			if _, ok := parseBaseDate(value); !ok {
				badDate = append(badDate, row.Number())
			}
		}
	}
	rep.Add("date_empty", emptyDate, "News date format is empty.")
	rep.Add("date", badDate, "News date format is invalid.")

	rep.Add("image", i.invalidURLRows(ctx, cells(rows, "Image")), "Image url is invalid.")
	rep.Add("file", i.invalidURLRows(ctx, cells(rows, "Files")), "File url is invalid.")
	validateCreatedDate(rep, rows)
	return rep
}

func (i *newsImporter) PrepareRow(ctx context.Context, run *domain.ImportRun, row domain.ImportRow) (*domain.ContentItem, error) {
	item := i.newItem(domain.KindNews, row, row.Value("Title"))
	item.SetField("body", row.Value("Body"))
	item.SetField("date", canonicalDate(strings.TrimSpace(row.Value("Date"))))
	if redirect := strings.TrimSpace(row.Value("Redirect")); redirect != "" {
		item.SetField("redirect", redirect)
	}

	if err := i.applyPath(ctx, item, row); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *newsImporter) PreSave(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error {
	if err := i.attachMedia(ctx, run, item, row, "Image", "image", ""); err != nil {
		return err
	}
	return i.attachMedia(ctx, run, item, row, "Files", "files", "")
}
