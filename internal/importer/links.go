package importer

import (
	"context"
	"strings"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/report"
)

type linksImporter struct {
	base
}

func (i *linksImporter) Kind() domain.Kind { return domain.KindLinks }

func (i *linksImporter) ValidateHeaders(rows []domain.ImportRow) *report.Report {
	return validateHeaders(domain.KindLinks, rows)
}

func (i *linksImporter) Validate(ctx context.Context, rows []domain.ImportRow) *report.Report {
	rep := report.New()
	requireColumn(rep, rows, "Title", "title", "The Title field is required.")

	var missing, invalid []int
	for _, row := range rows {
		value := strings.TrimSpace(row.Value("URL"))
		switch {
		case value == "":
			missing = append(missing, row.Number())
		case !validURL(value):
			invalid = append(invalid, row.Number())
		}
	}
	rep.Add("missing_url", missing, "The URL field is required.")
	rep.Add("invalid_url", invalid, "URL is invalid.")

	rep.Add("file", i.invalidURLRows(ctx, cells(rows, "Files")), "File URL is invalid.")
	validateCreatedDate(rep, rows)
	return rep
}

func (i *linksImporter) PrepareRow(ctx context.Context, run *domain.ImportRun, row domain.ImportRow) (*domain.ContentItem, error) {
	item := i.newItem(domain.KindLinks, row, row.Value("Title"))
	item.SetField("body", row.Value("Body"))
	item.SetField("url", strings.TrimSpace(row.Value("URL")))

	if err := i.applyPath(ctx, item, row); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *linksImporter) PreSave(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error {
	return i.attachMedia(ctx, run, item, row, "Files", "files", "")
}
