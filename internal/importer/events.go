package importer

import (
	"context"
	"strings"
	"time"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/report"
)

// allDaySpan stretches an end date to the last second of its day when a row's
// start and end are identical, which is how all-day events are spelled.
const allDaySpan = 86399 * time.Second

type eventsImporter struct {
	base
}

func (i *eventsImporter) Kind() domain.Kind { return domain.KindEvents }

func (i *eventsImporter) ValidateHeaders(rows []domain.ImportRow) *report.Report {
	return validateHeaders(domain.KindEvents, rows)
}

func (i *eventsImporter) Validate(ctx context.Context, rows []domain.ImportRow) *report.Report {
	rep := report.New()
	requireColumn(rep, rows, "Title", "title", "The Title is required.")

	var noStart, noEnd, badStart, badEnd, badRange []int
	for _, row := range rows {
		start, startOK := parseEventDate(row.Value("Start date"))
		end, endOK := parseEventDate(row.Value("End date"))
		switch {
		case strings.TrimSpace(row.Value("Start date")) == "":
			noStart = append(noStart, row.Number())
		case !startOK:
			badStart = append(badStart, row.Number())
		}
		switch {
		case strings.TrimSpace(row.Value("End date")) == "":
			noEnd = append(noEnd, row.Number())
		case !endOK:
			badEnd = append(badEnd, row.Number())
		}
		if startOK && endOK && end.Before(start) {
			badRange = append(badRange, row.Number())
		}
	}
	rep.Add("start_date_missing", noStart, "Start date is required.")
	rep.Add("end_date_missing", noEnd, "End date is required.")
	rep.Add("start_date", badStart, "Start date format is invalid.")
	rep.Add("end_date", badEnd, "End date format is invalid.")
	rep.Add("date_range", badRange, "Start date should be less than end date.")

	rep.Add("file", i.invalidURLRows(ctx, cells(rows, "Files")), "File url is invalid.")
	validateCreatedDate(rep, rows)
	return rep
}

func (i *eventsImporter) PrepareRow(ctx context.Context, run *domain.ImportRun, row domain.ImportRow) (*domain.ContentItem, error) {
	item := i.newItem(domain.KindEvents, row, row.Value("Title"))
	item.SetField("body", row.Value("Body"))
	item.SetField("location", row.Value("Location"))
	item.SetField("registration", strings.EqualFold(strings.TrimSpace(row.Value("Registration")), "on"))

	start, _ := parseEventDate(row.Value("Start date"))
	end, _ := parseEventDate(row.Value("End date"))
	if end.Equal(start) {
		end = end.Add(allDaySpan)
	}
	item.SetField("start", start.UTC().Format(time.RFC3339))
	item.SetField("end", end.UTC().Format(time.RFC3339))

	if err := i.applyPath(ctx, item, row); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *eventsImporter) PreSave(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error {
	return i.attachMedia(ctx, run, item, row, "Files", "files", "")
}

func parseEventDate(value string) (time.Time, bool) {
	parsed, err := time.Parse(eventDateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
