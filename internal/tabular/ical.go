package tabular

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/schema"
)

// eventDateLayout is the canonical timestamp form the events importer
// consumes.
const eventDateLayout = "2006-01-02 03:04 PM"

var icalHeader = []string{
	schema.IdempotencyColumn,
	"Title", "Body", "Start date", "End date", "Location",
	"Registration", "Files", "Created date", "Path",
}

// ReadICal converts an iCalendar stream into event rows sharing the events
// header. Event UIDs become the idempotency keys, so re-reading an unchanged
// calendar yields identical keys. Datetimes are normalized to UTC.
func ReadICal(r io.Reader) ([]domain.ImportRow, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse icalendar: %w", err)
	}

	events := cal.Events()
	if len(events) == 0 {
		return nil, ErrEmptyResult
	}
	if len(events) > RowLimit {
		return nil, ErrOverLimit
	}

	rows := make([]domain.ImportRow, 0, len(events))
	for i, ev := range events {
		key := ev.Id()
		if key == "" {
			key = uuid.NewString()
		}

		var start, end string
		if at, err := ev.GetStartAt(); err == nil {
			start = at.UTC().Format(eventDateLayout)
		}
		if at, err := ev.GetEndAt(); err == nil {
			end = at.UTC().Format(eventDateLayout)
		}

		var created string
		if prop := ev.GetProperty(ics.ComponentPropertyCreated); prop != nil {
			if at, err := time.Parse("20060102T150405Z", prop.Value); err == nil {
				created = at.UTC().Format("2006-01-02")
			}
		}

		cells := []string{
			key,
			propValue(ev, ics.ComponentPropertySummary),
			propValue(ev, ics.ComponentPropertyDescription),
			start,
			end,
			propValue(ev, ics.ComponentPropertyLocation),
			propValue(ev, ics.ComponentProperty("X-REGISTRATION")),
			propValue(ev, ics.ComponentProperty("ATTACH")),
			created,
			"",
		}
		rows = append(rows, domain.NewImportRow(i+1, key, icalHeader, cells))
	}
	return rows, nil
}

func propValue(ev *ics.VEvent, name ics.ComponentProperty) string {
	if prop := ev.GetProperty(name); prop != nil {
		return prop.Value
	}
	return ""
}
