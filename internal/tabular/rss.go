package tabular

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/schema"
)

var rssHeader = []string{
	schema.IdempotencyColumn,
	"Title", "Date", "Body", "Redirect", "Image", "Files", "Created date", "Path",
}

// ReadRSS converts a feed stream into news rows sharing the news header.
// Item GUIDs become the idempotency keys; items without a GUID fall back to
// their link, then to a synthesized key.
func ReadRSS(r io.Reader) ([]domain.ImportRow, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	if len(feed.Items) == 0 {
		return nil, ErrEmptyResult
	}
	if len(feed.Items) > RowLimit {
		return nil, ErrOverLimit
	}

	rows := make([]domain.ImportRow, 0, len(feed.Items))
	for i, item := range feed.Items {
		key := item.GUID
		if key == "" {
			key = item.Link
		}
		if key == "" {
			key = uuid.NewString()
		}

		var date string
		if item.PublishedParsed != nil {
			date = item.PublishedParsed.UTC().Format("2006-01-02")
		}

		var image string
		if item.Image != nil {
			image = item.Image.URL
		}

		var files string
		if len(item.Enclosures) > 0 {
			files = item.Enclosures[0].URL
		}

		cells := []string{
			key,
			item.Title,
			date,
			item.Description,
			item.Link,
			image,
			files,
			date,
			"",
		}
		rows = append(rows, domain.NewImportRow(i+1, key, rssHeader, cells))
	}
	return rows, nil
}
