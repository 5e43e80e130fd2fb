package importer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/contentpub/importer/internal/media"
)

// URLChecker verifies media URLs are reachable before the file is accepted,
// probing concurrently under a bounded limit.
type URLChecker struct {
	fetcher media.RemoteFetcher
	limit   int
}

// NewURLChecker builds a checker over the fetcher with at most limit
// concurrent probes.
func NewURLChecker(fetcher media.RemoteFetcher, limit int) *URLChecker {
	if limit <= 0 {
		limit = 6
	}
	return &URLChecker{fetcher: fetcher, limit: limit}
}

// Reachable probes every URL and reports, index for index, whether each one
// answered with a 2xx status. Blank entries pass; requiredness is a separate
// rule.
func (c *URLChecker) Reachable(ctx context.Context, urls []string) []bool {
	results := make([]bool, len(urls))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(c.limit)
	for i, raw := range urls {
		if raw == "" {
			results[i] = true
			continue
		}
		group.Go(func() error {
			probe, err := c.fetcher.Probe(ctx, raw)
			results[i] = err == nil && probe.StatusCode >= 200 && probe.StatusCode < 300
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// invalidURLRows probes the column across all rows and returns the row
// numbers whose non-empty cells are unreachable or malformed. Pipe-delimited
// cells fail if any part fails.
func (b base) invalidURLRows(ctx context.Context, rows []rowColumn) []int {
	var urls []string
	var owners []int
	malformed := make(map[int]struct{})
	for _, rc := range rows {
		for _, raw := range splitList(rc.value) {
			if !validURL(raw) {
				malformed[rc.number] = struct{}{}
				continue
			}
			urls = append(urls, media.SanitizeURL(raw))
			owners = append(owners, rc.number)
		}
	}

	failed := make(map[int]struct{}, len(malformed))
	for number := range malformed {
		failed[number] = struct{}{}
	}
	if len(urls) > 0 && b.deps.Checker != nil {
		for i, ok := range b.deps.Checker.Reachable(ctx, urls) {
			if !ok {
				failed[owners[i]] = struct{}{}
			}
		}
	}

	out := make([]int, 0, len(failed))
	for number := range failed {
		out = append(out, number)
	}
	return out
}

// rowColumn pairs a row number with one of its cells.
type rowColumn struct {
	number int
	value  string
}
