// Package media classifies row media URLs into hyperlink previews or
// downloaded files and maps downloads onto configured media bundles.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxDownloadBytes caps a single media download.
const maxDownloadBytes = 64 << 20

// ProbeResult carries the status and content type of a URL probe.
type ProbeResult struct {
	StatusCode  int
	ContentType string
}

// RemoteFetcher is the outbound HTTP boundary: a HEAD-equivalent probe and a
// byte download.
type RemoteFetcher interface {
	Probe(ctx context.Context, url string) (ProbeResult, error)
	Download(ctx context.Context, url string) (data []byte, finalURL string, err error)
}

// HTTPFetcher implements RemoteFetcher with a shared client and a global
// concurrency cap so imports do not overwhelm remote servers.
type HTTPFetcher struct {
	client *http.Client
	sem    chan struct{}
}

// NewHTTPFetcher builds a fetcher allowing at most maxConcurrent in-flight
// requests.
func NewHTTPFetcher(maxConcurrent int) *HTTPFetcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 6
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		sem:    make(chan struct{}, maxConcurrent),
	}
}

func (f *HTTPFetcher) acquire(ctx context.Context) error {
	select {
	case f.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *HTTPFetcher) release() { <-f.sem }

// Probe issues a HEAD request and reports the final status and content type.
func (f *HTTPFetcher) Probe(ctx context.Context, url string) (ProbeResult, error) {
	if err := f.acquire(ctx); err != nil {
		return ProbeResult{}, err
	}
	defer f.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("failed to build probe request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()

	return ProbeResult{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Download fetches the URL's bytes and reports the final URL after redirects.
func (f *HTTPFetcher) Download(ctx context.Context, url string) ([]byte, string, error) {
	if err := f.acquire(ctx); err != nil {
		return nil, "", err
	}
	defer f.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read download: %w", err)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return data, finalURL, nil
}
