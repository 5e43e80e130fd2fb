package media

import (
	"context"
	"errors"
	"testing"

	"github.com/contentpub/importer/internal/domain"
)

type stubFetcher struct {
	probe       ProbeResult
	probeErr    error
	finalURL    string
	downloadErr error
	probedURL   string
}

func (s *stubFetcher) Probe(_ context.Context, url string) (ProbeResult, error) {
	s.probedURL = url
	return s.probe, s.probeErr
}

func (s *stubFetcher) Download(_ context.Context, url string) ([]byte, string, error) {
	final := s.finalURL
	if final == "" {
		final = url
	}
	return []byte("data"), final, s.downloadErr
}

func TestResolveHTMLBecomesPreview(t *testing.T) {
	fetcher := &stubFetcher{probe: ProbeResult{StatusCode: 200, ContentType: "text/html; charset=utf-8"}}
	resolver := NewResolver(fetcher, nil)

	ref := resolver.Resolve(context.Background(), domain.KindLinks, "Files", "https://example.org/article")
	if ref == nil {
		t.Fatal("expected a media reference")
	}
	if ref.Kind != domain.MediaHyperlinkPreview {
		t.Errorf("expected hyperlink preview, got %s", ref.Kind)
	}
	if ref.Bundle != PreviewBundle {
		t.Errorf("expected bundle %q, got %q", PreviewBundle, ref.Bundle)
	}
}

func TestResolveHTMLWithoutPreviewBundleIsNil(t *testing.T) {
	fetcher := &stubFetcher{probe: ProbeResult{StatusCode: 200, ContentType: "text/html"}}
	resolver := NewResolver(fetcher, nil)

	// News images accept image files only, so an HTML page cannot resolve.
	if ref := resolver.Resolve(context.Background(), domain.KindNews, "Image", "https://example.org/page"); ref != nil {
		t.Fatalf("expected nil reference, got %+v", ref)
	}
}

func TestResolveDownloadMatchesBundleByExtension(t *testing.T) {
	fetcher := &stubFetcher{probe: ProbeResult{StatusCode: 200, ContentType: "application/pdf"}}
	resolver := NewResolver(fetcher, nil)

	ref := resolver.Resolve(context.Background(), domain.KindEvents, "Files", "https://example.org/agenda.PDF")
	if ref == nil {
		t.Fatal("expected a media reference")
	}
	if ref.Kind != domain.MediaDownloadedFile {
		t.Errorf("expected downloaded file, got %s", ref.Kind)
	}
	if ref.Bundle != "document" {
		t.Errorf("expected document bundle, got %q", ref.Bundle)
	}
	if ref.FileName != "agenda.PDF" {
		t.Errorf("expected original file name, got %q", ref.FileName)
	}
}

func TestResolveExtensionFallsBackToOriginalURL(t *testing.T) {
	fetcher := &stubFetcher{
		probe:    ProbeResult{StatusCode: 200, ContentType: "image/png"},
		finalURL: "https://cdn.example.org/render",
	}
	resolver := NewResolver(fetcher, nil)

	ref := resolver.Resolve(context.Background(), domain.KindNews, "Image", "https://example.org/logo.png")
	if ref == nil {
		t.Fatal("expected a media reference")
	}
	if ref.Bundle != "image" {
		t.Errorf("expected image bundle, got %q", ref.Bundle)
	}
}

func TestResolveFailuresAreNil(t *testing.T) {
	cases := []struct {
		name    string
		fetcher *stubFetcher
		url     string
	}{
		{"empty url", &stubFetcher{}, "   "},
		{"probe error", &stubFetcher{probeErr: errors.New("timeout")}, "https://example.org/a.pdf"},
		{"probe 404", &stubFetcher{probe: ProbeResult{StatusCode: 404}}, "https://example.org/a.pdf"},
		{"download error", &stubFetcher{probe: ProbeResult{StatusCode: 200, ContentType: "application/pdf"}, downloadErr: errors.New("reset")}, "https://example.org/a.pdf"},
		{"unmatched extension", &stubFetcher{probe: ProbeResult{StatusCode: 200, ContentType: "application/octet-stream"}}, "https://example.org/a.exe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := NewResolver(tc.fetcher, nil)
			if ref := resolver.Resolve(context.Background(), domain.KindEvents, "Files", tc.url); ref != nil {
				t.Fatalf("expected nil reference, got %+v", ref)
			}
		})
	}
}

func TestResolveSanitizesWhitespace(t *testing.T) {
	fetcher := &stubFetcher{probe: ProbeResult{StatusCode: 200, ContentType: "application/pdf"}}
	resolver := NewResolver(fetcher, nil)

	resolver.Resolve(context.Background(), domain.KindEvents, "Files", "https://example.org/annual report.pdf")
	if fetcher.probedURL != "https://example.org/annual%20report.pdf" {
		t.Errorf("expected escaped URL, got %q", fetcher.probedURL)
	}
}
