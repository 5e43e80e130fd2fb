package media

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/contentpub/importer/internal/domain"
)

// PreviewBundle is the bundle used for remote pages that render as link
// previews rather than downloaded files.
const PreviewBundle = "hyperlink_preview"

// Bundle names a media bundle and the file extensions it accepts. A bundle
// with no extensions is a preview bundle.
type Bundle struct {
	Name       string
	Extensions []string
}

// Resolver classifies a media URL for a given kind and field. Resolution is
// best-effort: any probe or download failure yields a nil reference, never an
// error that would block the surrounding row.
type Resolver struct {
	fetcher RemoteFetcher
	bundles map[domain.Kind]map[string][]Bundle
}

// NewResolver builds a resolver over the given fetcher and bundle map. A nil
// bundle map falls back to DefaultBundles.
func NewResolver(fetcher RemoteFetcher, bundles map[domain.Kind]map[string][]Bundle) *Resolver {
	if bundles == nil {
		bundles = DefaultBundles()
	}
	return &Resolver{fetcher: fetcher, bundles: bundles}
}

// DefaultBundles maps each kind's media columns onto the bundles their values
// may resolve to, in match priority order.
func DefaultBundles() map[domain.Kind]map[string][]Bundle {
	document := Bundle{Name: "document", Extensions: []string{"pdf", "doc", "docx", "ppt", "pptx", "xls", "xlsx", "txt", "csv", "zip"}}
	image := Bundle{Name: "image", Extensions: []string{"png", "jpg", "jpeg", "gif", "svg", "webp"}}
	video := Bundle{Name: "video_file", Extensions: []string{"mp4", "mov", "webm"}}
	audio := Bundle{Name: "audio_file", Extensions: []string{"mp3", "wav", "ogg"}}
	preview := Bundle{Name: PreviewBundle}

	files := []Bundle{document, image, video, audio, preview}
	bundles := make(map[domain.Kind]map[string][]Bundle, len(domain.Kinds()))
	for _, kind := range domain.Kinds() {
		bundles[kind] = map[string][]Bundle{"Files": files}
	}
	bundles[domain.KindNews]["Image"] = []Bundle{image}
	bundles[domain.KindProfiles]["Photo"] = []Bundle{image}
	return bundles
}

// Resolve classifies rawURL for the kind's field. It returns nil when the URL
// is empty, unreachable, or matches no configured bundle.
func (r *Resolver) Resolve(ctx context.Context, kind domain.Kind, field, rawURL string) *domain.MediaReference {
	target := SanitizeURL(rawURL)
	if target == "" {
		return nil
	}
	fieldBundles := r.bundles[kind][field]
	if len(fieldBundles) == 0 {
		return nil
	}

	probe, err := r.fetcher.Probe(ctx, target)
	if err != nil || probe.StatusCode >= 400 {
		return nil
	}

	if strings.Contains(strings.ToLower(probe.ContentType), "text/html") {
		if !hasPreviewBundle(fieldBundles) {
			return nil
		}
		return &domain.MediaReference{
			ID:        uuid.New(),
			Kind:      domain.MediaHyperlinkPreview,
			SourceURL: target,
			Bundle:    PreviewBundle,
		}
	}

	_, finalURL, err := r.fetcher.Download(ctx, target)
	if err != nil {
		return nil
	}

	name, ext := fileNameAndExt(finalURL)
	if ext == "" {
		name, ext = fileNameAndExt(target)
	}
	if ext == "" {
		return nil
	}
	for _, bundle := range fieldBundles {
		if matchesExtension(bundle, ext) {
			return &domain.MediaReference{
				ID:        uuid.New(),
				Kind:      domain.MediaDownloadedFile,
				SourceURL: target,
				Bundle:    bundle.Name,
				FileName:  name,
			}
		}
	}
	return nil
}

// SanitizeURL trims the value and escapes embedded whitespace, which shows up
// often in hand-edited spreadsheets.
func SanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "\t", "%20")
	return strings.ReplaceAll(raw, " ", "%20")
}

func hasPreviewBundle(bundles []Bundle) bool {
	for _, b := range bundles {
		if len(b.Extensions) == 0 {
			return true
		}
	}
	return false
}

func fileNameAndExt(rawURL string) (string, string) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	name := path.Base(parsed.Path)
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if name == "." || name == "/" {
		return "", ""
	}
	return name, strings.ToLower(ext)
}

func matchesExtension(bundle Bundle, ext string) bool {
	for _, allowed := range bundle.Extensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}
