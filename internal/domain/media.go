package domain

import "github.com/google/uuid"

// MediaKind classifies how a media URL was resolved.
type MediaKind string

const (
	// MediaHyperlinkPreview is an embeddable external page rather than a
	// downloaded file.
	MediaHyperlinkPreview MediaKind = "hyperlink_preview"
	// MediaDownloadedFile is a file fetched from the URL and stored locally.
	MediaDownloadedFile MediaKind = "downloaded_file"
)

// MediaReference is the result of resolving a media URL for a row field.
// A nil *MediaReference means the URL could not be resolved; the owning field
// is left unset and the row still imports.
type MediaReference struct {
	ID        uuid.UUID `json:"id"`
	Kind      MediaKind `json:"kind"`
	SourceURL string    `json:"source_url"`
	Bundle    string    `json:"bundle"`
	FileName  string    `json:"file_name,omitempty"`
	Alt       string    `json:"alt,omitempty"`
}
