package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContentItem is the destination entity assembled from one import row. Fields
// holds the kind-specific values keyed by destination field name; they are
// persisted as a JSONB document by the content store.
type ContentItem struct {
	ID             uuid.UUID      `json:"id"`
	Kind           Kind           `json:"kind"`
	Label          string         `json:"label"`
	Path           string         `json:"path"`
	PathAuto       bool           `json:"path_auto"`
	IdempotencyKey string         `json:"idempotency_key"`
	Fields         map[string]any `json:"fields"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewContentItem creates an item for the given kind with a fresh id.
func NewContentItem(kind Kind, key string) *ContentItem {
	return &ContentItem{
		ID:             uuid.New(),
		Kind:           kind,
		IdempotencyKey: key,
		Fields:         make(map[string]any),
		CreatedAt:      time.Now(),
	}
}

// SetField assigns a destination field value.
func (c *ContentItem) SetField(name string, value any) {
	if c.Fields == nil {
		c.Fields = make(map[string]any)
	}
	c.Fields[name] = value
}

// Field returns a destination field value, nil when unset.
func (c *ContentItem) Field(name string) any {
	return c.Fields[name]
}

// StringField returns a destination field as a string, empty when unset or
// not a string.
func (c *ContentItem) StringField(name string) string {
	s, _ := c.Fields[name].(string)
	return s
}
