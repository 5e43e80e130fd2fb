package domain

import "github.com/google/uuid"

// Term is a taxonomy term inside one vocabulary. Terms are matched
// case-insensitively on the trimmed name within their vocabulary.
type Term struct {
	ID         uuid.UUID `json:"id"`
	Vocabulary string    `json:"vocabulary"`
	Name       string    `json:"name"`
}
