package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type contextKey string

const collectionIDKey contextKey = "collectionID"

// ContextWithCollectionID returns a new context that carries the authenticated collection scope.
func ContextWithCollectionID(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, collectionIDKey, id)
}

// CollectionIDFromContext retrieves the authenticated collection scope from the context, if any.
func CollectionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	value := ctx.Value(collectionIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	if id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// EnforceCollectionScope ensures the provided collection matches the authenticated scope when present.
func EnforceCollectionScope(ctx context.Context, collectionID uuid.UUID) error {
	if collectionID == uuid.Nil {
		return fmt.Errorf("collectionId is required")
	}
	scopedID, ok := CollectionIDFromContext(ctx)
	if !ok {
		return nil
	}
	if scopedID != collectionID {
		return fmt.Errorf("collectionId %s does not match authenticated scope", collectionID)
	}
	return nil
}
