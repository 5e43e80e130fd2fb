package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/contentpub/importer/internal/auth"
)

// CollectionScopeMiddleware reads the X-Collection-Id header into the request
// context so handlers can enforce that uploads stay inside the caller's
// collection.
func CollectionScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-Collection-Id"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				r = r.WithContext(auth.ContextWithCollectionID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
