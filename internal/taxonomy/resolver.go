// Package taxonomy resolves pipe-delimited term lists against stored
// vocabularies, creating terms that do not yet exist.
package taxonomy

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/repository"
)

// Resolver finds or creates terms by name. Lookups are case-insensitive so
// "Health" and "health" map to the same term. Creation is serialized per
// vocabulary to keep concurrent rows from racing duplicate terms in.
type Resolver struct {
	store repository.TermStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewResolver builds a resolver over the given term store.
func NewResolver(store repository.TermStore) *Resolver {
	return &Resolver{store: store, locks: make(map[string]*sync.Mutex)}
}

// SplitTerms splits a raw pipe-delimited cell into trimmed term names,
// dropping empties and case-insensitive duplicates while keeping the first
// spelling seen.
func SplitTerms(raw string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, "|") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	return names
}

// ResolveOrCreate resolves the raw cell's term names within a vocabulary and
// returns all resolved terms plus the subset created by this call.
func (r *Resolver) ResolveOrCreate(ctx context.Context, vocabulary, raw string) (terms, created []domain.Term, err error) {
	names := SplitTerms(raw)
	if len(names) == 0 {
		return nil, nil, nil
	}

	lock := r.vocabularyLock(vocabulary)
	lock.Lock()
	defer lock.Unlock()

	for _, name := range names {
		existing, err := r.store.FindByName(ctx, vocabulary, name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to look up term %q: %w", name, err)
		}
		if existing != nil {
			terms = append(terms, *existing)
			continue
		}
		term, err := r.store.Create(ctx, domain.Term{ID: uuid.New(), Vocabulary: vocabulary, Name: name})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create term %q: %w", name, err)
		}
		terms = append(terms, term)
		created = append(created, term)
	}
	return terms, created, nil
}

func (r *Resolver) vocabularyLock(vocabulary string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[vocabulary]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[vocabulary] = lock
	}
	return lock
}
