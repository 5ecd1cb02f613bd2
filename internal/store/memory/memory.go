package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
)

// Store keeps bookmarks in process memory.
// Used for local development (DASHBOARD_STORE=memory) and tests.
type Store struct {
	mu         sync.RWMutex
	bookmarks  map[string]domain.Bookmark // ID -> Bookmark
	lastChange time.Time
	failWith   error
}

var _ domain.Repository = (*Store)(nil)

// NewStore creates an empty memory store
func NewStore() *Store {
	return &Store{
		bookmarks: make(map[string]domain.Bookmark),
	}
}

// FailWith makes every subsequent operation return err (nil restores normal behavior).
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failWith = err
}

// List returns a sorted snapshot of all bookmarks
func (s *Store) List(_ context.Context) ([]domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failWith != nil {
		return nil, s.failWith
	}

	bookmarks := make([]domain.Bookmark, 0, len(s.bookmarks))
	for _, b := range s.bookmarks {
		bookmarks = append(bookmarks, b.Clone())
	}
	domain.SortByName(bookmarks)
	return bookmarks, nil
}

// Insert adds a bookmark under a fresh UUID
func (s *Store) Insert(_ context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to generate bookmark id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return domain.Bookmark{}, s.failWith
	}

	stored := b.Clone()
	stored.ID = id.String()
	stored.UpdatedAt = time.Time{}
	stored.Version = 1

	s.bookmarks[stored.ID] = stored
	s.lastChange = time.Now()
	return stored.Clone(), nil
}

// Update replaces name, url and tags of an existing bookmark
func (s *Store) Update(_ context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return domain.Bookmark{}, s.failWith
	}

	current, ok := s.bookmarks[b.ID]
	if !ok {
		return domain.Bookmark{}, fmt.Errorf("bookmark %s: %w", b.ID, domain.ErrNotFound)
	}
	if b.Version > 0 && current.Version != b.Version {
		return domain.Bookmark{}, fmt.Errorf("bookmark %s at version %d: %w", b.ID, b.Version, domain.ErrConflict)
	}

	current.Name = b.Name
	current.URL = b.URL
	current.Tags = append([]string{}, b.Tags...)
	current.UpdatedAt = b.UpdatedAt
	current.Version++

	s.bookmarks[b.ID] = current
	s.lastChange = time.Now()
	return current.Clone(), nil
}

// Delete removes a bookmark. Unknown IDs are a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}

	if _, ok := s.bookmarks[id]; ok {
		delete(s.bookmarks, id)
		s.lastChange = time.Now()
	}
	return nil
}

// Ping reports the injected failure, if any
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.failWith
}

// Count returns the number of bookmarks in the store
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bookmarks)
}

// LastChange returns the timestamp of the last mutation
func (s *Store) LastChange() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastChange
}
