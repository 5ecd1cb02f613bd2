// Package bookmarks holds the authoritative CRUD contract over bookmark records.
//
// It sits between the HTTP handlers and a domain.Repository backend: it validates
// required fields, stamps timestamps and classifies backend failures as ErrStore.
// It never retries; callers may.
package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
)

// Service implements the bookmark store operations on top of a repository.
type Service struct {
	repo domain.Repository
	log  logger.Logger
	now  func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a Service over repo.
func NewService(repo domain.Repository, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateInput carries a full replacement of a bookmark's mutable fields.
// Version 0 skips the optimistic concurrency check.
type UpdateInput struct {
	ID      string
	Name    string
	URL     string
	Tags    []string
	Version int64
}

// List returns all bookmarks sorted by name. An empty collection yields an empty slice.
func (s *Service) List(ctx context.Context) ([]domain.Bookmark, error) {
	bookmarks, err := s.repo.List(ctx)
	if err != nil {
		return nil, classify("list bookmarks", err)
	}
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	return bookmarks, nil
}

// Create stores a new bookmark. Name must not be blank.
func (s *Service) Create(ctx context.Context, name, url string, tags []string) (domain.Bookmark, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Bookmark{}, domain.Invalid("name", "is required")
	}

	b, err := s.repo.Insert(ctx, domain.Bookmark{
		Name:      name,
		URL:       url,
		Tags:      normalizeTags(tags),
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.Bookmark{}, classify("create bookmark", err)
	}

	s.log.Debug("bookmark created",
		logger.String("id", b.ID),
		logger.String("name", b.Name))
	return b, nil
}

// Update replaces name, url and tags of the bookmark identified by in.ID.
// Unknown IDs fail with domain.ErrNotFound; stale versions with domain.ErrConflict.
func (s *Service) Update(ctx context.Context, in UpdateInput) (domain.Bookmark, error) {
	if strings.TrimSpace(in.ID) == "" {
		return domain.Bookmark{}, domain.Invalid("id", "is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.Bookmark{}, domain.Invalid("name", "is required")
	}
	if in.Version < 0 {
		return domain.Bookmark{}, domain.Invalid("version", "must not be negative")
	}

	b, err := s.repo.Update(ctx, domain.Bookmark{
		ID:        in.ID,
		Name:      in.Name,
		URL:       in.URL,
		Tags:      normalizeTags(in.Tags),
		UpdatedAt: s.now().UTC(),
		Version:   in.Version,
	})
	if err != nil {
		return domain.Bookmark{}, classify("update bookmark", err)
	}

	s.log.Debug("bookmark updated",
		logger.String("id", b.ID),
		logger.Int64("version", b.Version))
	return b, nil
}

// Delete removes the bookmark identified by id. Unknown IDs are not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Invalid("id", "is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return classify("delete bookmark", err)
	}
	s.log.Debug("bookmark deleted", logger.String("id", id))
	return nil
}

// Ping checks the backend is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return classify("ping store", err)
	}
	return nil
}

// classify keeps caller-facing sentinels and folds everything else into ErrStore.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrStore):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
	}
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
