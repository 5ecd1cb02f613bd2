package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
)

// bookmarkDoc is the JSON document stored per bookmark
type bookmarkDoc struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Version   int64      `json:"version"`
}

func fromDomain(b domain.Bookmark) bookmarkDoc {
	d := bookmarkDoc{
		ID:        b.ID,
		Name:      b.Name,
		URL:       b.URL,
		Tags:      b.Tags,
		CreatedAt: b.CreatedAt,
		Version:   b.Version,
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if !b.UpdatedAt.IsZero() {
		t := b.UpdatedAt
		d.UpdatedAt = &t
	}
	return d
}

func (d bookmarkDoc) toDomain() domain.Bookmark {
	b := domain.Bookmark{
		ID:        d.ID,
		Name:      d.Name,
		URL:       d.URL,
		Tags:      d.Tags,
		CreatedAt: d.CreatedAt,
		Version:   d.Version,
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if d.UpdatedAt != nil {
		b.UpdatedAt = *d.UpdatedAt
	}
	return b
}

// Insert stores a bookmark under a fresh UUID
func (s *Store) Insert(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to generate bookmark id: %w", err)
	}

	doc := fromDomain(b)
	doc.ID = id.String()
	doc.UpdatedAt = nil
	doc.Version = 1

	data, err := json.Marshal(doc)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, BookmarkKey(doc.ID), data, 0)
		pipe.SAdd(ctx, AllBookmarksKey(), doc.ID)
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to save bookmark: %w", err)
	}

	return doc.toDomain(), nil
}

// get retrieves a bookmark document by ID using the given command runner
func get(ctx context.Context, c redis.Cmdable, id string) (*bookmarkDoc, error) {
	data, err := c.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("bookmark %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	var doc bookmarkDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmark: %w", err)
	}
	return &doc, nil
}

// List retrieves all bookmarks sorted by name
func (s *Store) List(ctx context.Context) ([]domain.Bookmark, error) {
	ids, err := s.client.SMembers(ctx, AllBookmarksKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}

	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]domain.Bookmark, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Skip IDs whose document is gone
			continue
		}
		var doc bookmarkDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			s.log.Warn("skipping undecodable bookmark",
				logger.String("key", keys[i]),
				logger.Error(err))
			continue
		}
		bookmarks = append(bookmarks, doc.toDomain())
	}

	domain.SortByName(bookmarks)
	return bookmarks, nil
}

// Update replaces name, url and tags of an existing bookmark.
// The read-check-write runs under WATCH so a concurrent writer turns into ErrConflict.
func (s *Store) Update(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	key := BookmarkKey(b.ID)
	var out bookmarkDoc

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := get(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		if b.Version > 0 && current.Version != b.Version {
			return fmt.Errorf("bookmark %s at version %d: %w", b.ID, b.Version, domain.ErrConflict)
		}

		next := *current
		next.Name = b.Name
		next.URL = b.URL
		next.Tags = b.Tags
		if next.Tags == nil {
			next.Tags = []string{}
		}
		updatedAt := b.UpdatedAt
		next.UpdatedAt = &updatedAt
		next.Version = current.Version + 1

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal bookmark: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		out = next
		return nil
	}, key)

	switch {
	case err == nil:
		return out.toDomain(), nil
	case errors.Is(err, redis.TxFailedErr):
		return domain.Bookmark{}, fmt.Errorf("bookmark %s changed concurrently: %w", b.ID, domain.ErrConflict)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrConflict):
		return domain.Bookmark{}, err
	default:
		return domain.Bookmark{}, fmt.Errorf("failed to update bookmark: %w", err)
	}
}

// Delete removes a bookmark from Redis. Unknown IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, BookmarkKey(id))
		pipe.SRem(ctx, AllBookmarksKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}
