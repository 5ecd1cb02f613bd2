package domain

import (
	"context"
	"time"
)

// Bookmark is a persisted link record.
//
// The repository owns the authoritative copy; clients hold
// a transient cache refreshed after successful API calls.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned by the repository on insert and never reused.
	ID string

	// ─────────────────────────────
	// Content (replaced on update)
	// ─────────────────────────────

	// Name is the display string. Never empty for a persisted record.
	Name string

	// URL may be empty. When set it is an absolute URL (checked by callers).
	URL string

	// Tags keep insertion order for display. Duplicates are not rejected.
	Tags []string

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is set once on insert.
	CreatedAt time.Time

	// UpdatedAt is zero until the first successful update.
	UpdatedAt time.Time

	// Version starts at 1 and is incremented on each update.
	Version int64
}

// HasTag reports whether tag is one of the bookmark's tags (exact match).
func (b Bookmark) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the Tags backing array.
func (b Bookmark) Clone() Bookmark {
	out := b
	out.Tags = append([]string{}, b.Tags...)
	return out
}

// Repository is the storage contract implemented by each backend.
//
// Update matches on ID and, when Version is non-zero, on the stored version too.
// It replaces Name, URL, Tags and UpdatedAt and bumps the version.
// It returns ErrNotFound when nothing matches the ID and ErrConflict
// when the version check fails. Delete of an unknown ID is not an error.
type Repository interface {
	List(ctx context.Context) ([]Bookmark, error)
	Insert(ctx context.Context, b Bookmark) (Bookmark, error)
	Update(ctx context.Context, b Bookmark) (Bookmark, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
