// Package view holds the bookmark client view: the last known list, local search and tag
// filtering, and a form draft that drives create/update/delete round-trips against the API.
//
// Controller is an explicit state machine. It moves between idle, loading, submitting and
// error only when a request completes, so any front end (CLI, TUI, tests) can drive it.
package view

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
)

// Fixed user-facing messages. Raw error detail is never shown.
const (
	MsgLoadFailed   = "Failed to load bookmarks."
	MsgSaveFailed   = "Failed to save bookmark."
	MsgDeleteFailed = "Failed to delete bookmark."
	MsgNameRequired = "Name is required."
	MsgInvalidURL   = "Enter a valid URL."
)

// ErrBusy is returned when a request is started while another one is in flight.
var ErrBusy = errors.New("request already in flight")

// State of the controller.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSubmitting
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSubmitting:
		return "submitting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// API is the subset of the bookmark API the view talks to.
type API interface {
	List(ctx context.Context) ([]domain.Bookmark, error)
	Create(ctx context.Context, name, url string, tags []string) (domain.Bookmark, error)
	Update(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error)
	Delete(ctx context.Context, id string) error
}

// Draft is the bookmark form.
type Draft struct {
	Name string
	URL  string
	Tags []string
}

// Controller owns the client-side bookmark state.
type Controller struct {
	mu  sync.Mutex
	api API
	log logger.Logger

	state     State
	message   string
	bookmarks []domain.Bookmark
	search    string
	tagFilter string
	draft     Draft
	editing   string
	editingV  int64
}

// NewController returns an idle controller with an empty list and no filter.
func NewController(api API, log logger.Logger) *Controller {
	return &Controller{
		api:       api,
		log:       log,
		state:     StateIdle,
		tagFilter: AllTags,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Message returns the current user-facing error message, or "".
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Bookmarks returns the last known list in local order.
func (c *Controller) Bookmarks() []domain.Bookmark {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.bookmarks)
}

// Draft returns a copy of the form draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Draft{Name: c.draft.Name, URL: c.draft.URL, Tags: append([]string{}, c.draft.Tags...)}
}

// Editing returns the id being edited, or "" in create mode.
func (c *Controller) Editing() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

// Visible returns the filtered and sorted view of the list.
func (c *Controller) Visible() []domain.Bookmark {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Filter(cloneAll(c.bookmarks), c.search, c.tagFilter)
}

// SetSearch sets the free-text search term.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = term
}

// SetTagFilter sets the tag filter; "" is treated as AllTags.
func (c *Controller) SetTagFilter(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tag == "" {
		tag = AllTags
	}
	c.tagFilter = tag
}

// SetDraft replaces the draft name and url. Tags are edited with AddDraftTag/RemoveDraftTag.
func (c *Controller) SetDraft(name, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Name = name
	c.draft.URL = url
}

// AddDraftTag appends tag to the draft unless it is already there.
func (c *Controller) AddDraftTag(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tag == "" {
		return
	}
	for _, t := range c.draft.Tags {
		if t == tag {
			return
		}
	}
	c.draft.Tags = append(c.draft.Tags, tag)
}

// RemoveDraftTag drops tag from the draft.
func (c *Controller) RemoveDraftTag(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.draft.Tags[:0]
	for _, t := range c.draft.Tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	c.draft.Tags = kept
}

// StartEdit loads the bookmark with id into the draft and switches to edit mode.
// It reports false when id is not in the local list.
func (c *Controller) StartEdit(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.bookmarks {
		if b.ID == id {
			c.editing = b.ID
			c.editingV = b.Version
			c.draft = Draft{Name: b.Name, URL: b.URL, Tags: append([]string{}, b.Tags...)}
			return true
		}
	}
	return false
}

// CancelEdit clears the draft and leaves edit mode without any request.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetDraftLocked()
	c.message = ""
}

// Load fetches the full list and replaces local state.
// On failure the previous list is kept and the state becomes StateError.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.begin(StateLoading); err != nil {
		return err
	}

	list, err := c.api.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Warn("failed to load bookmarks", logger.Error(err))
		c.failLocked(MsgLoadFailed)
		return err
	}
	c.bookmarks = cloneAll(list)
	c.state = StateIdle
	c.message = ""
	return nil
}

// Submit validates the draft and issues a create (no edit target) or update request.
// Local validation failures set a message and return a *domain.ValidationError without any request.
// On success the draft is cleared and edit mode ends; on failure the draft is left intact.
func (c *Controller) Submit(ctx context.Context) (domain.Bookmark, error) {
	c.mu.Lock()
	if c.state == StateLoading || c.state == StateSubmitting {
		c.mu.Unlock()
		return domain.Bookmark{}, ErrBusy
	}
	name := strings.TrimSpace(c.draft.Name)
	if name == "" {
		c.message = MsgNameRequired
		c.mu.Unlock()
		return domain.Bookmark{}, domain.Invalid("name", MsgNameRequired)
	}
	url, ok := domain.NormalizeURL(c.draft.URL)
	if !ok {
		c.message = MsgInvalidURL
		c.mu.Unlock()
		return domain.Bookmark{}, domain.Invalid("url", MsgInvalidURL)
	}
	tags := append([]string{}, c.draft.Tags...)
	editing, version := c.editing, c.editingV
	c.state = StateSubmitting
	c.message = ""
	c.mu.Unlock()

	var (
		saved domain.Bookmark
		err   error
	)
	if editing == "" {
		saved, err = c.api.Create(ctx, name, url, tags)
	} else {
		saved, err = c.api.Update(ctx, domain.Bookmark{
			ID:      editing,
			Name:    name,
			URL:     url,
			Tags:    tags,
			Version: version,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Warn("failed to save bookmark",
			logger.String("id", editing),
			logger.Error(err))
		c.failLocked(MsgSaveFailed)
		return domain.Bookmark{}, err
	}

	if editing == "" {
		c.bookmarks = append([]domain.Bookmark{saved.Clone()}, c.bookmarks...)
	} else {
		for i := range c.bookmarks {
			if c.bookmarks[i].ID == editing {
				c.bookmarks[i] = saved.Clone()
			}
		}
	}
	c.resetDraftLocked()
	c.state = StateIdle
	return saved, nil
}

// Delete removes id on the server, then from the local list.
// On failure the local list is unchanged.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.begin(StateSubmitting); err != nil {
		return err
	}

	err := c.api.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Warn("failed to delete bookmark",
			logger.String("id", id),
			logger.Error(err))
		c.failLocked(MsgDeleteFailed)
		return err
	}

	kept := make([]domain.Bookmark, 0, len(c.bookmarks))
	for _, b := range c.bookmarks {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	c.bookmarks = kept
	c.state = StateIdle
	return nil
}

func (c *Controller) begin(next State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLoading || c.state == StateSubmitting {
		return ErrBusy
	}
	c.state = next
	c.message = ""
	return nil
}

func (c *Controller) failLocked(msg string) {
	c.state = StateError
	c.message = msg
}

func (c *Controller) resetDraftLocked() {
	c.draft = Draft{}
	c.editing = ""
	c.editingV = 0
}

func cloneAll(in []domain.Bookmark) []domain.Bookmark {
	out := make([]domain.Bookmark, len(in))
	for i, b := range in {
		out[i] = b.Clone()
	}
	return out
}
