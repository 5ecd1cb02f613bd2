package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/dashboard/internal/bookmarks"
	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
)

// maxBodyBytes caps JSON request bodies on write routes.
const maxBodyBytes = 1 << 20

// Fixed messages returned on server errors. The cause is only logged.
const (
	msgLoadFailed   = "Failed to load bookmarks"
	msgSaveFailed   = "Failed to save bookmark"
	msgUpdateFailed = "Failed to update bookmark"
	msgDeleteFailed = "Failed to delete bookmark"
)

// BookmarkDTO is the wire shape of a bookmark.
type BookmarkDTO struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Tags    []string `json:"tags"`
	Version int64    `json:"version,omitempty"`
}

type listResponse struct {
	Bookmarks []BookmarkDTO `json:"bookmarks"`
}

type bookmarkResponse struct {
	Bookmark BookmarkDTO `json:"bookmark"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// bookmarkRequest accepts loosely typed JSON; fields are coerced by the accessors below.
type bookmarkRequest struct {
	ID      any `json:"id"`
	Name    any `json:"name"`
	URL     any `json:"url"`
	Tags    any `json:"tags"`
	Version any `json:"version"`
}

func (r bookmarkRequest) id() string   { return asString(r.ID) }
func (r bookmarkRequest) name() string { return asString(r.Name) }
func (r bookmarkRequest) url() string  { return asString(r.URL) }

// tags keeps only string entries; anything that is not an array yields no tags.
func (r bookmarkRequest) tags() []string {
	raw, ok := r.Tags.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// version returns 0 (no check) unless a non-negative integral number was sent.
func (r bookmarkRequest) version() int64 {
	f, ok := r.Version.(float64)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0
	}
	return int64(f)
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toDTO(b domain.Bookmark) BookmarkDTO {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return BookmarkDTO{
		ID:      b.ID,
		Name:    b.Name,
		URL:     b.URL,
		Tags:    tags,
		Version: b.Version,
	}
}

func decodeBookmarkRequest(w http.ResponseWriter, r *http.Request) (bookmarkRequest, error) {
	var req bookmarkRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return req, domain.Invalid("body", "invalid JSON")
	}
	return req, nil
}

// ListBookmarks returns all bookmarks sorted by name.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Bookmarks.List(r.Context())
		if err != nil {
			d.Logger.Error("failed to load bookmarks", logger.Error(err))
			writeError(w, d.Logger, http.StatusInternalServerError, msgLoadFailed)
			return
		}

		out := make([]BookmarkDTO, 0, len(list))
		for _, b := range list {
			out = append(out, toDTO(b))
		}
		writeJSON(w, d.Logger, http.StatusOK, listResponse{Bookmarks: out})
	}
}

// CreateBookmark stores a new bookmark. Name is required; url and tags are optional.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeBookmarkRequest(w, r)
		if err != nil {
			writeError(w, d.Logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		name := req.name()
		if strings.TrimSpace(name) == "" {
			d.Logger.Debug("create rejected: empty name")
			writeError(w, d.Logger, http.StatusBadRequest, "Name is required")
			return
		}

		b, err := d.Bookmarks.Create(r.Context(), name, req.url(), req.tags())
		if err != nil {
			writeServiceError(w, d, "create", err, msgSaveFailed)
			return
		}

		writeJSON(w, d.Logger, http.StatusOK, bookmarkResponse{Bookmark: toDTO(b)})
	}
}

// UpdateBookmark replaces name, url and tags of an existing bookmark.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeBookmarkRequest(w, r)
		if err != nil {
			writeError(w, d.Logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		id, name := req.id(), req.name()
		if id == "" || strings.TrimSpace(name) == "" {
			d.Logger.Debug("update rejected: missing id or name")
			writeError(w, d.Logger, http.StatusBadRequest, "id and name are required")
			return
		}

		b, err := d.Bookmarks.Update(r.Context(), bookmarks.UpdateInput{
			ID:      id,
			Name:    name,
			URL:     req.url(),
			Tags:    req.tags(),
			Version: req.version(),
		})
		if err != nil {
			writeServiceError(w, d, "update", err, msgUpdateFailed)
			return
		}

		writeJSON(w, d.Logger, http.StatusOK, bookmarkResponse{Bookmark: toDTO(b)})
	}
}

// DeleteBookmark removes the bookmark named by the id query parameter.
// The response does not say whether a record existed.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, d.Logger, http.StatusBadRequest, "id is required")
			return
		}

		if err := d.Bookmarks.Delete(r.Context(), id); err != nil {
			writeServiceError(w, d, "delete", err, msgDeleteFailed)
			return
		}

		writeJSON(w, d.Logger, http.StatusOK, okResponse{OK: true})
	}
}

func writeServiceError(w http.ResponseWriter, d deps.Deps, op string, err error, serverMsg string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		d.Logger.Debug("bookmark request rejected",
			logger.String("op", op),
			logger.String("field", ve.Field))
		writeError(w, d.Logger, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrNotFound):
		d.Logger.Debug("bookmark not found", logger.String("op", op), logger.Error(err))
		writeError(w, d.Logger, http.StatusNotFound, "Bookmark not found")
	case errors.Is(err, domain.ErrConflict):
		d.Logger.Info("bookmark version conflict", logger.String("op", op), logger.Error(err))
		writeError(w, d.Logger, http.StatusConflict, "Bookmark was modified, reload and retry")
	default:
		d.Logger.Error("bookmark operation failed", logger.String("op", op), logger.Error(err))
		writeError(w, d.Logger, http.StatusInternalServerError, serverMsg)
	}
}
