package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/dashboard/internal/bookmarks"
	"github.com/MrSnakeDoc/dashboard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashboard/internal/httpserver/mw"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
	"github.com/MrSnakeDoc/dashboard/internal/store/memory"
)

type wireBookmark struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Tags    []string `json:"tags"`
	Version int64    `json:"version"`
}

type listBody struct {
	Bookmarks []wireBookmark `json:"bookmarks"`
}

type bookmarkBody struct {
	Bookmark wireBookmark `json:"bookmark"`
}

type errorBody struct {
	Error string `json:"error"`
}

func newTestRouter(t *testing.T, mutate ...func(*deps.Deps)) (chi.Router, *memory.Store) {
	t.Helper()
	repo := memory.NewStore()
	d := deps.Deps{
		Logger:    logger.NewNop(),
		StartTime: time.Now(),
		Bookmarks: bookmarks.NewService(repo, logger.NewNop()),
		StoreName: "memory",
	}
	for _, m := range mutate {
		m(&d)
	}
	return NewRouter(time.Second, d), repo
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestListEmpty(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/api/bookmarks", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bookmarks":[]}`, rec.Body.String())
}

func TestCreateThenListSortedByName(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, name := range []string{"b", "a"} {
		rec := do(t, r, http.MethodPost, "/api/bookmarks", map[string]any{"name": name})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, r, http.MethodGet, "/api/bookmarks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[listBody](t, rec).Bookmarks
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
}

func TestCreateCoercesFields(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/bookmarks", map[string]any{
		"name": "Go",
		"url":  42,
		"tags": []any{"x", 3, "y"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[bookmarkBody](t, rec).Bookmark
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "Go", b.Name)
	assert.Equal(t, "", b.URL)
	assert.Equal(t, []string{"x", "y"}, b.Tags)
}

func TestCreateNonArrayTagsYieldsEmpty(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/bookmarks", map[string]any{"name": "Go", "tags": "x"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{}, decode[bookmarkBody](t, rec).Bookmark.Tags)
}

func TestCreateBlankNameRejected(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"missing", map[string]any{"url": "https://x.com"}},
		{"blank", map[string]any{"name": "   "}},
		{"not a string", map[string]any{"name": 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, repo := newTestRouter(t)

			rec := do(t, r, http.MethodPost, "/api/bookmarks", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Name is required", decode[errorBody](t, rec).Error)
			assert.Equal(t, 0, repo.Count())
		})
	}
}

func TestCreateMalformedJSON(t *testing.T) {
	r, repo := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/bookmarks", "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, repo.Count())
}

func TestUpdateReplacesFields(t *testing.T) {
	r, _ := newTestRouter(t)
	created := decode[bookmarkBody](t, do(t, r, http.MethodPost, "/api/bookmarks",
		map[string]any{"name": "Old", "url": "https://old.example", "tags": []string{"idea"}})).Bookmark

	rec := do(t, r, http.MethodPatch, "/api/bookmarks", map[string]any{
		"id":   created.ID,
		"name": "New",
		"url":  "https://new.example",
		"tags": []string{"design"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[bookmarkBody](t, rec).Bookmark
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "New", updated.Name)

	list := decode[listBody](t, do(t, r, http.MethodGet, "/api/bookmarks", nil)).Bookmarks
	require.Len(t, list, 1)
	assert.Equal(t, "New", list[0].Name)
	assert.Equal(t, "https://new.example", list[0].URL)
	assert.Equal(t, []string{"design"}, list[0].Tags)
}

func TestUpdateMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing id", map[string]any{"name": "x"}},
		{"blank name", map[string]any{"id": "abc", "name": " "}},
		{"non-string id", map[string]any{"id": 7, "name": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t)

			rec := do(t, r, http.MethodPatch, "/api/bookmarks", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "id and name are required", decode[errorBody](t, rec).Error)
		})
	}
}

func TestUpdateUnknownIDNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPatch, "/api/bookmarks", map[string]any{"id": "nope", "name": "x"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStaleVersionConflict(t *testing.T) {
	r, _ := newTestRouter(t)
	created := decode[bookmarkBody](t, do(t, r, http.MethodPost, "/api/bookmarks",
		map[string]any{"name": "A"})).Bookmark
	require.Equal(t, int64(1), created.Version)

	first := do(t, r, http.MethodPatch, "/api/bookmarks",
		map[string]any{"id": created.ID, "name": "B", "version": 1})
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, int64(2), decode[bookmarkBody](t, first).Bookmark.Version)

	stale := do(t, r, http.MethodPatch, "/api/bookmarks",
		map[string]any{"id": created.ID, "name": "C", "version": 1})
	assert.Equal(t, http.StatusConflict, stale.Code)
}

func TestDeleteIsIdempotent(t *testing.T) {
	r, _ := newTestRouter(t)
	created := decode[bookmarkBody](t, do(t, r, http.MethodPost, "/api/bookmarks",
		map[string]any{"name": "A"})).Bookmark

	for i := 0; i < 2; i++ {
		rec := do(t, r, http.MethodDelete, "/api/bookmarks?id="+created.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	}

	list := decode[listBody](t, do(t, r, http.MethodGet, "/api/bookmarks", nil)).Bookmarks
	assert.Empty(t, list)
}

func TestDeleteMissingID(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodDelete, "/api/bookmarks", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id is required", decode[errorBody](t, rec).Error)
}

func TestStoreFailuresUseFixedMessages(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		target  string
		body    any
		message string
	}{
		{"list", http.MethodGet, "/api/bookmarks", nil, "Failed to load bookmarks"},
		{"create", http.MethodPost, "/api/bookmarks", map[string]any{"name": "x"}, "Failed to save bookmark"},
		{"update", http.MethodPatch, "/api/bookmarks", map[string]any{"id": "a", "name": "x"}, "Failed to update bookmark"},
		{"delete", http.MethodDelete, "/api/bookmarks?id=a", nil, "Failed to delete bookmark"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, repo := newTestRouter(t)
			repo.FailWith(errors.New("connection reset by peer"))

			rec := do(t, r, tt.method, tt.target, tt.body)

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decode[errorBody](t, rec)
			assert.Equal(t, tt.message, body.Error)
			assert.NotContains(t, rec.Body.String(), "connection reset")
		})
	}
}

func TestHealthzAndReadyz(t *testing.T) {
	r, repo := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/readyz", nil).Code)

	repo.FailWith(errors.New("down"))
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/healthz", nil).Code)
	rec := do(t, r, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"ready":false,"store":"memory","error":"store unreachable"}`, rec.Body.String())
}

func TestInfraReportsStoreAndImport(t *testing.T) {
	last := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r, _ := newTestRouter(t, func(d *deps.Deps) {
		d.ImportStatus = func() deps.ImportStatus {
			return deps.ImportStatus{Enabled: true, File: "bookmarks.yaml", LastRun: last, LastAdded: 3}
		}
	})
	do(t, r, http.MethodPost, "/api/bookmarks", map[string]any{"name": "A"})

	rec := do(t, r, http.MethodGet, "/infra", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"mode": "operational",
		"store": {"name": "memory", "ok": true, "bookmarks": 1},
		"import": {"enabled": true, "file": "bookmarks.yaml", "last_run": "2025-06-01T12:00:00Z", "last_added": 3}
	}`, rec.Body.String())
}

func TestReloadTrigger(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		r, _ := newTestRouter(t)
		assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodPost, "/reload", nil).Code)
	})

	t.Run("queued then busy", func(t *testing.T) {
		trigger := make(chan struct{}, 1)
		r, _ := newTestRouter(t, func(d *deps.Deps) { d.ImportTrigger = trigger })

		assert.Equal(t, http.StatusAccepted, do(t, r, http.MethodPost, "/reload", nil).Code)
		assert.Equal(t, http.StatusTooManyRequests, do(t, r, http.MethodPost, "/reload", nil).Code)
		assert.Len(t, trigger, 1)
	})
}

func TestOperatorRoutesRestrictedByCIDR(t *testing.T) {
	r, _ := newTestRouter(t, func(d *deps.Deps) { d.AllowedCIDRS = []string{"10.0.0.0/8"} })

	// httptest requests originate from 192.0.2.1.
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodGet, "/readyz", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodGet, "/infra", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/bookmarks", nil).Code)
}

func TestBookmarkRoutesEnforceHost(t *testing.T) {
	r, _ := newTestRouter(t, func(d *deps.Deps) { d.AllowedHosts = []string{"*.example.com"} })

	// httptest requests carry Host example.com, which the wildcard does not cover.
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodGet, "/api/bookmarks", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil)
	req.Host = "dash.example.com:8080"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWritesAreRateLimited(t *testing.T) {
	r, _ := newTestRouter(t, func(d *deps.Deps) {
		d.RateLimit = mw.RateLimitConfig{Burst: 2, RefillPerIPPerMin: 1}
	})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/bookmarks", map[string]any{"name": "x"}).Code)
	}
	rec := do(t, r, http.MethodPost, "/bookmarks", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/bookmarks", nil).Code)
}
