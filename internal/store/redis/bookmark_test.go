package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	return newTestStoreWithLogger(t, logger.NewNop())
}

func newTestStoreWithLogger(t *testing.T, log logger.Logger) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, log), mr
}

func TestInsertAssignsIDAndVersion(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	b, err := store.Insert(ctx, domain.Bookmark{Name: "Alpha", CreatedAt: now})
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, int64(1), b.Version)
	assert.Equal(t, []string{}, b.Tags)
	assert.True(t, b.UpdatedAt.IsZero())
	assert.True(t, mr.Exists(BookmarkKey(b.ID)))

	members, err := mr.Members(AllBookmarksKey())
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, members)
}

func TestInsertNeverReusesIDs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		b, err := store.Insert(ctx, domain.Bookmark{Name: "dup"})
		require.NoError(t, err)
		assert.False(t, seen[b.ID], "duplicate id %s", b.ID)
		seen[b.ID] = true
	}
}

func TestListSortedAndSkipsDangling(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		_, err := store.Insert(ctx, domain.Bookmark{Name: name})
		require.NoError(t, err)
	}
	// ID in the set without a document
	_, err := mr.SAdd(AllBookmarksKey(), "ghost")
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "bravo", list[1].Name)
	assert.Equal(t, "charlie", list[2].Name)
}

func TestListWarnsOnUndecodableDocument(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store, mr := newTestStoreWithLogger(t, logger.FromZap(zap.New(core)))
	ctx := context.Background()

	_, err := store.Insert(ctx, domain.Bookmark{Name: "alpha"})
	require.NoError(t, err)
	require.NoError(t, mr.Set(BookmarkKey("broken"), "{not json"))
	_, err = mr.SAdd(AllBookmarksKey(), "broken")
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alpha", list[0].Name)

	warned := logs.FilterMessage("skipping undecodable bookmark").All()
	require.Len(t, warned, 1)
	assert.Equal(t, BookmarkKey("broken"), warned[0].ContextMap()["key"])
}

func TestListEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUpdate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	b, err := store.Insert(ctx, domain.Bookmark{Name: "Go", URL: "https://go.dev", Tags: []string{"idea"}, CreatedAt: created})
	require.NoError(t, err)

	updatedAt := created.Add(time.Hour)
	got, err := store.Update(ctx, domain.Bookmark{ID: b.ID, Name: "Golang", URL: "", Tags: []string{"design", "idea"}, UpdatedAt: updatedAt})
	require.NoError(t, err)

	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "Golang", got.Name)
	assert.Equal(t, "", got.URL)
	assert.Equal(t, []string{"design", "idea"}, got.Tags)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, updatedAt.Equal(got.UpdatedAt))
	assert.Equal(t, int64(2), got.Version)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Golang", list[0].Name)
}

func TestUpdateErrors(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, domain.Bookmark{ID: "missing", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	b, err := store.Insert(ctx, domain.Bookmark{Name: "a"})
	require.NoError(t, err)

	_, err = store.Update(ctx, domain.Bookmark{ID: b.ID, Name: "b", Version: 1})
	require.NoError(t, err)

	_, err = store.Update(ctx, domain.Bookmark{ID: b.ID, Name: "c", Version: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDeleteIdempotent(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	keep, err := store.Insert(ctx, domain.Bookmark{Name: "keep"})
	require.NoError(t, err)
	gone, err := store.Insert(ctx, domain.Bookmark{Name: "gone"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, gone.ID))
	require.NoError(t, store.Delete(ctx, gone.ID))
	require.NoError(t, store.Delete(ctx, "never-existed"))

	assert.False(t, mr.Exists(BookmarkKey(gone.ID)))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
}

func TestPing(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.Ping(context.Background()))

	mr.Close()
	assert.Error(t, store.Ping(context.Background()))
}

func TestExtractBookmarkID(t *testing.T) {
	id, err := ExtractBookmarkID(BookmarkKey("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = ExtractBookmarkID("dashboard:bookmark:")
	assert.Error(t, err)
	_, err = ExtractBookmarkID("other:abc")
	assert.Error(t, err)
}
