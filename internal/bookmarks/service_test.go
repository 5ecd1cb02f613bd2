package bookmarks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
	"github.com/MrSnakeDoc/dashboard/internal/store/memory"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *memory.Store, *fakeClock) {
	t.Helper()
	repo := memory.NewStore()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(repo, logger.NewNop(), WithClock(clock.Now)), repo, clock
}

func TestCreateThenListContainsRecord(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Go", "https://go.dev", []string{"idea", "design"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, clock.t, created.CreatedAt)
	assert.True(t, created.UpdatedAt.IsZero(), "updatedAt unset on create")

	list, err := svc.List(ctx)
	require.NoError(t, err)

	matches := 0
	for _, b := range list {
		if b.ID == created.ID {
			matches++
			assert.Equal(t, "Go", b.Name)
			assert.Equal(t, "https://go.dev", b.URL)
			assert.Equal(t, []string{"idea", "design"}, b.Tags)
		}
	}
	assert.Equal(t, 1, matches)
}

func TestCreateRejectsBlankName(t *testing.T) {
	for _, name := range []string{"", " ", "\t\n "} {
		t.Run("name="+name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)

			_, err := svc.Create(context.Background(), name, "", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, 0, repo.Count(), "nothing persisted")
		})
	}
}

func TestCreateDefaultsTags(t *testing.T) {
	svc, _, _ := newTestService(t)

	b, err := svc.Create(context.Background(), "n", "", nil)
	require.NoError(t, err)
	assert.NotNil(t, b.Tags)
	assert.Empty(t, b.Tags)
}

func TestUpdateChangesOnlyTarget(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	target, err := svc.Create(ctx, "Alpha", "https://a.example", []string{"x"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, "Beta", "https://b.example", []string{"y"})
	require.NoError(t, err)

	clock.advance(time.Hour)
	updated, err := svc.Update(ctx, UpdateInput{ID: target.ID, Name: "Alpha2", URL: "", Tags: []string{"z"}})
	require.NoError(t, err)

	assert.Equal(t, target.ID, updated.ID)
	assert.Equal(t, target.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clock.t, updated.UpdatedAt)
	assert.Equal(t, "Alpha2", updated.Name)
	assert.Equal(t, "", updated.URL)
	assert.Equal(t, []string{"z"}, updated.Tags)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, b := range list {
		if b.ID == other.ID {
			assert.Equal(t, other, b, "untouched record must be unchanged")
		}
	}
}

func TestUpdateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name string
		in   UpdateInput
	}{
		{"missing id", UpdateInput{Name: "x"}},
		{"blank name", UpdateInput{ID: "1", Name: "  "}},
		{"negative version", UpdateInput{ID: "1", Name: "x", Version: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), tt.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), UpdateInput{ID: "does-not-exist", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrStore)
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, "a", "", nil)
	require.NoError(t, err)

	first, err := svc.Update(ctx, UpdateInput{ID: b.ID, Name: "b", Version: b.Version})
	require.NoError(t, err)
	assert.Equal(t, b.Version+1, first.Version)

	_, err = svc.Update(ctx, UpdateInput{ID: b.ID, Name: "c", Version: b.Version})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	keep, _ := svc.Create(ctx, "keep", "", nil)
	gone, _ := svc.Create(ctx, "gone", "", nil)

	require.NoError(t, svc.Delete(ctx, gone.ID))
	require.NoError(t, svc.Delete(ctx, gone.ID), "delete is idempotent")
	require.NoError(t, svc.Delete(ctx, "never-existed"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	assert.ErrorIs(t, svc.Delete(ctx, ""), domain.ErrValidation)
}

func TestListSortedForAnyInsertionOrder(t *testing.T) {
	orders := [][]string{
		{"c", "b", "a"},
		{"a", "c", "b"},
		{"b", "a", "c"},
	}
	for _, order := range orders {
		svc, _, _ := newTestService(t)
		for _, name := range order {
			_, err := svc.Create(context.Background(), name, "", nil)
			require.NoError(t, err)
		}
		list, err := svc.List(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].Name, list[1].Name, list[2].Name})
	}
}

func TestBackendFailuresBecomeStoreErrors(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	boom := errors.New("connection reset")
	repo.FailWith(boom)

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Create(ctx, "n", "", nil)
	assert.ErrorIs(t, err, domain.ErrStore)

	_, err = svc.Update(ctx, UpdateInput{ID: "1", Name: "n"})
	assert.ErrorIs(t, err, domain.ErrStore)

	assert.ErrorIs(t, svc.Delete(ctx, "1"), domain.ErrStore)
	assert.ErrorIs(t, svc.Ping(ctx), domain.ErrStore)
}
