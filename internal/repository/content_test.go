package repository

import (
	"context"
	"testing"
	"time"

	"shutterdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentRepository_CreateAndGet(t *testing.T) {
	repo := NewContentRepository(setupSQLiteDB(t))
	ctx := context.Background()

	item := newItem(models.KindCategory, models.StatusPending, "Wedding", 0)
	require.NoError(t, repo.Create(ctx, item))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Kind, got.Kind)
	assert.Equal(t, "Wedding", got.Payload.Name)
	assert.Equal(t, "http://x/img.png", got.Payload.Image)
	assert.Nil(t, got.ReviewedBy)
	assert.Equal(t, int64(1), got.Version)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestContentRepository_UpdateIfUnchanged(t *testing.T) {
	repo := NewContentRepository(setupSQLiteDB(t))
	ctx := context.Background()

	item := newItem(models.KindCity, models.StatusPending, "Lisbon", 0)
	require.NoError(t, repo.Create(ctx, item))

	reviewer := "admin1"
	now := baseTime.Add(time.Hour)
	next := item.Clone()
	next.Status = models.StatusApproved
	next.VisibleOnHome = true
	next.ReviewedBy = &reviewer
	next.ReviewedAt = &now
	next.Version = 2

	require.NoError(t, repo.UpdateIfUnchanged(ctx, next, models.StatusPending, 1))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.True(t, got.VisibleOnHome)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, "admin1", *got.ReviewedBy)
	assert.Equal(t, int64(2), got.Version)

	t.Run("stale version conflicts", func(t *testing.T) {
		stale := item.Clone()
		stale.Status = models.StatusRejected
		stale.Version = 2
		err := repo.UpdateIfUnchanged(ctx, stale, models.StatusPending, 1)
		assert.Equal(t, models.CodeConcurrentModification, models.ErrorCode(err))

		got, err := repo.GetByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
	})

	t.Run("missing row is not found", func(t *testing.T) {
		ghost := newItem(models.KindCity, models.StatusPending, "Ghost", 0)
		err := repo.UpdateIfUnchanged(ctx, ghost, models.StatusPending, 1)
		assert.True(t, models.IsNotFound(err))
	})
}

func TestContentRepository_Delete(t *testing.T) {
	repo := NewContentRepository(setupSQLiteDB(t))
	ctx := context.Background()

	item := newItem(models.KindGallery, models.StatusDraft, "Portraits", 0)
	require.NoError(t, repo.Create(ctx, item))

	require.NoError(t, repo.Delete(ctx, item.ID))
	assert.True(t, models.IsNotFound(repo.Delete(ctx, item.ID)))

	_, err := repo.GetByID(ctx, item.ID)
	assert.True(t, models.IsNotFound(err))
}

func TestContentRepository_List(t *testing.T) {
	repo := NewContentRepository(setupSQLiteDB(t))
	ctx := context.Background()

	wedding := newItem(models.KindCategory, models.StatusPending, "Wedding", 0)
	newborn := newItem(models.KindCategory, models.StatusApproved, "Newborn", time.Minute)
	newborn.VisibleOnHome = true
	story := newItem(models.KindStory, models.StatusDraft, "Wedding in Porto", 2*time.Minute)
	percent := newItem(models.KindCity, models.StatusPending, "100% Sunny", 3*time.Minute)
	for _, it := range []*models.ContentItem{wedding, newborn, story, percent} {
		require.NoError(t, repo.Create(ctx, it))
	}

	visible := true
	tests := []struct {
		name   string
		filter models.ContentFilter
		want   []string
	}{
		{"all newest first", models.ContentFilter{}, []string{percent.ID, story.ID, newborn.ID, wedding.ID}},
		{"by kind", models.ContentFilter{Kind: models.KindCategory}, []string{newborn.ID, wedding.ID}},
		{"by status", models.ContentFilter{Status: models.StatusPending}, []string{percent.ID, wedding.ID}},
		{"search is case-insensitive", models.ContentFilter{SearchText: "WEDDING"}, []string{story.ID, wedding.ID}},
		{"search matches description", models.ContentFilter{SearchText: "newborn desc"}, []string{newborn.ID}},
		{"search escapes wildcards", models.ContentFilter{SearchText: "%"}, []string{percent.ID}},
		{"visible on home", models.ContentFilter{VisibleOnHome: &visible}, []string{newborn.ID}},
		{"limit and offset", models.ContentFilter{Limit: 1, Offset: 1}, []string{story.ID}},
		{"no match", models.ContentFilter{SearchText: "zzz"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestContentRepository_CountByStatus(t *testing.T) {
	repo := NewContentRepository(setupSQLiteDB(t))
	ctx := context.Background()

	for i, st := range []models.Status{models.StatusPending, models.StatusPending, models.StatusApproved, models.StatusRejected} {
		require.NoError(t, repo.Create(ctx, newItem(models.KindCategory, st, "c", time.Duration(i)*time.Second)))
	}
	require.NoError(t, repo.Create(ctx, newItem(models.KindGallery, models.StatusDraft, "g", 0)))

	counts, err := repo.CountByStatus(ctx, models.KindCategory)
	require.NoError(t, err)
	assert.Equal(t, models.ContentCounts{Total: 4, Pending: 2, Approved: 1, Rejected: 1}, counts)

	all, err := repo.CountByStatus(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.Total)
	assert.Equal(t, int64(1), all.Draft)
}
