package repository

import (
	"context"
	"errors"

	"shutterdesk/internal/models"
	"shutterdesk/internal/observability"

	"gorm.io/gorm"
)

// casColumns are the mutable columns written by a conditional update.
var casColumns = []string{
	"status",
	"visible_on_home",
	"reviewed_by",
	"reviewed_by_name",
	"reviewed_at",
	"payload",
	"search_text",
	"version",
	"updated_at",
}

type gormContentRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewContentRepository returns a ContentRepository backed by gorm.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &gormContentRepository{
		db:     db,
		logger: observability.NewRepoLogger("content_items", BackendSQL),
	}
}

func (r *gormContentRepository) Create(ctx context.Context, item *models.ContentItem) error {
	defer observability.TrackQuery(BackendSQL, "create", "content_items")()
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"id": item.ID, "kind": item.Kind, "status": item.Status})
	return nil
}

func (r *gormContentRepository) GetByID(ctx context.Context, id string) (*models.ContentItem, error) {
	defer observability.TrackQuery(BackendSQL, "get", "content_items")()
	var item models.ContentItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("ContentItem", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &item, nil
}

func (r *gormContentRepository) UpdateIfUnchanged(ctx context.Context, item *models.ContentItem, expectedStatus models.Status, expectedVersion int64) error {
	defer observability.TrackQuery(BackendSQL, "update", "content_items")()
	ctx, span := observability.TraceRepositoryMethod(ctx, BackendSQL, "UpdateIfUnchanged", "content_items")
	defer span.End()
	res := r.db.WithContext(ctx).
		Model(item).
		Where("status = ? AND version = ?", expectedStatus, expectedVersion).
		Select(casColumns).
		Updates(item)
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, item.ID, expectedStatus, expectedVersion)
	}
	r.logger.LogUpdate(ctx, map[string]any{"id": item.ID, "status": item.Status, "version": item.Version})
	return nil
}

func (r *gormContentRepository) missOrConflict(ctx context.Context, id string, status models.Status, version int64) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.ContentItem{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return models.NewInternalError(err)
	}
	if n == 0 {
		return models.NewNotFoundError("ContentItem", id)
	}
	r.logger.LogConflict(ctx, map[string]any{"id": id, "expected_status": status, "expected_version": version})
	return models.NewConcurrentModificationError(id)
}

func (r *gormContentRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery(BackendSQL, "delete", "content_items")()
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ContentItem{})
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("ContentItem", id)
	}
	r.logger.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func (r *gormContentRepository) List(ctx context.Context, filter models.ContentFilter) ([]*models.ContentItem, error) {
	defer observability.TrackQuery(BackendSQL, "list", "content_items")()
	q := r.db.WithContext(ctx).Model(&models.ContentItem{})
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SubmitterID != "" {
		q = q.Where("submitter_id = ?", filter.SubmitterID)
	}
	if filter.VisibleOnHome != nil {
		q = q.Where("visible_on_home = ?", *filter.VisibleOnHome)
	}
	if s := normalizeSearch(filter.SearchText); s != "" {
		q = q.Where(`search_text LIKE ? ESCAPE '\'`, likePattern(s))
	}

	var items []*models.ContentItem
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(clampLimit(filter.Limit)).
		Offset(filter.Offset).
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *gormContentRepository) CountByStatus(ctx context.Context, kind models.Kind) (models.ContentCounts, error) {
	defer observability.TrackQuery(BackendSQL, "count", "content_items")()
	var rows []struct {
		Status models.Status
		Count  int64
	}
	q := r.db.WithContext(ctx).Model(&models.ContentItem{}).Select("status, count(*) AS count")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var counts models.ContentCounts
	if err := q.Group("status").Scan(&rows).Error; err != nil {
		return counts, models.NewInternalError(err)
	}
	for _, row := range rows {
		counts.Add(row.Status, row.Count)
	}
	return counts, nil
}
