package repository

import (
	"context"
	"errors"
	"time"

	"shutterdesk/internal/models"
	"shutterdesk/internal/observability"

	"gorm.io/gorm"
)

type gormNotificationRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewNotificationRepository returns a NotificationRepository backed by gorm.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &gormNotificationRepository{
		db:     db,
		logger: observability.NewRepoLogger("notifications", BackendSQL),
	}
}

func (r *gormNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	defer observability.TrackQuery(BackendSQL, "create", "notifications")()
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]any{"id": n.ID, "type": n.Type, "recipient_id": n.RecipientID})
	return nil
}

func (r *gormNotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Notification", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &n, nil
}

func (r *gormNotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	defer observability.TrackQuery(BackendSQL, "mark_read", "notifications")()
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	if count == 0 {
		return false, models.NewNotFoundError("Notification", id)
	}
	return false, nil
}

func (r *gormNotificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	defer observability.TrackQuery(BackendSQL, "mark_all_read", "notifications")()
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormNotificationRepository) ListUnread(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	var out []*models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Order("created_at DESC").Order("id DESC").
		Limit(clampLimit(limit)).
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *gormNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*models.Notification, error) {
	var out []*models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").Order("id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *gormNotificationRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Notification{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	r.logger.LogDelete(ctx, map[string]any{"id": id})
	return nil
}
