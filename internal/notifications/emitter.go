package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"shutterdesk/internal/middleware"
	"shutterdesk/internal/models"
	"shutterdesk/internal/observability"
	"shutterdesk/internal/repository"

	"github.com/google/uuid"
)

// Publisher fans a persisted notification out to live listeners.
type Publisher interface {
	PublishUser(ctx context.Context, recipientID string, payload string) error
}

// Emitter persists notifications and serves recipient inboxes.
type Emitter struct {
	repo repository.NotificationRepository
	pub  Publisher
	now  func() time.Time
}

// NewEmitter creates an Emitter. pub may be nil.
func NewEmitter(repo repository.NotificationRepository, pub Publisher) *Emitter {
	return &Emitter{
		repo: repo,
		pub:  pub,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (e *Emitter) WithClock(now func() time.Time) *Emitter {
	e.now = now
	return e
}

// Emit validates and persists n, then publishes it best-effort.
// Re-emitting for the same item and type creates a new record.
func (e *Emitter) Emit(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	switch n.Type {
	case models.NotificationSubmissionPending, models.NotificationApproved, models.NotificationRejected:
	default:
		return nil, models.NewValidationError("unknown notification type")
	}
	if n.RecipientID == "" {
		return nil, models.NewValidationError("recipient is required")
	}
	if n.Title == "" {
		return nil, models.NewValidationError("title is required")
	}

	out := *n
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	out.Read = false
	out.ReadAt = nil
	if out.CreatedAt.IsZero() {
		out.CreatedAt = e.now()
	}

	if err := e.repo.Create(ctx, &out); err != nil {
		observability.NotificationsFailed.WithLabelValues(string(out.Type)).Inc()
		return nil, err
	}
	observability.NotificationsEmitted.WithLabelValues(string(out.Type)).Inc()
	e.publish(ctx, &out)
	return &out, nil
}

func (e *Emitter) publish(ctx context.Context, n *models.Notification) {
	if e.pub == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err == nil {
		err = e.pub.PublishUser(ctx, n.RecipientID, string(payload))
	}
	if err != nil {
		observability.NotificationsPublished.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			slog.String("notification_id", n.ID),
			slog.String("recipient_id", n.RecipientID),
			slog.String("error", err.Error()))
		return
	}
	observability.NotificationsPublished.WithLabelValues("ok").Inc()
}

// owned loads id and hides records that belong to another recipient.
func (e *Emitter) owned(ctx context.Context, recipientID, id string) (*models.Notification, error) {
	n, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != recipientID {
		return nil, models.NewNotFoundError("Notification", id)
	}
	return n, nil
}

// MarkRead marks id read. Calls after the first are no-ops.
func (e *Emitter) MarkRead(ctx context.Context, recipientID, id string) error {
	if _, err := e.owned(ctx, recipientID, id); err != nil {
		return err
	}
	_, err := e.repo.MarkRead(ctx, id, e.now())
	return err
}

// MarkAllRead marks every unread notification of recipientID and returns how many changed.
func (e *Emitter) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return e.repo.MarkAllRead(ctx, recipientID, e.now())
}

// ListUnread returns unread notifications, newest first.
func (e *Emitter) ListUnread(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	return e.repo.ListUnread(ctx, recipientID, limit)
}

// List returns the inbox of recipientID, newest first.
func (e *Emitter) List(ctx context.Context, recipientID string, limit, offset int) ([]*models.Notification, error) {
	return e.repo.ListByRecipient(ctx, recipientID, limit, offset)
}

// Delete removes id from the inbox of recipientID.
func (e *Emitter) Delete(ctx context.Context, recipientID, id string) error {
	if _, err := e.owned(ctx, recipientID, id); err != nil {
		return err
	}
	return e.repo.Delete(ctx, id)
}
