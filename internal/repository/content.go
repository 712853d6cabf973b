// Package repository provides the content and notification stores.
package repository

import (
	"context"
	"strings"
	"time"

	"shutterdesk/internal/models"
)

// Backend labels used in logs, spans and metrics.
const (
	BackendSQL   = "sql"
	BackendMongo = "mongo"
)

// ContentRepository persists content items.
type ContentRepository interface {
	Create(ctx context.Context, item *models.ContentItem) error
	GetByID(ctx context.Context, id string) (*models.ContentItem, error)
	// UpdateIfUnchanged writes item only while the stored record still has
	// expectedStatus and expectedVersion. A lost race returns a
	// ConcurrentModificationError; a vanished record returns NotFound.
	UpdateIfUnchanged(ctx context.Context, item *models.ContentItem, expectedStatus models.Status, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.ContentFilter) ([]*models.ContentItem, error)
	CountByStatus(ctx context.Context, kind models.Kind) (models.ContentCounts, error)
}

// NotificationRepository persists inbox records.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	// MarkRead reports whether the record changed from unread to read.
	MarkRead(ctx context.Context, id string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error)
	ListUnread(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*models.Notification, error)
	Delete(ctx context.Context, id string) error
}

// DefaultListLimit and MaxListLimit bound every list query.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func normalizeSearch(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// likePattern escapes LIKE wildcards so q matches literally.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
