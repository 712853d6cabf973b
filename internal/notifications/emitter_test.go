package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"shutterdesk/internal/database"
	"shutterdesk/internal/models"
	"shutterdesk/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func setupRepo(t *testing.T) repository.NotificationRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return repository.NewNotificationRepository(db)
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) PublishUser(context.Context, string, string) error {
	p.calls++
	return errors.New("redis down")
}

func sampleItem() *models.ContentItem {
	return &models.ContentItem{
		ID:            "item-1",
		Kind:          models.KindCategory,
		SubmitterRole: models.RolePhotographer,
		SubmitterID:   "ph-1",
		SubmitterName: "Ana",
		Payload:       models.Payload{Name: "Wedding"},
	}
}

func TestEmit_PersistsAndPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, UserChannel("ph-1"))
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	e := NewEmitter(setupRepo(t), NewNotifier(rdb)).WithClock(func() time.Time { return fixedNow })
	n, err := e.Emit(ctx, Approved(sampleItem()))
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.ActionRequired)
	assert.True(t, n.CreatedAt.Equal(fixedNow))

	select {
	case msg := <-sub.Channel():
		var got models.Notification
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, models.NotificationApproved, got.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a published notification")
	}
}

func TestEmit_PublishFailureKeepsRecord(t *testing.T) {
	pub := &failingPublisher{}
	e := NewEmitter(setupRepo(t), pub)
	ctx := context.Background()

	n, err := e.Emit(ctx, Rejected(sampleItem()))
	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls)

	unread, err := e.ListUnread(ctx, "ph-1", 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, n.ID, unread[0].ID)
}

func TestEmit_Validation(t *testing.T) {
	e := NewEmitter(setupRepo(t), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		n    *models.Notification
	}{
		{"unknown type", &models.Notification{Type: "ping", Title: "x", RecipientID: "a"}},
		{"missing recipient", &models.Notification{Type: models.NotificationApproved, Title: "x"}},
		{"missing title", &models.Notification{Type: models.NotificationApproved, RecipientID: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Emit(ctx, tt.n)
			assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
		})
	}
}

func TestEmit_ReEmitIsAllowed(t *testing.T) {
	e := NewEmitter(setupRepo(t), nil)
	ctx := context.Background()

	_, err := e.Emit(ctx, SubmissionPending(sampleItem(), "admin"))
	require.NoError(t, err)
	_, err = e.Emit(ctx, SubmissionPending(sampleItem(), "admin"))
	require.NoError(t, err)

	unread, err := e.ListUnread(ctx, "admin", 0)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.True(t, unread[0].ActionRequired)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	e := NewEmitter(setupRepo(t), nil).WithClock(func() time.Time { return fixedNow })
	ctx := context.Background()

	first, err := e.Emit(ctx, Approved(sampleItem()))
	require.NoError(t, err)
	_, err = e.Emit(ctx, Rejected(sampleItem()))
	require.NoError(t, err)

	require.NoError(t, e.MarkRead(ctx, "ph-1", first.ID))
	require.NoError(t, e.MarkRead(ctx, "ph-1", first.ID))

	unread, err := e.ListUnread(ctx, "ph-1", 0)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	n, err := e.MarkAllRead(ctx, "ph-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = e.MarkAllRead(ctx, "ph-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	inbox, err := e.List(ctx, "ph-1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, inbox, 2)
}

func TestOwnershipIsEnforced(t *testing.T) {
	e := NewEmitter(setupRepo(t), nil)
	ctx := context.Background()

	n, err := e.Emit(ctx, Approved(sampleItem()))
	require.NoError(t, err)

	assert.True(t, models.IsNotFound(e.MarkRead(ctx, "ph-2", n.ID)))
	assert.True(t, models.IsNotFound(e.Delete(ctx, "ph-2", n.ID)))

	require.NoError(t, e.Delete(ctx, "ph-1", n.ID))
	assert.True(t, models.IsNotFound(e.Delete(ctx, "ph-1", n.ID)))
}

func TestMessages(t *testing.T) {
	item := sampleItem()

	pending := SubmissionPending(item, "admin")
	assert.Equal(t, "admin", pending.RecipientID)
	assert.True(t, pending.ActionRequired)
	assert.Contains(t, pending.Message, "Ana")
	assert.Contains(t, pending.Message, `"Wedding"`)

	rejected := Rejected(item)
	assert.Equal(t, "ph-1", rejected.RecipientID)
	assert.Equal(t, models.NotificationRejected, rejected.Type)
	assert.False(t, rejected.ActionRequired)
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	assert.NoError(t, NewNotifier(nil).PublishUser(context.Background(), "ph-1", "{}"))
	assert.Equal(t, "notifications:user:ph-1", UserChannel("ph-1"))
}
