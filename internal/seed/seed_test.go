package seed

import (
	"context"
	"testing"

	"shutterdesk/internal/database"
	"shutterdesk/internal/models"
	"shutterdesk/internal/moderation"
	"shutterdesk/internal/notifications"
	"shutterdesk/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seedAdmin = moderation.Actor{ID: "admin-seed", Name: "Seeder", Role: models.RoleAdmin}

func setupEngine(t *testing.T) (*moderation.Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	emitter := notifications.NewEmitter(repository.NewNotificationRepository(db), nil)
	engine := moderation.NewEngine(repository.NewContentRepository(db), emitter, nil, moderation.Options{})
	return engine, db
}

func TestSeederRun(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	opts := Options{Photographers: 3, ItemsPerPhotographer: 5, ReviewRatio: 0.5, ApproveRatio: 0.5, AdminItems: 2}
	sum, err := NewSeeder(engine, seedAdmin, 42).Run(ctx, opts)
	require.NoError(t, err)

	assert.Equal(t, 17, sum.Submitted)
	assert.Equal(t, sum.Reviewed+2, sum.Approved+sum.Rejected)

	counts, err := engine.Counts(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, sum.Submitted, counts.Total)
	assert.EqualValues(t, sum.Approved, counts.Approved)
	assert.EqualValues(t, sum.Rejected, counts.Rejected)
	assert.EqualValues(t, sum.Drafts, counts.Draft)
	assert.EqualValues(t, sum.Submitted-sum.Drafts-sum.Reviewed-2, counts.Pending)

	items, err := engine.List(ctx, models.ContentFilter{Limit: 100})
	require.NoError(t, err)
	for _, item := range items {
		assert.NoError(t, moderation.CheckInvariants(item), item.ID)
	}

	var reviewNotices int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("type IN ?", []models.NotificationType{models.NotificationApproved, models.NotificationRejected}).
		Count(&reviewNotices).Error)
	assert.EqualValues(t, sum.Reviewed, reviewNotices)
}

func TestSeederRequiresAdmin(t *testing.T) {
	engine, _ := setupEngine(t)
	photographer := moderation.Actor{ID: "ph-1", Role: models.RolePhotographer}
	_, err := NewSeeder(engine, photographer, 1).Run(context.Background(), DefaultOptions)
	assert.Error(t, err)
}

func TestFactoryPayloadsValidate(t *testing.T) {
	f := NewFactory(7)
	for i := 0; i < 50; i++ {
		kind := f.Kind()
		assert.NoError(t, moderation.ValidatePayload(kind, f.Payload(kind)), kind)
	}
}
