package repository

import (
	"fmt"
	"testing"
	"time"

	"shutterdesk/internal/database"
	"shutterdesk/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newItem(kind models.Kind, status models.Status, name string, offset time.Duration) *models.ContentItem {
	p := models.Payload{Name: name, Description: fmt.Sprintf("%s description", name), Image: "http://x/img.png"}
	if kind == models.KindStory {
		p = models.Payload{Title: name, Content: "body"}
	}
	created := baseTime.Add(offset)
	return &models.ContentItem{
		ID:            uuid.NewString(),
		Kind:          kind,
		SubmitterRole: models.RolePhotographer,
		SubmitterID:   "ph-1",
		SubmitterName: "Ana",
		Status:        status,
		Payload:       p,
		SearchText:    p.SearchText(),
		Version:       1,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}
