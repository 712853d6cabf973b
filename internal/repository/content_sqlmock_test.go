package repository

import (
	"context"
	"errors"
	"testing"

	"shutterdesk/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestContentRepository_UpdateIfUnchangedSQL(t *testing.T) {
	tests := []struct {
		name         string
		mockBehavior func(mock sqlmock.Sqlmock)
		wantCode     string
	}{
		{
			name: "row matched",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "content_items" SET .+ WHERE .*status = \$\d+ AND version = \$\d+.*"id" = \$\d+`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "lost race",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "content_items" SET`).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "content_items" WHERE id = \$1`).
					WithArgs("item-1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
			wantCode: models.CodeConcurrentModification,
		},
		{
			name: "row gone",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "content_items" SET`).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
				mock.ExpectQuery(`SELECT count\(\*\) FROM "content_items" WHERE id = \$1`).
					WithArgs("item-1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			},
			wantCode: models.CodeNotFound,
		},
		{
			name: "driver error",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE "content_items" SET`).
					WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			wantCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewContentRepository(db)
			tt.mockBehavior(mock)

			item := &models.ContentItem{ID: "item-1", Kind: models.KindCategory, Status: models.StatusApproved, Version: 2}
			err := repo.UpdateIfUnchanged(context.Background(), item, models.StatusPending, 1)

			if tt.wantCode == "" {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantCode, models.ErrorCode(err))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
