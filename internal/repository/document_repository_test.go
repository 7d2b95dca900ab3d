package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/docflow-api/internal/models"
)

func newDocumentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func documentRows(id string, status models.DocStatus, version int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "project_id", "title", "type", "folder", "status", "version", "uploaded_by",
		"upload_date", "due_date", "assigned_department", "url", "history", "comments", "created_at", "updated_at",
	}).AddRow(
		id, "p-1", "Contract 001", "CONTRACT", "CONTRACTUAL_START", string(status), version, "Ana",
		now, now, "Legal", "", `[{"action":"Filed","date":"2024-06-01T00:00:00Z","user":"Ana"}]`, `[]`, now, now,
	)
}

func TestDocumentRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	legal := models.DepartmentLegal
	doc := &models.Document{
		ProjectID:          "p-1",
		Title:              "Contract 001",
		Type:               models.DocTypeContract,
		Folder:             models.FolderContractualStart,
		Status:             models.StatusInReviewLegal,
		Version:            1,
		UploadedBy:         "Ana",
		UploadDate:         time.Now(),
		DueDate:            time.Now().AddDate(0, 0, 7),
		AssignedDepartment: &legal,
		History:            models.HistoryLog{{Action: "Filed", Date: time.Now(), User: "Ana"}},
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	require.NotEmpty(t, doc.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, title")).
		WithArgs(doc.ID).
		WillReturnRows(documentRows(doc.ID, models.StatusInReviewLegal, 1))

	found, err := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.ID, found.ID)
	require.Equal(t, models.StatusInReviewLegal, found.Status)
	require.Len(t, found.History, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryGetNotFound(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, title")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDocumentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	status := models.StatusInReviewLegal

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, project_id, title")).
		WithArgs("p-1", string(status)).
		WillReturnRows(documentRows("d-1", status, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("p-1", string(status)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	docs, total, err := repo.List(context.Background(), models.DocumentFilter{
		ProjectID: "p-1",
		Status:    &status,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "d-1", docs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateWithVersion(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	direction := models.DepartmentDirection
	doc := &models.Document{
		ID:                 "d-1",
		Status:             models.StatusPendingSignature,
		Version:            1,
		AssignedDepartment: &direction,
		History: models.HistoryLog{
			{Action: "Filed", Date: time.Now(), User: "Ana"},
			{Action: "Approved by Legal", Date: time.Now(), User: "Laura"},
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateWithVersion(context.Background(), doc, 1, models.StatusInReviewLegal))

	// a concurrent writer already moved the row
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateWithVersion(context.Background(), doc, 1, models.StatusInReviewLegal)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryAppendComment(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	comments := models.CommentList{{ID: "c-1", UserID: "u-1", UserName: "Ana", Text: "please revise"}}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET comments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.AppendComment(context.Background(), "d-1", comments))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET comments")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.AppendComment(context.Background(), "gone", comments)
	require.ErrorIs(t, err, sql.ErrNoRows)
}
