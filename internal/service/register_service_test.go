package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/docflow-api/internal/models"
	"github.com/noah-isme/docflow-api/pkg/jobs"
	"github.com/noah-isme/docflow-api/pkg/storage"
)

type stubRegisterJobStore struct {
	jobsByID map[string]*models.RegisterJob
}

func newStubRegisterJobStore() *stubRegisterJobStore {
	return &stubRegisterJobStore{jobsByID: make(map[string]*models.RegisterJob)}
}

func (s *stubRegisterJobStore) Create(_ context.Context, job *models.RegisterJob) error {
	clone := *job
	s.jobsByID[job.ID] = &clone
	return nil
}

func (s *stubRegisterJobStore) GetByID(_ context.Context, id string) (*models.RegisterJob, error) {
	job, ok := s.jobsByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (s *stubRegisterJobStore) MarkRunning(_ context.Context, id string) error {
	if job, ok := s.jobsByID[id]; ok {
		job.Status = models.RegisterJobRunning
	}
	return nil
}

func (s *stubRegisterJobStore) MarkCompleted(_ context.Context, id, filePath string, completedAt time.Time) error {
	if job, ok := s.jobsByID[id]; ok {
		job.Status = models.RegisterJobCompleted
		job.FilePath = &filePath
		job.CompletedAt = &completedAt
	}
	return nil
}

func (s *stubRegisterJobStore) MarkFailed(_ context.Context, id, errorText string, completedAt time.Time) error {
	if job, ok := s.jobsByID[id]; ok {
		job.Status = models.RegisterJobFailed
		job.ErrorText = &errorText
		job.CompletedAt = &completedAt
	}
	return nil
}

func (s *stubRegisterJobStore) ListByUser(_ context.Context, userID string, _ int) ([]models.RegisterJob, error) {
	var out []models.RegisterJob
	for _, job := range s.jobsByID {
		if job.RequestedBy == userID {
			out = append(out, *job)
		}
	}
	return out, nil
}

type stubRegisterDocs struct {
	docs []models.Document
}

func (s *stubRegisterDocs) ListAll(_ context.Context, projectID *string) ([]models.Document, error) {
	if projectID == nil {
		return s.docs, nil
	}
	var out []models.Document
	for _, doc := range s.docs {
		if doc.ProjectID == *projectID {
			out = append(out, doc)
		}
	}
	return out, nil
}

type memoryStorage struct {
	files map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: make(map[string][]byte)}
}

func (s *memoryStorage) Save(filename string, data []byte) (string, error) {
	s.files[filename] = data
	return filename, nil
}

func (s *memoryStorage) Path(filename string) string {
	return "/data/" + filename
}

func newRegisterServiceForTest() (*RegisterService, *stubRegisterJobStore, *memoryStorage) {
	legal := models.DepartmentLegal
	docs := &stubRegisterDocs{docs: []models.Document{
		{
			ID: "d-1", ProjectID: "p-1", Title: "Civil Works Contract",
			Type: models.DocTypeContract, Folder: models.FolderContractualStart,
			Status: models.StatusInReviewLegal, Version: 1,
			DueDate:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			AssignedDepartment: &legal,
		},
		{
			ID: "d-2", ProjectID: "p-2", Title: "Progress Report",
			Type: models.DocTypeReport, Folder: models.FolderExecution,
			Status: models.StatusSigned, Version: 1,
			DueDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}}

	jobsRepo := newStubRegisterJobStore()
	store := newMemoryStorage()
	signer := storage.NewSignedURLSigner("register-secret", time.Hour)
	svc := NewRegisterService(jobsRepo, docs, &stubAuditRecorder{}, store, signer, nil, nil, jobs.QueueConfig{Workers: 1})
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	return svc, jobsRepo, store
}

func TestRegisterServiceProcessCSV(t *testing.T) {
	svc, jobsRepo, store := newRegisterServiceForTest()

	job := &models.RegisterJob{ID: "job-1", Format: models.RegisterFormatCSV, RequestedBy: "u-dir"}
	require.NoError(t, jobsRepo.Create(context.Background(), job))

	err := svc.process(context.Background(), jobs.Job{ID: job.ID, Type: "register-export", Payload: job.ID})
	require.NoError(t, err)

	stored := jobsRepo.jobsByID[job.ID]
	assert.Equal(t, models.RegisterJobCompleted, stored.Status)
	require.NotNil(t, stored.FilePath)

	payload, ok := store.files[*stored.FilePath]
	require.True(t, ok)
	content := string(payload)
	assert.Contains(t, content, "Civil Works Contract")
	assert.Contains(t, content, "IN_REVIEW_LEGAL")
	// the contract is nine days past due at the frozen clock
	assert.True(t, strings.Contains(content, ",9"), "expected days-late column in %q", content)
}

func TestRegisterServiceProcessScopedToProject(t *testing.T) {
	svc, jobsRepo, store := newRegisterServiceForTest()

	projectID := "p-2"
	job := &models.RegisterJob{ID: "job-2", Format: models.RegisterFormatCSV, ProjectID: &projectID, RequestedBy: "u-dir"}
	require.NoError(t, jobsRepo.Create(context.Background(), job))

	require.NoError(t, svc.process(context.Background(), jobs.Job{ID: job.ID, Payload: job.ID}))

	stored := jobsRepo.jobsByID[job.ID]
	payload := string(store.files[*stored.FilePath])
	assert.Contains(t, payload, "Progress Report")
	assert.NotContains(t, payload, "Civil Works Contract")
}

func TestRegisterServiceStatusSignsCompletedJobs(t *testing.T) {
	svc, jobsRepo, _ := newRegisterServiceForTest()

	filePath := "registers/job-3.csv"
	completed := time.Now()
	jobsRepo.jobsByID["job-3"] = &models.RegisterJob{
		ID: "job-3", Format: models.RegisterFormatCSV, Status: models.RegisterJobCompleted,
		RequestedBy: "u-dir", FilePath: &filePath, CompletedAt: &completed,
	}

	actor := &models.JWTClaims{UserID: "u-dir", Role: models.RoleDirector}
	resp, err := svc.Status(context.Background(), "job-3", actor)
	require.NoError(t, err)
	require.NotNil(t, resp.DownloadURL)

	path, err := svc.ResolveDownload(*resp.DownloadURL)
	require.NoError(t, err)
	assert.Equal(t, "/data/registers/job-3.csv", path)
}

func TestRegisterServiceStatusHidesForeignJobs(t *testing.T) {
	svc, jobsRepo, _ := newRegisterServiceForTest()

	jobsRepo.jobsByID["job-4"] = &models.RegisterJob{
		ID: "job-4", Format: models.RegisterFormatCSV, Status: models.RegisterJobPending, RequestedBy: "someone-else",
	}

	actor := &models.JWTClaims{UserID: "u-legal", Role: models.RoleReviewer}
	_, err := svc.Status(context.Background(), "job-4", actor)
	require.Error(t, err)
}
