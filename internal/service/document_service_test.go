package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/docflow-api/internal/dto"
	"github.com/noah-isme/docflow-api/internal/models"
	appErrors "github.com/noah-isme/docflow-api/pkg/errors"
)

type stubDocumentStore struct {
	docs      map[string]*models.Document
	created   []*models.Document
	updateErr error
	updated   *models.Document
}

func newStubDocumentStore() *stubDocumentStore {
	return &stubDocumentStore{docs: make(map[string]*models.Document)}
}

func (s *stubDocumentStore) Create(_ context.Context, doc *models.Document) error {
	s.created = append(s.created, doc)
	clone := doc.Clone()
	s.docs[doc.ID] = &clone
	return nil
}

func (s *stubDocumentStore) GetByID(_ context.Context, id string) (*models.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := doc.Clone()
	return &clone, nil
}

func (s *stubDocumentStore) List(_ context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	var out []models.Document
	for _, doc := range s.docs {
		if filter.Department != nil {
			if doc.AssignedDepartment == nil || *doc.AssignedDepartment != *filter.Department {
				continue
			}
		}
		out = append(out, doc.Clone())
	}
	return out, len(out), nil
}

func (s *stubDocumentStore) ListActive(_ context.Context) ([]models.Document, error) {
	var out []models.Document
	for _, doc := range s.docs {
		if doc.Status.IsTerminal() {
			continue
		}
		out = append(out, doc.Clone())
	}
	return out, nil
}

func (s *stubDocumentStore) UpdateWithVersion(_ context.Context, doc *models.Document, prevVersion int, prevStatus models.DocStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	current, ok := s.docs[doc.ID]
	if !ok || current.Version != prevVersion || current.Status != prevStatus {
		return sql.ErrNoRows
	}
	clone := doc.Clone()
	s.docs[doc.ID] = &clone
	s.updated = doc
	return nil
}

func (s *stubDocumentStore) AppendComment(_ context.Context, id string, comments models.CommentList) error {
	doc, ok := s.docs[id]
	if !ok {
		return sql.ErrNoRows
	}
	doc.Comments = comments
	return nil
}

func (s *stubDocumentStore) UpdateURL(_ context.Context, id, url string) error {
	doc, ok := s.docs[id]
	if !ok {
		return sql.ErrNoRows
	}
	doc.URL = url
	return nil
}

type stubProjectStore struct {
	projects map[string]*models.Project
}

func (s *stubProjectStore) GetByID(_ context.Context, id string) (*models.Project, error) {
	project, ok := s.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return project, nil
}

type stubUserDirectory struct {
	users map[string]*models.User
}

func (s *stubUserDirectory) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type stubAuditRecorder struct {
	entries []*models.AuditLog
}

func (s *stubAuditRecorder) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.entries = append(s.entries, log)
	return nil
}

func testUsers() map[string]*models.User {
	return map[string]*models.User{
		"u-coord": {ID: "u-coord", FullName: "Ana Coordinator", Role: models.RoleCoordinator, Department: models.DepartmentDirection, Active: true},
		"u-legal": {ID: "u-legal", FullName: "Laura Legal", Role: models.RoleReviewer, Department: models.DepartmentLegal, Active: true},
		"u-hr":    {ID: "u-hr", FullName: "Helena HR", Role: models.RoleReviewer, Department: models.DepartmentHumanResources, Active: true},
		"u-dir":   {ID: "u-dir", FullName: "Diego Director", Role: models.RoleDirector, Department: models.DepartmentDirection, Active: true},
	}
}

func claimsFor(user *models.User) *models.JWTClaims {
	return &models.JWTClaims{UserID: user.ID, Role: user.Role, Department: user.Department, FullName: user.FullName}
}

func newDocumentServiceForTest(t *testing.T) (*DocumentService, *stubDocumentStore, *stubAuditRecorder) {
	t.Helper()
	docs := newStubDocumentStore()
	audit := &stubAuditRecorder{}
	users := &stubUserDirectory{users: testUsers()}
	projects := &stubProjectStore{projects: map[string]*models.Project{
		"p-1": {ID: "p-1", Code: "PRJ-001", Name: "Plant Expansion", Status: models.ProjectActive},
	}}
	svc := NewDocumentService(docs, projects, users, audit, nil, nil, nil, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	return svc, docs, audit
}

func TestDocumentServiceCreateRoutesContract(t *testing.T) {
	svc, docs, audit := newDocumentServiceForTest(t)
	actor := claimsFor(testUsers()["u-coord"])

	resp, err := svc.Create(context.Background(), dto.CreateDocumentRequest{
		ProjectID: "p-1",
		Title:     "Civil Works Contract",
		Type:      "CONTRACT",
		Folder:    "CONTRACTUAL_START",
		DueDate:   "2024-06-17",
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInReviewLegal, resp.Status)
	require.NotNil(t, resp.AssignedDepartment)
	assert.Equal(t, models.DepartmentLegal, *resp.AssignedDepartment)
	assert.Equal(t, 1, resp.Version)
	assert.Equal(t, 0, resp.DaysLate)
	require.Len(t, docs.created, 1)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionDocumentCreate, audit.entries[0].Action)
}

func TestDocumentServiceCreateUnknownProject(t *testing.T) {
	svc, _, _ := newDocumentServiceForTest(t)
	actor := claimsFor(testUsers()["u-coord"])

	_, err := svc.Create(context.Background(), dto.CreateDocumentRequest{
		ProjectID: "missing",
		Title:     "Orphan Report",
		Type:      "REPORT",
		Folder:    "EXECUTION",
		DueDate:   "2024-06-17",
	}, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceApplyApprove(t *testing.T) {
	svc, docs, audit := newDocumentServiceForTest(t)
	coordinator := claimsFor(testUsers()["u-coord"])

	created, err := svc.Create(context.Background(), dto.CreateDocumentRequest{
		ProjectID: "p-1",
		Title:     "Civil Works Contract",
		Type:      "CONTRACT",
		Folder:    "CONTRACTUAL_START",
		DueDate:   "2024-06-17",
	}, coordinator)
	require.NoError(t, err)

	legal := claimsFor(testUsers()["u-legal"])
	approved, err := svc.ApplyAction(context.Background(), created.ID, dto.ActionRequest{Action: "approve"}, legal)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingSignature, approved.Status)
	assert.Equal(t, 1, approved.Version)
	require.Len(t, approved.History, 2)

	stored := docs.docs[created.ID]
	assert.Equal(t, models.StatusPendingSignature, stored.Status)
	require.Len(t, audit.entries, 2)
	assert.Equal(t, models.AuditActionDocumentApply, audit.entries[1].Action)
}

func TestDocumentServiceApplyConflict(t *testing.T) {
	svc, docs, _ := newDocumentServiceForTest(t)
	coordinator := claimsFor(testUsers()["u-coord"])

	created, err := svc.Create(context.Background(), dto.CreateDocumentRequest{
		ProjectID: "p-1",
		Title:     "Supplier Offer",
		Type:      "OFFER",
		Folder:    "PLANNING",
		DueDate:   "2024-06-17",
	}, coordinator)
	require.NoError(t, err)

	docs.updateErr = sql.ErrNoRows

	proc := claimsFor(&models.User{ID: "u-proc", FullName: "Pedro", Role: models.RoleReviewer, Department: models.DepartmentProcurement})
	svcUsers := svc.users.(*stubUserDirectory)
	svcUsers.users["u-proc"] = &models.User{ID: "u-proc", FullName: "Pedro", Role: models.RoleReviewer, Department: models.DepartmentProcurement, Active: true}

	_, err = svc.ApplyAction(context.Background(), created.ID, dto.ActionRequest{Action: "approve"}, proc)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceApplyUnauthorized(t *testing.T) {
	svc, docs, _ := newDocumentServiceForTest(t)
	coordinator := claimsFor(testUsers()["u-coord"])

	created, err := svc.Create(context.Background(), dto.CreateDocumentRequest{
		ProjectID: "p-1",
		Title:     "Progress Report",
		Type:      "REPORT",
		Folder:    "EXECUTION",
		DueDate:   "2024-06-17",
	}, coordinator)
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingSignature, created.Status)

	hr := claimsFor(testUsers()["u-hr"])
	_, err = svc.ApplyAction(context.Background(), created.ID, dto.ActionRequest{Action: "sign"}, hr)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorizedAction.Code, appErrors.FromError(err).Code)

	// the stored document is untouched
	stored := docs.docs[created.ID]
	assert.Equal(t, models.StatusPendingSignature, stored.Status)
	assert.Equal(t, 1, stored.Version)
	assert.Len(t, stored.History, 1)
}

func TestDocumentServiceRejectBumpsVersion(t *testing.T) {
	svc, docs, _ := newDocumentServiceForTest(t)
	coordinator := claimsFor(testUsers()["u-coord"])

	created, err := svc.Create(context.Background(), dto.CreateDocumentRequest{
		ProjectID: "p-1",
		Title:     "Civil Works Contract",
		Type:      "CONTRACT",
		Folder:    "CONTRACTUAL_START",
		DueDate:   "2024-06-17",
	}, coordinator)
	require.NoError(t, err)

	legal := claimsFor(testUsers()["u-legal"])
	rejected, err := svc.ApplyAction(context.Background(), created.ID, dto.ActionRequest{
		Action: "reject",
		Reason: "missing signature",
	}, legal)
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, 2, rejected.Version)
	require.Len(t, rejected.History, 2)
	assert.Equal(t, "missing signature", rejected.History[1].Detail)
	assert.Equal(t, 2, docs.docs[created.ID].Version)
}

func TestDocumentServiceAddComment(t *testing.T) {
	svc, docs, audit := newDocumentServiceForTest(t)
	coordinator := claimsFor(testUsers()["u-coord"])

	created, err := svc.Create(context.Background(), dto.CreateDocumentRequest{
		ProjectID: "p-1",
		Title:     "Progress Report",
		Type:      "REPORT",
		Folder:    "EXECUTION",
		DueDate:   "2024-06-17",
	}, coordinator)
	require.NoError(t, err)

	resp, err := svc.AddComment(context.Background(), created.ID, dto.CommentRequest{Text: "please revise totals"}, coordinator)
	require.NoError(t, err)
	require.Len(t, resp.Comments, 1)
	assert.Equal(t, "please revise totals", resp.Comments[0].Text)
	assert.Equal(t, "Ana Coordinator", resp.Comments[0].UserName)

	// comment never touches workflow state
	stored := docs.docs[created.ID]
	assert.Equal(t, created.Status, stored.Status)
	assert.Equal(t, created.Version, stored.Version)
	require.Len(t, audit.entries, 2)
}

func TestDocumentServiceGetScopedToDepartment(t *testing.T) {
	svc, _, _ := newDocumentServiceForTest(t)
	coordinator := claimsFor(testUsers()["u-coord"])

	created, err := svc.Create(context.Background(), dto.CreateDocumentRequest{
		ProjectID: "p-1",
		Title:     "Civil Works Contract",
		Type:      "CONTRACT",
		Folder:    "CONTRACTUAL_START",
		DueDate:   "2024-06-17",
	}, coordinator)
	require.NoError(t, err)

	hr := claimsFor(testUsers()["u-hr"])
	_, err = svc.Get(context.Background(), created.ID, hr)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	legal := claimsFor(testUsers()["u-legal"])
	got, err := svc.Get(context.Background(), created.ID, legal)
	require.NoError(t, err)
	assert.True(t, got.Actionable)
}
