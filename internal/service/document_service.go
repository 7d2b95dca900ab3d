package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/docflow-api/internal/dto"
	"github.com/noah-isme/docflow-api/internal/models"
	"github.com/noah-isme/docflow-api/internal/workflow"
	appErrors "github.com/noah-isme/docflow-api/pkg/errors"
)

type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	ListActive(ctx context.Context) ([]models.Document, error)
	UpdateWithVersion(ctx context.Context, doc *models.Document, prevVersion int, prevStatus models.DocStatus) error
	AppendComment(ctx context.Context, id string, comments models.CommentList) error
	UpdateURL(ctx context.Context, id, url string) error
}

type projectStore interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type attachmentStorage interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

type attachmentSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (resourceID, relPath string, expiresAt time.Time, err error)
}

// DocumentService orchestrates the document lifecycle: filing, workflow
// actions, comments and attachments. All state machine decisions are
// delegated to the workflow package; this layer adds persistence,
// authorization lookups, auditing and cache invalidation.
type DocumentService struct {
	repo      documentStore
	projects  projectStore
	users     userDirectory
	audit     auditRecorder
	cache     *CacheService
	metrics   *MetricsService
	storage   attachmentStorage
	signer    attachmentSigner
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewDocumentService constructs the service with defaults.
func NewDocumentService(
	repo documentStore,
	projects projectStore,
	users userDirectory,
	audit auditRecorder,
	cache *CacheService,
	metrics *MetricsService,
	store attachmentStorage,
	signer attachmentSigner,
	validate *validator.Validate,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DocumentService{
		repo:      repo,
		projects:  projects,
		users:     users,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		storage:   store,
		signer:    signer,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create files a new document: the routing table decides its initial
// status and owning department.
func (s *DocumentService) Create(ctx context.Context, req dto.CreateDocumentRequest, actor *models.JWTClaims) (*dto.DocumentResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due_date must be an ISO date")
	}

	if _, err := s.projects.GetByID(ctx, req.ProjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve project")
	}

	doc, err := workflow.NewDocument(workflow.NewDocumentSpec{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		Title:      req.Title,
		Type:       models.DocType(req.Type),
		Folder:     models.DocFolder(req.Folder),
		UploadedBy: actor.FullName,
		DueDate:    dueDate,
		URL:        req.URL,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist document")
	}

	s.emitAudit(ctx, actor, models.AuditActionDocumentCreate, doc.ID, map[string]interface{}{
		"status": doc.Status,
		"type":   doc.Type,
	})
	s.invalidateDashboards(ctx)

	user, err := s.resolveActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(doc, user)
	return &resp, nil
}

// Get returns a single document if the actor may view it.
func (s *DocumentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.DocumentResponse, error) {
	user, err := s.resolveActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	doc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if !workflow.CanView(*user, *doc) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "document is outside your department's queue")
	}

	resp := s.toResponse(*doc, user)
	return &resp, nil
}

// List returns documents visible to the actor. Reviewers are scoped to
// their own department's queue regardless of the requested filter.
func (s *DocumentService) List(ctx context.Context, query dto.DocumentQuery, actor *models.JWTClaims) ([]dto.DocumentResponse, *models.Pagination, error) {
	user, err := s.resolveActor(ctx, actor)
	if err != nil {
		return nil, nil, err
	}

	filter := models.DocumentFilter{
		ProjectID: query.ProjectID,
		Search:    query.Search,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.Status != "" {
		status := models.DocStatus(query.Status)
		filter.Status = &status
	}
	if query.Folder != "" {
		folder := models.DocFolder(query.Folder)
		filter.Folder = &folder
	}
	if query.Department != "" {
		dept := models.Department(query.Department)
		filter.Department = &dept
	}
	if user.Role == models.RoleReviewer {
		dept := user.Department
		filter.Department = &dept
	}

	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}

	responses := make([]dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, s.toResponse(doc, user))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return responses, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ApplyAction runs a workflow transition against the stored document. The
// update is guarded by the previous (version, status) pair; losing the
// race surfaces as a conflict so the client can re-read and retry.
func (s *DocumentService) ApplyAction(ctx context.Context, id string, req dto.ActionRequest, actor *models.JWTClaims) (*dto.DocumentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid action payload")
	}

	user, err := s.resolveActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	doc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := workflow.Apply(*doc, *user, workflow.Action(req.Action), req.Reason, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateWithVersion(ctx, &next, doc.Version, doc.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "document was modified concurrently, re-read and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist transition")
	}

	if s.metrics != nil {
		s.metrics.ObserveTransition(req.Action, next.Status)
	}
	s.emitAudit(ctx, actor, models.AuditActionDocumentApply, doc.ID, map[string]interface{}{
		"action": req.Action,
		"from":   doc.Status,
		"to":     next.Status,
	})
	s.invalidateDashboards(ctx)

	resp := s.toResponse(next, user)
	return &resp, nil
}

// AddComment appends a remark; it never changes workflow state.
func (s *DocumentService) AddComment(ctx context.Context, id string, req dto.CommentRequest, actor *models.JWTClaims) (*dto.DocumentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	user, err := s.resolveActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	doc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanView(*user, *doc) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "document is outside your department's queue")
	}

	next := doc.Clone()
	next.Comments = append(next.Comments, models.Comment{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		UserName: user.FullName,
		Text:     strings.TrimSpace(req.Text),
		Date:     s.now(),
	})
	if err := s.repo.AppendComment(ctx, id, next.Comments); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist comment")
	}

	s.emitAudit(ctx, actor, models.AuditActionDocumentComment, id, nil)

	resp := s.toResponse(next, user)
	return &resp, nil
}

// Attach stores an uploaded file and returns a signed download link.
func (s *DocumentService) Attach(ctx context.Context, id, fileName string, data []byte, actor *models.JWTClaims) (*dto.AttachmentResponse, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "attachment storage is not configured")
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attachment payload is empty")
	}

	user, err := s.resolveActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	doc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanView(*user, *doc) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "document is outside your department's queue")
	}

	relPath := path.Join("attachments", doc.ID, path.Base(fileName))
	if _, err := s.storage.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
	}
	if err := s.repo.UpdateURL(ctx, doc.ID, relPath); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attachment")
	}

	token, expiresAt, err := s.signer.Generate(doc.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.emitAudit(ctx, actor, models.AuditActionDocumentAttach, doc.ID, map[string]interface{}{"file": path.Base(fileName)})

	return &dto.AttachmentResponse{
		DocumentID:  doc.ID,
		FileName:    path.Base(fileName),
		DownloadURL: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// ResolveDownload validates a signed token and returns the absolute file
// path for streaming.
func (s *DocumentService) ResolveDownload(token string) (string, error) {
	if s.signer == nil || s.storage == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "attachment storage is not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	return s.storage.Path(relPath), nil
}

func (s *DocumentService) fetch(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

func (s *DocumentService) resolveActor(ctx context.Context, actor *models.JWTClaims) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	return user, nil
}

func (s *DocumentService) toResponse(doc models.Document, user *models.User) dto.DocumentResponse {
	today := s.now()
	resp := dto.DocumentResponse{
		Document:            doc,
		DaysLate:            workflow.DaysLate(doc, today),
		DaysInCurrentStatus: workflow.DaysInCurrentStatus(doc, today),
	}
	if user != nil {
		resp.Actionable = workflow.IsActionable(*user, doc)
	}
	return resp
}

func (s *DocumentService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, resourceID string, values map[string]interface{}) {
	if s.audit == nil || actor == nil {
		return
	}
	var payload []byte
	if values != nil {
		payload, _ = json.Marshal(values)
	}
	entry := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "document",
		ResourceID: &resourceID,
		NewValues:  payload,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *DocumentService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
