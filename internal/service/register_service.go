package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/docflow-api/internal/dto"
	"github.com/noah-isme/docflow-api/internal/models"
	"github.com/noah-isme/docflow-api/internal/workflow"
	appErrors "github.com/noah-isme/docflow-api/pkg/errors"
	"github.com/noah-isme/docflow-api/pkg/export"
	"github.com/noah-isme/docflow-api/pkg/jobs"
)

type registerJobStore interface {
	Create(ctx context.Context, job *models.RegisterJob) error
	GetByID(ctx context.Context, id string) (*models.RegisterJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id, errorText string, completedAt time.Time) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.RegisterJob, error)
}

type registerDocumentStore interface {
	ListAll(ctx context.Context, projectID *string) ([]models.Document, error)
}

var registerHeaders = []string{"ID", "Project", "Title", "Type", "Folder", "Status", "Version", "Department", "Due Date", "Days Late"}

// RegisterService produces document-register exports asynchronously. The
// request only records a pending job; a worker pool renders the file and
// flips the job state, and the client polls then downloads via a signed
// link.
type RegisterService struct {
	jobsRepo  registerJobStore
	docs      registerDocumentStore
	audit     auditRecorder
	storage   attachmentStorage
	signer    attachmentSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegisterService constructs the service. Call StartWorkers before
// enqueueing exports.
func NewRegisterService(
	jobsRepo registerJobStore,
	docs registerDocumentStore,
	audit auditRecorder,
	store attachmentStorage,
	signer attachmentSigner,
	validate *validator.Validate,
	logger *zap.Logger,
	queueCfg jobs.QueueConfig,
) *RegisterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	svc := &RegisterService{
		jobsRepo:  jobsRepo,
		docs:      docs,
		audit:     audit,
		storage:   store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if queueCfg.Logger == nil {
		queueCfg.Logger = logger
	}
	svc.queue = jobs.NewQueue("register-exports", svc.process, queueCfg)
	return svc
}

// StartWorkers begins background processing.
func (s *RegisterService) StartWorkers(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopWorkers drains the worker pool.
func (s *RegisterService) StopWorkers() {
	s.queue.Stop()
}

// Request queues a new export job.
func (s *RegisterService) Request(ctx context.Context, req dto.CreateRegisterRequest, actor *models.JWTClaims) (*dto.RegisterJobResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	job := &models.RegisterJob{
		ID:          uuid.NewString(),
		Format:      models.RegisterFormat(req.Format),
		Status:      models.RegisterJobPending,
		ProjectID:   req.ProjectID,
		RequestedBy: actor.UserID,
		CreatedAt:   s.now(),
	}
	if err := s.jobsRepo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "register-export", Payload: job.ID}); err != nil {
		s.logger.Error("failed to enqueue register export", zap.String("job_id", job.ID), zap.Error(err))
		if markErr := s.jobsRepo.MarkFailed(ctx, job.ID, "worker queue unavailable", s.now()); markErr != nil {
			s.logger.Warn("failed to mark job failed", zap.Error(markErr))
		}
		return nil, appErrors.Clone(appErrors.ErrInternal, "export workers are unavailable")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionRegisterExport,
			Resource:   "register",
			ResourceID: &job.ID,
			NewValues:  []byte(fmt.Sprintf(`{"format":%q}`, job.Format)),
		}); err != nil {
			s.logger.Warn("failed to record export audit log", zap.Error(err))
		}
	}

	return &dto.RegisterJobResponse{RegisterJob: *job}, nil
}

// Status returns the job state, including a signed download link once the
// export is complete. Jobs are only visible to their requester.
func (s *RegisterService) Status(ctx context.Context, jobID string, actor *models.JWTClaims) (*dto.RegisterJobResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.RequestedBy != actor.UserID && actor.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export belongs to another user")
	}

	resp := &dto.RegisterJobResponse{RegisterJob: *job}
	if job.Status == models.RegisterJobCompleted && job.FilePath != nil && s.signer != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign export link", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			resp.DownloadURL = &token
		}
	}
	return resp, nil
}

// ListMine returns the actor's recent export jobs.
func (s *RegisterService) ListMine(ctx context.Context, actor *models.JWTClaims, limit int) ([]dto.RegisterJobResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	entries, err := s.jobsRepo.ListByUser(ctx, actor.UserID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export jobs")
	}
	responses := make([]dto.RegisterJobResponse, 0, len(entries))
	for _, job := range entries {
		responses = append(responses, dto.RegisterJobResponse{RegisterJob: job})
	}
	return responses, nil
}

// ResolveDownload validates a signed token and returns the absolute file
// path for streaming.
func (s *RegisterService) ResolveDownload(token string) (string, error) {
	if s.signer == nil || s.storage == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "export storage is not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	return s.storage.Path(relPath), nil
}

func (s *RegisterService) process(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok || jobID == "" {
		return fmt.Errorf("register job payload missing id")
	}

	record, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load register job %s: %w", jobID, err)
	}
	if err := s.jobsRepo.MarkRunning(ctx, record.ID); err != nil {
		s.logger.Warn("failed to mark export running", zap.String("job_id", record.ID), zap.Error(err))
	}

	relPath, renderErr := s.render(ctx, record)
	if renderErr != nil {
		if err := s.jobsRepo.MarkFailed(ctx, record.ID, renderErr.Error(), s.now()); err != nil {
			s.logger.Warn("failed to mark export failed", zap.String("job_id", record.ID), zap.Error(err))
		}
		return renderErr
	}

	if err := s.jobsRepo.MarkCompleted(ctx, record.ID, relPath, s.now()); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	s.logger.Info("register export completed", zap.String("job_id", record.ID), zap.String("file", relPath))
	return nil
}

func (s *RegisterService) render(ctx context.Context, job *models.RegisterJob) (string, error) {
	docs, err := s.docs.ListAll(ctx, job.ProjectID)
	if err != nil {
		return "", fmt.Errorf("load documents for export: %w", err)
	}

	dataset := s.dataset(docs)
	var (
		payload []byte
		ext     string
	)
	switch job.Format {
	case models.RegisterFormatPDF:
		payload, err = s.pdf.Render(dataset, "Document Register")
		ext = "pdf"
	default:
		payload, err = s.csv.Render(dataset)
		ext = "csv"
	}
	if err != nil {
		return "", fmt.Errorf("render register: %w", err)
	}

	relPath := path.Join("registers", fmt.Sprintf("%s.%s", job.ID, ext))
	if _, err := s.storage.Save(relPath, payload); err != nil {
		return "", fmt.Errorf("store register file: %w", err)
	}
	return relPath, nil
}

func (s *RegisterService) dataset(docs []models.Document) export.Dataset {
	today := s.now()
	rows := make([]map[string]string, 0, len(docs))
	for _, doc := range docs {
		dept := ""
		if doc.AssignedDepartment != nil {
			dept = string(*doc.AssignedDepartment)
		}
		rows = append(rows, map[string]string{
			"ID":         doc.ID,
			"Project":    doc.ProjectID,
			"Title":      doc.Title,
			"Type":       string(doc.Type),
			"Folder":     string(doc.Folder),
			"Status":     string(doc.Status),
			"Version":    strconv.Itoa(doc.Version),
			"Department": dept,
			"Due Date":   doc.DueDate.Format("2006-01-02"),
			"Days Late":  strconv.Itoa(workflow.DaysLate(doc, today)),
		})
	}
	return export.Dataset{Headers: registerHeaders, Rows: rows}
}
