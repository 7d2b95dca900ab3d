package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/docflow-api/internal/models"
)

const registerJobColumns = `id, format, status, project_id, requested_by, file_path, error_text, created_at, completed_at`

// RegisterJobRepository persists asynchronous register-export jobs.
type RegisterJobRepository struct {
	db *sqlx.DB
}

// NewRegisterJobRepository constructs the repository.
func NewRegisterJobRepository(db *sqlx.DB) *RegisterJobRepository {
	return &RegisterJobRepository{db: db}
}

// Create inserts a new pending job row.
func (r *RegisterJobRepository) Create(ctx context.Context, job *models.RegisterJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.RegisterJobPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO register_jobs (id, format, status, project_id, requested_by, file_path, error_text, created_at, completed_at)
	VALUES (:id, :format, :status, :project_id, :requested_by, :file_path, :error_text, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create register job: %w", err)
	}
	return nil
}

// GetByID fetches a job by identifier.
func (r *RegisterJobRepository) GetByID(ctx context.Context, id string) (*models.RegisterJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM register_jobs WHERE id = $1 LIMIT 1`, registerJobColumns)
	var job models.RegisterJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get register job: %w", err)
	}
	return &job, nil
}

// MarkRunning flips a pending job to running.
func (r *RegisterJobRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE register_jobs SET status = $2 WHERE id = $1 AND status = $3`
	if _, err := r.db.ExecContext(ctx, query, id, models.RegisterJobRunning, models.RegisterJobPending); err != nil {
		return fmt.Errorf("mark register job running: %w", err)
	}
	return nil
}

// MarkCompleted records the export file location and completion time.
func (r *RegisterJobRepository) MarkCompleted(ctx context.Context, id, filePath string, completedAt time.Time) error {
	const query = `UPDATE register_jobs SET status = $2, file_path = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.RegisterJobCompleted, filePath, completedAt); err != nil {
		return fmt.Errorf("mark register job completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *RegisterJobRepository) MarkFailed(ctx context.Context, id, errorText string, completedAt time.Time) error {
	const query = `UPDATE register_jobs SET status = $2, error_text = $3, completed_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.RegisterJobFailed, errorText, completedAt); err != nil {
		return fmt.Errorf("mark register job failed: %w", err)
	}
	return nil
}

// ListByUser returns a user's export jobs, latest first.
func (r *RegisterJobRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.RegisterJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM register_jobs WHERE requested_by = $1 ORDER BY created_at DESC LIMIT %d`, registerJobColumns, limit)
	var jobs []models.RegisterJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID); err != nil {
		return nil, fmt.Errorf("list register jobs: %w", err)
	}
	return jobs, nil
}
