package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/docflow-api/internal/models"
)

const documentColumns = `id, project_id, title, type, folder, status, version, uploaded_by,
       upload_date, due_date, assigned_department, url, history, comments, created_at, updated_at`

// DocumentRepository persists workflow documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a freshly routed document row.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	const query = `INSERT INTO documents
	(id, project_id, title, type, folder, status, version, uploaded_by, upload_date, due_date, assigned_department, url, history, comments, created_at, updated_at)
	VALUES (:id, :project_id, :title, :type, :folder, :status, :version, :uploaded_by, :upload_date, :due_date, :assigned_department, :url, :history, :comments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetByID fetches a document by identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1 LIMIT 1`, documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// List returns documents matching the filter with a total count.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	baseQuery := `FROM documents WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ProjectID != "" {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)+1))
		args = append(args, filter.ProjectID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Folder != nil {
		conditions = append(conditions, fmt.Sprintf("folder = $%d", len(args)+1))
		args = append(args, *filter.Folder)
	}
	if filter.Department != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_department = $%d", len(args)+1))
		args = append(args, *filter.Department)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY upload_date DESC, id LIMIT %d OFFSET %d",
		documentColumns, baseQuery, pageSize, offset)

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	return docs, total, nil
}

// ListActive returns every document not yet signed or archived. The
// dashboard and register exports work over this set.
func (r *DocumentRepository) ListActive(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE status NOT IN ($1, $2) ORDER BY upload_date DESC, id`, documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, models.StatusSigned, models.StatusArchived); err != nil {
		return nil, fmt.Errorf("list active documents: %w", err)
	}
	return docs, nil
}

// ListAll returns the complete document set, optionally scoped to a project.
func (r *DocumentRepository) ListAll(ctx context.Context, projectID *string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents`, documentColumns)
	var args []interface{}
	if projectID != nil {
		query += " WHERE project_id = $1"
		args = append(args, *projectID)
	}
	query += " ORDER BY upload_date DESC, id"

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, fmt.Errorf("list all documents: %w", err)
	}
	return docs, nil
}

// UpdateWithVersion persists the outcome of a workflow transition guarded
// by the record's previous version and status. The version alone is not a
// sufficient guard because approve and sign do not bump it, so both
// columns anchor the optimistic check. Zero rows affected means a
// concurrent writer won; the caller maps sql.ErrNoRows to a conflict.
func (r *DocumentRepository) UpdateWithVersion(ctx context.Context, doc *models.Document, prevVersion int, prevStatus models.DocStatus) error {
	doc.UpdatedAt = time.Now().UTC()

	const query = `UPDATE documents SET
		status = :status,
		version = :version,
		assigned_department = :assigned_department,
		history = :history,
		comments = :comments,
		updated_at = :updated_at
	WHERE id = :id AND version = :prev_version AND status = :prev_status`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                  doc.ID,
		"status":              doc.Status,
		"version":             doc.Version,
		"assigned_department": doc.AssignedDepartment,
		"history":             doc.History,
		"comments":            doc.Comments,
		"updated_at":          doc.UpdatedAt,
		"prev_version":        prevVersion,
		"prev_status":         prevStatus,
	})
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check document update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendComment persists a new comment list for the document.
func (r *DocumentRepository) AppendComment(ctx context.Context, id string, comments models.CommentList) error {
	const query = `UPDATE documents SET comments = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, comments, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check comment update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateURL stores the attachment location for the document.
func (r *DocumentRepository) UpdateURL(ctx context.Context, id, url string) error {
	const query = `UPDATE documents SET url = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, url, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document url: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check url update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
