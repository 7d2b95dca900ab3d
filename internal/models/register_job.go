package models

import "time"

// RegisterFormat selects the rendering of a document-register export.
type RegisterFormat string

const (
	RegisterFormatCSV RegisterFormat = "CSV"
	RegisterFormatPDF RegisterFormat = "PDF"
)

// RegisterJobStatus tracks asynchronous export progress.
type RegisterJobStatus string

const (
	RegisterJobPending   RegisterJobStatus = "PENDING"
	RegisterJobRunning   RegisterJobStatus = "RUNNING"
	RegisterJobCompleted RegisterJobStatus = "COMPLETED"
	RegisterJobFailed    RegisterJobStatus = "FAILED"
)

// RegisterJob records a queued document-register export.
type RegisterJob struct {
	ID          string            `db:"id" json:"id"`
	Format      RegisterFormat    `db:"format" json:"format"`
	Status      RegisterJobStatus `db:"status" json:"status"`
	ProjectID   *string           `db:"project_id" json:"project_id,omitempty"`
	RequestedBy string            `db:"requested_by" json:"requested_by"`
	FilePath    *string           `db:"file_path" json:"-"`
	ErrorText   *string           `db:"error_text" json:"error,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	CompletedAt *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
}
