package dto

import (
	"time"

	"github.com/noah-isme/docflow-api/internal/models"
)

// CreateDocumentRequest carries the payload for filing a new document.
type CreateDocumentRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Type      string `json:"type" validate:"required"`
	Folder    string `json:"folder" validate:"required"`
	DueDate   string `json:"due_date" validate:"required"`
	URL       string `json:"url"`
}

// ActionRequest applies a workflow action to a document.
type ActionRequest struct {
	Action string `json:"action" validate:"required,oneof=approve sign reject"`
	Reason string `json:"reason"`
}

// CommentRequest appends a remark to a document.
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// DocumentResponse is a document enriched with derived workflow fields.
type DocumentResponse struct {
	models.Document
	DaysLate            int  `json:"days_late"`
	DaysInCurrentStatus int  `json:"days_in_current_status"`
	Actionable          bool `json:"actionable"`
}

// DocumentQuery captures list filters from query parameters.
type DocumentQuery struct {
	ProjectID  string `form:"project_id"`
	Status     string `form:"status"`
	Folder     string `form:"folder"`
	Department string `form:"department"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// AttachmentResponse returns the stored attachment location with a
// time-limited download token.
type AttachmentResponse struct {
	DocumentID  string    `json:"document_id"`
	FileName    string    `json:"file_name"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
