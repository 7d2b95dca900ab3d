package dto

import "github.com/noah-isme/docflow-api/internal/models"

// CreateRegisterRequest queues a document-register export.
type CreateRegisterRequest struct {
	Format    string  `json:"format" validate:"required,oneof=CSV PDF"`
	ProjectID *string `json:"project_id"`
}

// RegisterJobResponse reports an export job, with a signed download link
// once the file is ready.
type RegisterJobResponse struct {
	models.RegisterJob
	DownloadURL *string `json:"download_url,omitempty"`
}
