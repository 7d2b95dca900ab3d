// Package workflow implements the document lifecycle engine: routing of
// newly filed documents, the access policy, the state machine applying
// sign/approve/reject actions, and read-only aggregation over document
// sets. Everything here is a pure function of its inputs; persistence and
// transport live in the service and repository layers.
package workflow

import (
	"strings"
	"time"

	"github.com/noah-isme/docflow-api/internal/models"
	appErrors "github.com/noah-isme/docflow-api/pkg/errors"
)

// Route returns the initial status and owning department for a freshly
// filed document of the given type. This table is the single source of
// truth for where a new document goes: contracts clear legal review,
// supplier offers clear financial review, everything else goes straight
// to final sign-off.
func Route(docType models.DocType) (models.DocStatus, models.Department) {
	switch docType {
	case models.DocTypeContract:
		return models.StatusInReviewLegal, models.DepartmentLegal
	case models.DocTypeOffer:
		return models.StatusInReviewFinance, models.DepartmentProcurement
	default:
		return models.StatusPendingSignature, models.DepartmentDirection
	}
}

// NewDocumentSpec carries the caller-supplied fields for filing a document.
// Project resolution happens in the service layer; everything checked here
// is a pure property of the spec itself.
type NewDocumentSpec struct {
	ID         string
	ProjectID  string
	Title      string
	Type       models.DocType
	Folder     models.DocFolder
	UploadedBy string
	DueDate    time.Time
	URL        string
}

// NewDocument validates the spec, routes the document per its type and
// returns the initial record: version 1, status and department from the
// routing table, and a single "Filed" history event.
func NewDocument(spec NewDocumentSpec, today time.Time) (models.Document, error) {
	if strings.TrimSpace(spec.Title) == "" {
		return models.Document{}, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if strings.TrimSpace(spec.ProjectID) == "" {
		return models.Document{}, appErrors.Clone(appErrors.ErrValidation, "project reference is required")
	}
	if !models.KnownDocType(spec.Type) {
		return models.Document{}, appErrors.Clone(appErrors.ErrValidation, "unrecognised document type")
	}
	if !models.KnownDocFolder(spec.Folder) {
		return models.Document{}, appErrors.Clone(appErrors.ErrValidation, "unrecognised folder")
	}
	if spec.DueDate.IsZero() {
		return models.Document{}, appErrors.Clone(appErrors.ErrValidation, "due date is required")
	}

	status, department := Route(spec.Type)
	day := DateOf(today)

	return models.Document{
		ID:                 spec.ID,
		ProjectID:          spec.ProjectID,
		Title:              strings.TrimSpace(spec.Title),
		Type:               spec.Type,
		Folder:             spec.Folder,
		Status:             status,
		Version:            1,
		UploadedBy:         spec.UploadedBy,
		UploadDate:         day,
		DueDate:            DateOf(spec.DueDate),
		AssignedDepartment: &department,
		URL:                spec.URL,
		History: models.HistoryLog{
			{Action: ActionLabelFiled, Date: day, User: spec.UploadedBy},
		},
	}, nil
}
