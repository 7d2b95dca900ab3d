package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/docflow-api/internal/models"
	appErrors "github.com/noah-isme/docflow-api/pkg/errors"
)

func TestRouteIsDeterministic(t *testing.T) {
	cases := []struct {
		docType    models.DocType
		wantStatus models.DocStatus
		wantDept   models.Department
	}{
		{models.DocTypeContract, models.StatusInReviewLegal, models.DepartmentLegal},
		{models.DocTypeOffer, models.StatusInReviewFinance, models.DepartmentProcurement},
		{models.DocTypeReport, models.StatusPendingSignature, models.DepartmentDirection},
		{models.DocTypeRequest, models.StatusPendingSignature, models.DepartmentDirection},
		{models.DocTypeAct, models.StatusPendingSignature, models.DepartmentDirection},
		{models.DocTypeFinanceSupport, models.StatusPendingSignature, models.DepartmentDirection},
	}
	for _, tc := range cases {
		t.Run(string(tc.docType), func(t *testing.T) {
			status, dept := Route(tc.docType)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantDept, dept)
		})
	}
}

func TestNewDocumentRoutesContract(t *testing.T) {
	today := time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC)
	doc, err := NewDocument(NewDocumentSpec{
		ID:         "d1",
		ProjectID:  "p1",
		Title:      "Civil Works Contract 001",
		Type:       models.DocTypeContract,
		Folder:     models.FolderContractualStart,
		UploadedBy: "Ana Coordinator",
		DueDate:    time.Date(2024, 5, 25, 0, 0, 0, 0, time.UTC),
	}, today)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInReviewLegal, doc.Status)
	require.NotNil(t, doc.AssignedDepartment)
	assert.Equal(t, models.DepartmentLegal, *doc.AssignedDepartment)
	assert.Equal(t, 1, doc.Version)
	require.Len(t, doc.History, 1)
	assert.Equal(t, ActionLabelFiled, doc.History[0].Action)
	assert.Equal(t, "Ana Coordinator", doc.History[0].User)
	assert.Equal(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), doc.History[0].Date)
}

func TestNewDocumentValidation(t *testing.T) {
	today := time.Now()
	base := NewDocumentSpec{
		ID:         "d1",
		ProjectID:  "p1",
		Title:      "Progress Report",
		Type:       models.DocTypeReport,
		Folder:     models.FolderExecution,
		UploadedBy: "Ana Coordinator",
		DueDate:    today.AddDate(0, 0, 5),
	}

	cases := []struct {
		name   string
		mutate func(*NewDocumentSpec)
	}{
		{"empty title", func(s *NewDocumentSpec) { s.Title = "   " }},
		{"missing project", func(s *NewDocumentSpec) { s.ProjectID = "" }},
		{"unknown type", func(s *NewDocumentSpec) { s.Type = "MEMO" }},
		{"unknown folder", func(s *NewDocumentSpec) { s.Folder = "MISC" }},
		{"zero due date", func(s *NewDocumentSpec) { s.DueDate = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := base
			tc.mutate(&spec)
			_, err := NewDocument(spec, today)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}
