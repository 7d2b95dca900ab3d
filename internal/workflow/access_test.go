package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/docflow-api/internal/models"
)

func docInStatus(status models.DocStatus) models.Document {
	doc := models.Document{ID: "d1", Status: status}
	if dept, ok := HolderFor(status); ok {
		doc.AssignedDepartment = &dept
	}
	return doc
}

func TestCanView(t *testing.T) {
	legalDoc := docInStatus(models.StatusInReviewLegal)
	signedDoc := docInStatus(models.StatusSigned)

	assert.True(t, CanView(director, legalDoc))
	assert.True(t, CanView(director, signedDoc))

	coordinator := models.User{Role: models.RoleCoordinator, Department: models.DepartmentDirection}
	assert.True(t, CanView(coordinator, legalDoc))
	assert.True(t, CanView(coordinator, signedDoc))

	assert.True(t, CanView(legalReviewer, legalDoc))
	assert.False(t, CanView(hrReviewer, legalDoc))
	assert.False(t, CanView(legalReviewer, signedDoc))
}

func TestIsActionable(t *testing.T) {
	cases := []struct {
		name   string
		user   models.User
		status models.DocStatus
		want   bool
	}{
		{"legal reviewer in legal review", legalReviewer, models.StatusInReviewLegal, true},
		{"hr reviewer in legal review", hrReviewer, models.StatusInReviewLegal, false},
		{"director in legal review", director, models.StatusInReviewLegal, false},
		{"director pending signature", director, models.StatusPendingSignature, true},
		{"reviewer pending signature", legalReviewer, models.StatusPendingSignature, false},
		{"director on signed", director, models.StatusSigned, false},
		{"director on rejected", director, models.StatusRejected, false},
		{"director on draft", director, models.StatusDraft, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsActionable(tc.user, docInStatus(tc.status)))
		})
	}
}

func TestVisibilityAfterRouting(t *testing.T) {
	today := time.Now()
	doc := mustNewDocument(t, models.DocTypeOffer, today.AddDate(0, 0, 5), today)

	assert.True(t, IsActionable(procReviewer, doc))
	assert.True(t, CanView(procReviewer, doc))
	assert.False(t, IsActionable(legalReviewer, doc))
	assert.False(t, CanView(legalReviewer, doc))
}
