package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/docflow-api/internal/models"
)

func dashboardDoc(id string, status models.DocStatus, dept *models.Department) models.Document {
	return models.Document{
		ID:                 id,
		ProjectID:          "p-1",
		Title:              "Doc " + id,
		Status:             status,
		Version:            1,
		DueDate:            time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
		AssignedDepartment: dept,
		History:            models.HistoryLog{{Action: "Filed", Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}},
	}
}

func newDashboardServiceForTest() *DashboardService {
	legal := models.DepartmentLegal
	proc := models.DepartmentProcurement
	direction := models.DepartmentDirection

	docs := newStubDocumentStore()
	for _, doc := range []models.Document{
		dashboardDoc("d-1", models.StatusInReviewLegal, &legal),
		dashboardDoc("d-2", models.StatusInReviewLegal, &legal),
		dashboardDoc("d-3", models.StatusInReviewFinance, &proc),
		dashboardDoc("d-4", models.StatusPendingSignature, &direction),
		dashboardDoc("d-5", models.StatusRejected, nil),
	} {
		clone := doc.Clone()
		docs.docs[doc.ID] = &clone
	}

	users := &stubUserDirectory{users: testUsers()}
	svc := NewDashboardService(docs, users, nil, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestDashboardSummaryForReviewer(t *testing.T) {
	svc := newDashboardServiceForTest()

	resp, err := svc.Summary(context.Background(), claimsFor(testUsers()["u-legal"]))
	require.NoError(t, err)

	require.Len(t, resp.Queue, 2)
	for _, entry := range resp.Queue {
		assert.Equal(t, models.StatusInReviewLegal, entry.Status)
		assert.True(t, entry.Actionable)
	}
	// reviewers only see their own department's queue in the counts
	assert.Equal(t, 2, resp.StatusCounts[models.StatusInReviewLegal])
	assert.Equal(t, 0, resp.StatusCounts[models.StatusInReviewFinance])
}

func TestDashboardSummaryForDirector(t *testing.T) {
	svc := newDashboardServiceForTest()

	resp, err := svc.Summary(context.Background(), claimsFor(testUsers()["u-dir"]))
	require.NoError(t, err)

	require.Len(t, resp.Queue, 1)
	assert.Equal(t, models.StatusPendingSignature, resp.Queue[0].Status)

	assert.Equal(t, 2, resp.StatusCounts[models.StatusInReviewLegal])
	assert.Equal(t, 1, resp.StatusCounts[models.StatusInReviewFinance])
	assert.Equal(t, 1, resp.StatusCounts[models.StatusPendingSignature])
	assert.Equal(t, 1, resp.StatusCounts[models.StatusRejected])
}

func TestDepartmentMonitorStableOrder(t *testing.T) {
	svc := newDashboardServiceForTest()

	resp, err := svc.DepartmentMonitor(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, resp.Departments, 4)
	assert.Equal(t, models.DepartmentLegal, resp.Departments[0].Department)
	assert.Equal(t, 2, resp.Departments[0].Pending)
	assert.Equal(t, models.DepartmentProcurement, resp.Departments[1].Department)
	assert.Equal(t, 1, resp.Departments[1].Pending)
	assert.Equal(t, models.DepartmentHumanResources, resp.Departments[2].Department)
	assert.Equal(t, 0, resp.Departments[2].Pending)
	assert.Equal(t, models.DepartmentDirection, resp.Departments[3].Department)
	assert.Equal(t, 1, resp.Departments[3].Pending)
}

func TestDepartmentMonitorWithStatusFilter(t *testing.T) {
	svc := newDashboardServiceForTest()

	pending := models.StatusPendingSignature
	resp, err := svc.DepartmentMonitor(context.Background(), &pending)
	require.NoError(t, err)

	byDept := make(map[models.Department]int, len(resp.Departments))
	for _, load := range resp.Departments {
		byDept[load.Department] = load.Pending
	}
	assert.Equal(t, 1, byDept[models.DepartmentDirection])
	assert.Equal(t, 0, byDept[models.DepartmentLegal])
}
