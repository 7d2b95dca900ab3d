package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/docflow-api/internal/models"
)

func TestDaysLate(t *testing.T) {
	today := time.Date(2024, 6, 10, 15, 45, 0, 0, time.UTC)

	cases := []struct {
		name   string
		due    time.Time
		status models.DocStatus
		want   int
	}{
		{"due tomorrow", today.AddDate(0, 0, 1), models.StatusPendingSignature, 0},
		{"due today", today, models.StatusPendingSignature, 0},
		{"one day late", today.AddDate(0, 0, -1), models.StatusInReviewLegal, 1},
		{"ten days late", today.AddDate(0, 0, -10), models.StatusRejected, 10},
		{"signed never late", today.AddDate(0, 0, -10), models.StatusSigned, 0},
		{"archived never late", today.AddDate(0, 0, -10), models.StatusArchived, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := models.Document{Status: tc.status, DueDate: tc.due}
			assert.Equal(t, tc.want, DaysLate(doc, today))
		})
	}
}

func TestDaysLateIgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2024, 6, 9, 23, 59, 0, 0, time.UTC)
	today := time.Date(2024, 6, 10, 0, 1, 0, 0, time.UTC)
	doc := models.Document{Status: models.StatusInReviewLegal, DueDate: due}
	assert.Equal(t, 1, DaysLate(doc, today))
}

func TestDaysInCurrentStatus(t *testing.T) {
	today := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	doc := models.Document{History: models.HistoryLog{
		{Action: ActionLabelFiled, Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Action: "Approved by Legal", Date: time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)},
	}}
	assert.Equal(t, 3, DaysInCurrentStatus(doc, today))

	empty := models.Document{}
	assert.Equal(t, 0, DaysInCurrentStatus(empty, today))

	futureEvent := models.Document{History: models.HistoryLog{
		{Action: ActionLabelFiled, Date: today.AddDate(0, 0, 2)},
	}}
	assert.Equal(t, 0, DaysInCurrentStatus(futureEvent, today))
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2024, 6, 10, 22, 13, 44, 123, time.FixedZone("X", -5*3600))
	got := DateOf(ts)
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), got)
}
