package workflow

import (
	"time"

	"github.com/noah-isme/docflow-api/internal/models"
)

// DateOf truncates a timestamp to its calendar date in UTC. All due-date
// and lateness arithmetic works on whole days; time-of-day never matters.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// wholeDaysBetween returns the number of whole calendar days from earlier
// to later, negative when later precedes earlier.
func wholeDaysBetween(earlier, later time.Time) int {
	return int(DateOf(later).Sub(DateOf(earlier)).Hours() / 24)
}

// DaysLate returns how many whole calendar days the document's due date
// has passed without the document reaching a terminal resolved state.
// Never negative; always 0 once the document is signed or archived.
func DaysLate(doc models.Document, today time.Time) int {
	if doc.Status.IsTerminal() {
		return 0
	}
	late := wholeDaysBetween(doc.DueDate, today)
	if late < 0 {
		return 0
	}
	return late
}

// DaysInCurrentStatus returns the whole calendar days since the last
// history event, i.e. how long the document has sat in its current state.
func DaysInCurrentStatus(doc models.Document, today time.Time) int {
	if len(doc.History) == 0 {
		return 0
	}
	last := doc.History[len(doc.History)-1].Date
	days := wholeDaysBetween(last, today)
	if days < 0 {
		return 0
	}
	return days
}
