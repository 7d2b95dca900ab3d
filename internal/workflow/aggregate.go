package workflow

import "github.com/noah-isme/docflow-api/internal/models"

// Queue returns the documents the user is currently the valid actor for.
// The input slice is never modified.
func Queue(user models.User, docs []models.Document) []models.Document {
	queue := make([]models.Document, 0)
	for _, doc := range docs {
		if IsActionable(user, doc) {
			queue = append(queue, doc)
		}
	}
	return queue
}

// Visible filters the document set down to what the user may see.
func Visible(user models.User, docs []models.Document) []models.Document {
	visible := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if CanView(user, doc) {
			visible = append(visible, doc)
		}
	}
	return visible
}

// CountByStatus returns the status distribution of the document set.
func CountByStatus(docs []models.Document) map[models.DocStatus]int {
	counts := make(map[models.DocStatus]int, len(models.Statuses()))
	for _, doc := range docs {
		counts[doc.Status]++
	}
	return counts
}

// CountByDepartment returns, for each department, how many documents
// currently sit in its queue. When statusFilter is non-nil only documents
// in that status are counted.
func CountByDepartment(docs []models.Document, statusFilter *models.DocStatus) map[models.Department]int {
	counts := make(map[models.Department]int)
	for _, doc := range docs {
		holder, ok := doc.Holder()
		if !ok {
			continue
		}
		if statusFilter != nil && doc.Status != *statusFilter {
			continue
		}
		counts[holder]++
	}
	return counts
}
