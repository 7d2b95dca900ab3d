package workflow

import "github.com/noah-isme/docflow-api/internal/models"

// CanView reports whether the user may see the document at all. Directors
// and coordinators have full visibility; reviewers only see what currently
// sits in their own department's queue.
func CanView(user models.User, doc models.Document) bool {
	if user.Role == models.RoleDirector || user.Role == models.RoleCoordinator {
		return true
	}
	holder, ok := doc.Holder()
	return ok && holder == user.Department
}

// IsActionable reports whether the user is the valid actor for the
// document right now: a department member while the document is in that
// department's review, or a director while it awaits signature. Terminal
// and unassigned states are actionable by nobody.
//
// CanView and IsActionable are deliberately independent: a director can
// view a peer department's in-progress review without being able to act
// on it.
func IsActionable(user models.User, doc models.Document) bool {
	holder, ok := doc.Holder()
	if !ok {
		return false
	}
	if doc.Status.IsReview() {
		return holder == user.Department
	}
	if doc.Status == models.StatusPendingSignature {
		return user.Role == models.RoleDirector
	}
	return false
}
