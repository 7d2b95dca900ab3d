package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/docflow-api/internal/models"
	appErrors "github.com/noah-isme/docflow-api/pkg/errors"
)

// Action is a workflow verb a user can apply to a document.
type Action string

const (
	ActionApprove Action = "approve"
	ActionSign    Action = "sign"
	ActionReject  Action = "reject"
)

// History action labels written by the engine.
const (
	ActionLabelFiled    = "Filed"
	ActionLabelSigned   = "Signed"
	ActionLabelReturned = "Returned"
)

// reviewHolder maps each non-terminal active status to the single
// department allowed to hold a document in that status. The engine is the
// only code path that writes the (status, department) pair, so checking
// here keeps invalid combinations from ever being constructed.
var reviewHolder = map[models.DocStatus]models.Department{
	models.StatusInReviewLegal:    models.DepartmentLegal,
	models.StatusInReviewFinance:  models.DepartmentProcurement,
	models.StatusInReviewHR:       models.DepartmentHumanResources,
	models.StatusPendingSignature: models.DepartmentDirection,
}

// HolderFor returns the department that owns documents in the given
// status, per the routing table.
func HolderFor(status models.DocStatus) (models.Department, bool) {
	dept, ok := reviewHolder[status]
	return dept, ok
}

// Apply runs a single workflow transition and returns the updated
// document. The input document is never mutated: history is copied on
// append and all changes land on a fresh record. Errors follow the
// lifecycle taxonomy: ErrInvalidTransition when the action is not defined
// for the current status, ErrUnauthorizedAction when the actor fails the
// access policy, ErrValidation for a missing rejection reason.
func Apply(doc models.Document, actor models.User, action Action, detail string, today time.Time) (models.Document, error) {
	if doc.Status.IsTerminal() {
		return models.Document{}, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("document is already %s", strings.ToLower(string(doc.Status))))
	}

	switch action {
	case ActionApprove:
		return applyApprove(doc, actor, today)
	case ActionSign:
		return applySign(doc, actor, today)
	case ActionReject:
		return applyReject(doc, actor, detail, today)
	default:
		return models.Document{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("unsupported action %q", action))
	}
}

func applyApprove(doc models.Document, actor models.User, today time.Time) (models.Document, error) {
	if !doc.Status.IsReview() {
		return models.Document{}, invalidFor(doc, ActionApprove)
	}
	if err := requireActionable(actor, doc); err != nil {
		return models.Document{}, err
	}

	holder, _ := doc.Holder()
	next := doc.Clone()
	next.Status = models.StatusPendingSignature
	direction := models.DepartmentDirection
	next.AssignedDepartment = &direction
	appendHistory(&next, models.HistoryEvent{
		Action: fmt.Sprintf("Approved by %s", holder),
		Date:   DateOf(today),
		User:   actor.FullName,
	})
	return next, nil
}

func applySign(doc models.Document, actor models.User, today time.Time) (models.Document, error) {
	if doc.Status != models.StatusPendingSignature {
		return models.Document{}, invalidFor(doc, ActionSign)
	}
	if err := requireActionable(actor, doc); err != nil {
		return models.Document{}, err
	}

	next := doc.Clone()
	next.Status = models.StatusSigned
	next.AssignedDepartment = nil
	appendHistory(&next, models.HistoryEvent{
		Action: ActionLabelSigned,
		Date:   DateOf(today),
		User:   actor.FullName,
	})
	return next, nil
}

func applyReject(doc models.Document, actor models.User, reason string, today time.Time) (models.Document, error) {
	if !doc.Status.IsReview() && doc.Status != models.StatusPendingSignature {
		return models.Document{}, invalidFor(doc, ActionReject)
	}
	if err := requireActionable(actor, doc); err != nil {
		return models.Document{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return models.Document{}, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}

	next := doc.Clone()
	next.Status = models.StatusRejected
	next.AssignedDepartment = nil
	next.Version = doc.Version + 1
	appendHistory(&next, models.HistoryEvent{
		Action: ActionLabelReturned,
		Date:   DateOf(today),
		User:   actor.FullName,
		Detail: reason,
	})
	return next, nil
}

func invalidFor(doc models.Document, action Action) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrInvalidTransition,
		fmt.Sprintf("cannot %s a document in %s", action, doc.Status))
}

func requireActionable(actor models.User, doc models.Document) error {
	if holder, ok := doc.Holder(); ok {
		if want, known := reviewHolder[doc.Status]; known && holder != want {
			return appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("document in %s is held by %s, expected %s", doc.Status, holder, want))
		}
	}
	if !IsActionable(actor, doc) {
		return appErrors.Clone(appErrors.ErrUnauthorizedAction,
			fmt.Sprintf("%s may not act on a document in %s", actor.FullName, doc.Status))
	}
	return nil
}

func appendHistory(doc *models.Document, event models.HistoryEvent) {
	doc.History = append(doc.History, event)
}
