package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DocType is the declared type of a filed document.
type DocType string

const (
	DocTypeContract       DocType = "CONTRACT"
	DocTypeReport         DocType = "REPORT"
	DocTypeRequest        DocType = "REQUEST"
	DocTypeAct            DocType = "ACT"
	DocTypeFinanceSupport DocType = "FINANCE_SUPPORT"
	DocTypeOffer          DocType = "OFFER"
)

// KnownDocType reports whether t is one of the recognised document types.
func KnownDocType(t DocType) bool {
	switch t {
	case DocTypeContract, DocTypeReport, DocTypeRequest, DocTypeAct, DocTypeFinanceSupport, DocTypeOffer:
		return true
	}
	return false
}

// DocStatus is the workflow state of a document.
type DocStatus string

const (
	StatusDraft            DocStatus = "DRAFT"
	StatusInReviewLegal    DocStatus = "IN_REVIEW_LEGAL"
	StatusInReviewFinance  DocStatus = "IN_REVIEW_FINANCE"
	StatusInReviewHR       DocStatus = "IN_REVIEW_HR"
	StatusPendingSignature DocStatus = "PENDING_SIG"
	StatusSigned           DocStatus = "SIGNED"
	StatusRejected         DocStatus = "REJECTED"
	StatusArchived         DocStatus = "ARCHIVED"
)

// Statuses lists every workflow state, used for summary counts.
func Statuses() []DocStatus {
	return []DocStatus{
		StatusDraft,
		StatusInReviewLegal,
		StatusInReviewFinance,
		StatusInReviewHR,
		StatusPendingSignature,
		StatusSigned,
		StatusRejected,
		StatusArchived,
	}
}

// IsTerminal reports whether no further workflow action is defined for s.
func (s DocStatus) IsTerminal() bool {
	return s == StatusSigned || s == StatusArchived
}

// IsReview reports whether s is one of the department-review states.
func (s DocStatus) IsReview() bool {
	return s == StatusInReviewLegal || s == StatusInReviewFinance || s == StatusInReviewHR
}

// DocFolder is an informational lifecycle-phase grouping; it never affects
// workflow routing.
type DocFolder string

const (
	FolderPlanning         DocFolder = "PLANNING"
	FolderContractualStart DocFolder = "CONTRACTUAL_START"
	FolderExecution        DocFolder = "EXECUTION"
	FolderCloseout         DocFolder = "CLOSEOUT"
)

// KnownDocFolder reports whether f is one of the four lifecycle phases.
func KnownDocFolder(f DocFolder) bool {
	switch f {
	case FolderPlanning, FolderContractualStart, FolderExecution, FolderCloseout:
		return true
	}
	return false
}

// HistoryEvent is a single entry in a document's append-only audit trail.
// Detail carries the rejection reason on "Returned" events.
type HistoryEvent struct {
	Action string    `json:"action"`
	Date   time.Time `json:"date"`
	User   string    `json:"user"`
	Detail string    `json:"detail,omitempty"`
}

// HistoryLog is the ordered, append-only sequence of workflow events,
// persisted as a JSONB column.
type HistoryLog []HistoryEvent

// Value implements driver.Valuer.
func (h HistoryLog) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *HistoryLog) Scan(src interface{}) error {
	return scanJSON(src, h, "history")
}

// Comment is an informational remark on a document; it never affects state.
type Comment struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Text     string    `json:"text"`
	Date     time.Time `json:"date"`
}

// CommentList is the ordered, append-only list of remarks, persisted as a
// JSONB column.
type CommentList []Comment

// Value implements driver.Valuer.
func (c CommentList) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *CommentList) Scan(src interface{}) error {
	return scanJSON(src, c, "comments")
}

// Document is the central workflow entity. Status, AssignedDepartment,
// Version and History are only ever mutated through the workflow engine.
type Document struct {
	ID                 string      `db:"id" json:"id"`
	ProjectID          string      `db:"project_id" json:"project_id"`
	Title              string      `db:"title" json:"title"`
	Type               DocType     `db:"type" json:"type"`
	Folder             DocFolder   `db:"folder" json:"folder"`
	Status             DocStatus   `db:"status" json:"status"`
	Version            int         `db:"version" json:"version"`
	UploadedBy         string      `db:"uploaded_by" json:"uploaded_by"`
	UploadDate         time.Time   `db:"upload_date" json:"upload_date"`
	DueDate            time.Time   `db:"due_date" json:"due_date"`
	AssignedDepartment *Department `db:"assigned_department" json:"assigned_department,omitempty"`
	URL                string      `db:"url" json:"url"`
	History            HistoryLog  `db:"history" json:"history"`
	Comments           CommentList `db:"comments" json:"comments"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// Holder returns the department currently holding the document, or false
// when no further action is required.
func (d Document) Holder() (Department, bool) {
	if d.AssignedDepartment == nil {
		return "", false
	}
	return *d.AssignedDepartment, true
}

// Clone returns a deep copy so workflow transitions never alias the history
// or comment slices of the input record.
func (d Document) Clone() Document {
	out := d
	out.History = append(HistoryLog(nil), d.History...)
	out.Comments = append(CommentList(nil), d.Comments...)
	if d.AssignedDepartment != nil {
		dept := *d.AssignedDepartment
		out.AssignedDepartment = &dept
	}
	return out
}

// DocumentFilter captures filtering criteria for listing documents.
type DocumentFilter struct {
	ProjectID  string
	Status     *DocStatus
	Folder     *DocFolder
	Department *Department
	Search     string
	Page       int
	PageSize   int
}

func scanJSON(src, dest interface{}, label string) error {
	switch value := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(value) == 0 {
			return nil
		}
		return json.Unmarshal(value, dest)
	case string:
		if value == "" {
			return nil
		}
		return json.Unmarshal([]byte(value), dest)
	default:
		return fmt.Errorf("unsupported %s column type %T", label, src)
	}
}
