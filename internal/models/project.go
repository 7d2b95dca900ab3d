package models

import "time"

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive ProjectStatus = "ACTIVE"
	ProjectClosed ProjectStatus = "CLOSED"
	ProjectPaused ProjectStatus = "PAUSED"
)

// Project is a read-only registry record; the workflow never mutates it.
type Project struct {
	ID           string        `db:"id" json:"id"`
	Code         string        `db:"code" json:"code"`
	Name         string        `db:"name" json:"name"`
	Description  string        `db:"description" json:"description"`
	Status       ProjectStatus `db:"status" json:"status"`
	Progress     int           `db:"progress" json:"progress"`
	Department   Department    `db:"department" json:"department"`
	DashboardURL *string       `db:"dashboard_url" json:"dashboard_url,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// ProjectFilter captures filtering criteria for listing projects.
type ProjectFilter struct {
	Status   *ProjectStatus
	Search   string
	Page     int
	PageSize int
}
