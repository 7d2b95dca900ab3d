package dto

import (
	"time"

	"github.com/noah-isme/docflow-api/internal/models"
)

// DashboardResponse is the personalised workload summary for one user.
type DashboardResponse struct {
	Queue        []DocumentResponse       `json:"queue"`
	StatusCounts map[models.DocStatus]int `json:"status_counts"`
	GeneratedAt  time.Time                `json:"generated_at"`
}

// DepartmentLoad is one row of the department workload monitor.
type DepartmentLoad struct {
	Department models.Department `json:"department"`
	Pending    int               `json:"pending"`
}

// DepartmentMonitorResponse lists pending work per department in a stable
// display order, including departments with nothing pending.
type DepartmentMonitorResponse struct {
	Departments []DepartmentLoad `json:"departments"`
	GeneratedAt time.Time        `json:"generated_at"`
}
