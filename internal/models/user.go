package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleDirector    UserRole = "DIRECTOR"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleReviewer    UserRole = "REVIEWER"
)

// Department is an organizational unit that can hold a document for review
// or signature.
type Department string

const (
	DepartmentLegal          Department = "Legal"
	DepartmentProcurement    Department = "Procurement"
	DepartmentHumanResources Department = "Human Resources"
	DepartmentDirection      Department = "Direction"
)

// Departments lists every unit that can hold a document, in monitor order.
func Departments() []Department {
	return []Department{
		DepartmentLegal,
		DepartmentProcurement,
		DepartmentHumanResources,
		DepartmentDirection,
	}
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Department   Department `db:"department" json:"department"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
