package employee

import (
	"time"
)

// Employee is the read model the payroll engine needs from the directory.
type Employee struct {
	ID               string
	CompanyID        string
	EmployeeCode     string
	FullName         string
	EmploymentStatus EmploymentStatus
	HireDate         time.Time
	ResignationDate  *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}

// EmployedDuring reports whether the employee was on the books for any day of [from, to].
func (e Employee) EmployedDuring(from, to time.Time) bool {
	if e.HireDate.After(to) {
		return false
	}
	return e.ResignationDate == nil || !e.ResignationDate.Before(from)
}
