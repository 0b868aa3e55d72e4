package leave

import (
	"context"
	"time"
)

// LeaveTypeRepository - interface for leave_types table
type LeaveTypeRepository interface {
	Create(ctx context.Context, leaveType LeaveType) (LeaveType, error)
	GetByCode(ctx context.Context, companyID, code string) (LeaveType, error)
	GetByCompanyID(ctx context.Context, companyID string) ([]LeaveType, error)
}

// LeaveBalanceRepository - interface for leave_balances table
type LeaveBalanceRepository interface {
	// Create fails with ErrConcurrentModification when another writer created
	// the same (employee, year) first
	Create(ctx context.Context, balance LeaveBalance) (LeaveBalance, error)
	GetByEmployeeAndYear(ctx context.Context, employeeID string, year int, companyID string) (LeaveBalance, error)
	// Update is conditional on balance.Version and bumps it
	Update(ctx context.Context, balance LeaveBalance) (LeaveBalance, error)
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string, companyID string) (LeaveRequest, error)
	// ListActiveOverlapping returns PENDING/APPROVED requests intersecting [from, to]
	ListActiveOverlapping(ctx context.Context, employeeID string, from, to time.Time, companyID string) ([]LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID string, year int, companyID string) ([]LeaveRequest, error)
	Update(ctx context.Context, request LeaveRequest) error
}
