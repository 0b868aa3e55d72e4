package payroll

import (
	"context"
	"time"
)

// PayrollService - the payroll aggregator and its approval workflow
type PayrollService interface {
	CalculatePayroll(ctx context.Context, companyID, employeeID string, month time.Month, year int) (PayrollRecord, error)
	BulkCalculatePayroll(ctx context.Context, companyID string, req BulkCalculateRequest) (BulkResult, error)

	SubmitPayroll(ctx context.Context, companyID, recordID, actorID string) (PayrollRecord, error)
	ApprovePayroll(ctx context.Context, companyID, recordID, approverID string) (PayrollRecord, error)
	RejectPayroll(ctx context.Context, companyID, recordID, approverID, reason string) (PayrollRecord, error)
	ProcessPayroll(ctx context.Context, companyID, recordID, actorID string) (PayrollRecord, error)
	// RevisePayroll supersedes an APPROVED record with a fresh DRAFT
	RevisePayroll(ctx context.Context, companyID, recordID, actorID, reason string) (PayrollRecord, error)

	AddAdjustment(ctx context.Context, companyID, actorID string, req AddAdjustmentRequest) (Adjustment, error)
	ListAdjustments(ctx context.Context, companyID, employeeID string, month time.Month, year int) ([]Adjustment, error)

	GetPayrollRecord(ctx context.Context, companyID, id string) (PayrollRecord, error)
	ListPayrollRecords(ctx context.Context, companyID string, filter PayrollFilter) ([]PayrollRecord, int64, error)
	// GetPayrollHistory returns the record and its predecessors, newest first
	GetPayrollHistory(ctx context.Context, companyID, recordID string) ([]PayrollRecord, error)
}
