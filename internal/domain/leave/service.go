package leave

import "context"

// LeaveService - the leave ledger
type LeaveService interface {
	ApplyLeave(ctx context.Context, companyID string, req ApplyLeaveRequest) (LeaveRequest, error)
	ApproveLeave(ctx context.Context, companyID, requestID, approverID string) (LeaveRequest, error)
	RejectLeave(ctx context.Context, companyID, requestID, approverID, reason string) (LeaveRequest, error)
	CancelLeave(ctx context.Context, companyID, requestID string) (LeaveRequest, error)

	// GetBalance lazily creates the balance from the company catalog
	GetBalance(ctx context.Context, companyID, employeeID string, year int) (LeaveBalance, error)
	GetRequest(ctx context.Context, companyID, requestID string) (LeaveRequest, error)
	ListRequests(ctx context.Context, companyID, employeeID string, year int) ([]LeaveRequest, error)

	ListLeaveTypes(ctx context.Context, companyID string) ([]LeaveType, error)
	CreateLeaveType(ctx context.Context, companyID string, req CreateLeaveTypeRequest) (LeaveType, error)
}
