package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/fixtures"
)

// catalog returns the company leave types, or the baseline catalog when the
// company has none.
func (s *LeaveServiceImpl) catalog(ctx context.Context, companyID string) ([]leave.LeaveType, error) {
	types, err := s.leaveTypeRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave types: %w", err)
	}
	if len(types) == 0 {
		slog.Warn("leave catalog not configured, using baseline", "company_id", companyID, "fallback", policy.FallbackLeaveCatalog)
		return fixtures.GetDefaultLeaveTypes(companyID), nil
	}
	return types, nil
}

func (s *LeaveServiceImpl) lookupType(ctx context.Context, companyID, code string) (leave.LeaveType, error) {
	types, err := s.catalog(ctx, companyID)
	if err != nil {
		return leave.LeaveType{}, err
	}
	for _, t := range types {
		if t.Code == code && t.IsActive {
			return t, nil
		}
	}
	return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
}

// ListLeaveTypes implements leave.LeaveService.
func (s *LeaveServiceImpl) ListLeaveTypes(ctx context.Context, companyID string) ([]leave.LeaveType, error) {
	return s.catalog(ctx, companyID)
}

// CreateLeaveType implements leave.LeaveService.
func (s *LeaveServiceImpl) CreateLeaveType(ctx context.Context, companyID string, req leave.CreateLeaveTypeRequest) (leave.LeaveType, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveType{}, err
	}

	created, err := s.leaveTypeRepo.Create(ctx, leave.LeaveType{
		CompanyID:       companyID,
		Code:            req.Code,
		Name:            req.Name,
		IsPaid:          req.IsPaid,
		DefaultQuota:    req.DefaultQuota,
		AllowHalfDay:    req.AllowHalfDay,
		MaxCarryForward: req.MaxCarryForward,
		IsActive:        true,
	})
	if err != nil {
		return leave.LeaveType{}, err
	}

	slog.Info("leave type created", "company_id", companyID, "code", created.Code)
	return created, nil
}
