package postgresql_test

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaveTypeRepository(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	companyID := newCompanyID()
	repo := postgresql.NewLeaveTypeRepository(db)

	// Setup
	casual := leave.LeaveType{
		CompanyID: companyID, Code: "CL", Name: "Casual Leave", IsPaid: true,
		DefaultQuota: decimal.NewFromInt(12), AllowHalfDay: true, IsActive: true,
	}

	// Act
	created, err := repo.Create(ctx, casual)
	require.NoError(t, err)
	_, dupErr := repo.Create(ctx, casual)
	found, err := repo.GetByCode(ctx, companyID, "CL")
	require.NoError(t, err)
	_, missingErr := repo.GetByCode(ctx, companyID, "XX")
	list, err := repo.GetByCompanyID(ctx, companyID)
	require.NoError(t, err)

	// Assert
	assert.NotEmpty(t, created.ID)
	assert.ErrorIs(t, dupErr, leave.ErrLeaveTypeCodeExists)
	assert.True(t, found.DefaultQuota.Equal(decimal.NewFromInt(12)))
	assert.True(t, found.AllowHalfDay)
	assert.ErrorIs(t, missingErr, leave.ErrLeaveTypeNotFound)
	assert.Len(t, list, 1)
}

func TestLeaveBalanceRepository_Versioning(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	companyID := newCompanyID()
	emp := seedEmployee(t, db, companyID, "EMP-001", day(2025, 1, 1))
	repo := postgresql.NewLeaveBalanceRepository(db)

	balance := leave.LeaveBalance{
		CompanyID: companyID, EmployeeID: emp.ID, Year: 2025,
		Entries: []leave.BalanceEntry{{LeaveTypeCode: "CL", Total: decimal.NewFromInt(12)}},
	}

	// Act
	created, err := repo.Create(ctx, balance)
	require.NoError(t, err)
	_, dupErr := repo.Create(ctx, balance)

	require.NoError(t, created.Reserve("CL", decimal.NewFromFloat(1.5), true))
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	_, staleErr := repo.Update(ctx, created)

	stored, err := repo.GetByEmployeeAndYear(ctx, emp.ID, 2025, companyID)
	require.NoError(t, err)
	_, missingErr := repo.GetByEmployeeAndYear(ctx, emp.ID, 2024, companyID)

	// Assert
	assert.ErrorIs(t, dupErr, leave.ErrConcurrentModification)
	assert.Equal(t, int64(2), updated.Version)
	assert.ErrorIs(t, staleErr, leave.ErrConcurrentModification)
	entry, ok := stored.Entry("CL")
	require.True(t, ok)
	assert.True(t, entry.Pending.Equal(decimal.NewFromFloat(1.5)))
	assert.ErrorIs(t, missingErr, leave.ErrBalanceNotFound)
}

func TestLeaveRequestRepository(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	companyID := newCompanyID()
	emp := seedEmployee(t, db, companyID, "EMP-001", day(2025, 1, 1))
	repo := postgresql.NewLeaveRequestRepository(db)

	created, err := repo.Create(ctx, leave.LeaveRequest{
		CompanyID: companyID, EmployeeID: emp.ID, LeaveTypeCode: "CL",
		FromDate: day(2025, 6, 9), ToDate: day(2025, 6, 11),
		Days: decimal.NewFromInt(3), Reason: "family", Status: leave.LeaveRequestStatusPending,
	})
	require.NoError(t, err)

	// Act
	overlapping, err := repo.ListActiveOverlapping(ctx, emp.ID, day(2025, 6, 11), day(2025, 6, 12), companyID)
	require.NoError(t, err)
	disjoint, err := repo.ListActiveOverlapping(ctx, emp.ID, day(2025, 6, 12), day(2025, 6, 13), companyID)
	require.NoError(t, err)

	reason := "not now"
	created.Status = leave.LeaveRequestStatusRejected
	created.RejectionReason = &reason
	require.NoError(t, repo.Update(ctx, created))

	afterReject, err := repo.ListActiveOverlapping(ctx, emp.ID, day(2025, 6, 9), day(2025, 6, 11), companyID)
	require.NoError(t, err)
	byYear, err := repo.ListByEmployee(ctx, emp.ID, 2025, companyID)
	require.NoError(t, err)
	_, missingErr := repo.GetByID(ctx, created.ID, newCompanyID())

	// Assert
	assert.Len(t, overlapping, 1)
	assert.Empty(t, disjoint)
	assert.Empty(t, afterReject)
	require.Len(t, byYear, 1)
	assert.Equal(t, leave.LeaveRequestStatusRejected, byYear[0].Status)
	assert.ErrorIs(t, missingErr, leave.ErrLeaveRequestNotFound)
}
