package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftRecord(companyID, employeeID string) payroll.PayrollRecord {
	return payroll.PayrollRecord{
		CompanyID:   companyID,
		EmployeeID:  employeeID,
		PeriodMonth: 6,
		PeriodYear:  2025,
		Attendance: payroll.AttendanceSummary{
			Month: time.June, Year: 2025, TotalDays: 30, FullDays: 30,
			EquivalentAbsences: decimal.Zero, PayableDays: decimal.NewFromInt(30), Token: "abc",
		},
		Earnings: []payroll.LineItem{{
			Code: "BASIC", Name: "Basic", Category: salary.CategoryEarning,
			CalculationType: salary.CalculationFlat, BaseAmount: decimal.NewFromInt(20000), Amount: decimal.NewFromInt(20000), Prorated: true,
		}},
		Statutory:       payroll.StatutoryBreakdown{PFEmployee: decimal.NewFromInt(1800)},
		GrossEarnings:   decimal.NewFromInt(20000),
		TotalDeductions: decimal.NewFromInt(1800),
		AdjustmentTotal: decimal.Zero,
		NetPayable:      decimal.NewFromInt(18200),
		CTC:             decimal.NewFromInt(22000),
		Status:          payroll.PayrollStatusDraft,
		Revision:        1,
		PolicyFallbacks: []string{"statutory_policy"},
		AttendanceToken: "abc",
		CalculatedAt:    time.Now().UTC(),
	}
}

func TestPayrollRepository_CurrentRecordIsUnique(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	companyID := newCompanyID()
	emp := seedEmployee(t, db, companyID, "EMP-001", day(2025, 1, 1))
	repo := postgresql.NewPayrollRepository(db)

	// Act
	first, err := repo.Create(ctx, draftRecord(companyID, emp.ID))
	require.NoError(t, err)
	_, dupErr := repo.Create(ctx, draftRecord(companyID, emp.ID))

	// Assert
	assert.ErrorIs(t, dupErr, payroll.ErrDuplicatePeriod)

	current, err := repo.GetCurrent(ctx, emp.ID, 6, 2025, companyID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, current.ID)
	assert.True(t, current.NetPayable.Equal(decimal.NewFromInt(18200)))
	require.Len(t, current.Earnings, 1)
	assert.Equal(t, "BASIC", current.Earnings[0].Code)
	assert.True(t, current.Earnings[0].BaseAmount.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, []string{"statutory_policy"}, current.PolicyFallbacks)
	assert.True(t, current.Attendance.PayableDays.Equal(decimal.NewFromInt(30)))
	assert.True(t, current.IsCurrent())
}

func TestPayrollRepository_SupersedeThenCreate(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	companyID := newCompanyID()
	emp := seedEmployee(t, db, companyID, "EMP-001", day(2025, 1, 1))
	repo := postgresql.NewPayrollRepository(db)

	first, err := repo.Create(ctx, draftRecord(companyID, emp.ID))
	require.NoError(t, err)

	// Act
	staleErr := repo.Supersede(ctx, first.ID, first.Version+1, companyID)
	require.NoError(t, repo.Supersede(ctx, first.ID, first.Version, companyID))
	againErr := repo.Supersede(ctx, first.ID, first.Version, companyID)

	next := draftRecord(companyID, emp.ID)
	next.PreviousRecordID = &first.ID
	next.Revision = 2
	second, err := repo.Create(ctx, next)
	require.NoError(t, err)

	// Assert
	assert.ErrorIs(t, staleErr, payroll.ErrDuplicatePeriod)
	assert.ErrorIs(t, againErr, payroll.ErrDuplicatePeriod)

	old, err := repo.GetByID(ctx, first.ID, companyID)
	require.NoError(t, err)
	assert.False(t, old.IsCurrent())

	current, err := repo.GetCurrent(ctx, emp.ID, 6, 2025, companyID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
	require.NotNil(t, current.PreviousRecordID)
	assert.Equal(t, first.ID, *current.PreviousRecordID)

	records, total, err := repo.List(ctx, companyID, payroll.PayrollFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, records, 1)
}

func TestPayrollRepository_UpdateStatus(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	companyID := newCompanyID()
	emp := seedEmployee(t, db, companyID, "EMP-001", day(2025, 1, 1))
	repo := postgresql.NewPayrollRepository(db)

	rec, err := repo.Create(ctx, draftRecord(companyID, emp.ID))
	require.NoError(t, err)

	// Act
	now := time.Now().UTC()
	submitted := rec
	submitted.Status = payroll.PayrollStatusPendingApproval
	submitted.SubmittedAt = &now
	updated, err := repo.UpdateStatus(ctx, submitted)
	require.NoError(t, err)
	_, staleErr := repo.UpdateStatus(ctx, submitted)

	status := string(payroll.PayrollStatusPendingApproval)
	filtered, total, err := repo.List(ctx, companyID, payroll.PayrollFilter{Status: &status})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, int64(2), updated.Version)
	assert.ErrorIs(t, staleErr, payroll.ErrStaleRecord)
	assert.Equal(t, int64(1), total)
	require.Len(t, filtered, 1)
	assert.NotNil(t, filtered[0].SubmittedAt)
}

func TestAdjustmentRepository(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	companyID := newCompanyID()
	emp := seedEmployee(t, db, companyID, "EMP-001", day(2025, 1, 1))
	repo := postgresql.NewAdjustmentRepository(db)

	// Act
	_, err := repo.Create(ctx, payroll.Adjustment{
		CompanyID: companyID, EmployeeID: emp.ID, Month: 6, Year: 2025,
		Type: payroll.AdjustmentBonus, Category: salary.CategoryEarning, Amount: decimal.NewFromInt(1500),
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, payroll.Adjustment{
		CompanyID: companyID, EmployeeID: emp.ID, Month: 7, Year: 2025,
		Type: payroll.AdjustmentAdvance, Category: salary.CategoryDeduction, Amount: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	june, err := repo.ListByPeriod(ctx, emp.ID, 6, 2025, companyID)
	require.NoError(t, err)

	// Assert
	require.Len(t, june, 1)
	assert.Equal(t, payroll.AdjustmentBonus, june[0].Type)
	assert.True(t, june[0].Amount.Equal(decimal.NewFromInt(1500)))
}
