package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/formula"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "0199a3f0-0000-7000-8000-000000000001"

// ==========================================
// FAKES
// ==========================================

type passThroughTx struct{}

func (passThroughTx) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakePayrollRepo struct {
	mu      sync.Mutex
	records map[string]payroll.PayrollRecord
	seq     int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{records: map[string]payroll.PayrollRecord{}}
}

func (f *fakePayrollRepo) Create(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.IsCurrent() && r.EmployeeID == record.EmployeeID && r.PeriodMonth == record.PeriodMonth && r.PeriodYear == record.PeriodYear {
			return payroll.PayrollRecord{}, payroll.ErrDuplicatePeriod
		}
	}
	f.seq++
	record.ID = fmt.Sprintf("rec-%d", f.seq)
	record.Version = 1
	f.records[record.ID] = record
	return record, nil
}

func (f *fakePayrollRepo) GetByID(ctx context.Context, id string, companyID string) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.CompanyID != companyID {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return r, nil
}

func (f *fakePayrollRepo) GetCurrent(ctx context.Context, employeeID string, month, year int, companyID string) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.IsCurrent() && r.CompanyID == companyID && r.EmployeeID == employeeID && r.PeriodMonth == month && r.PeriodYear == year {
			return r, nil
		}
	}
	return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
}

func (f *fakePayrollRepo) Supersede(ctx context.Context, id string, version int64, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || !r.IsCurrent() || r.Version != version {
		return payroll.ErrDuplicatePeriod
	}
	now := time.Now()
	r.SupersededAt = &now
	r.Version++
	f.records[id] = r
	return nil
}

func (f *fakePayrollRepo) UpdateStatus(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.records[record.ID]
	if !ok || stored.Version != record.Version {
		return payroll.PayrollRecord{}, payroll.ErrStaleRecord
	}
	record.Version++
	f.records[record.ID] = record
	return record, nil
}

func (f *fakePayrollRepo) List(ctx context.Context, companyID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.PayrollRecord
	for _, r := range f.records {
		if r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

type fakeAdjustmentRepo struct {
	items []payroll.Adjustment
}

func (f *fakeAdjustmentRepo) Create(ctx context.Context, adj payroll.Adjustment) (payroll.Adjustment, error) {
	adj.ID = fmt.Sprintf("adj-%d", len(f.items)+1)
	f.items = append(f.items, adj)
	return adj, nil
}

func (f *fakeAdjustmentRepo) ListByPeriod(ctx context.Context, employeeID string, month, year int, companyID string) ([]payroll.Adjustment, error) {
	var out []payroll.Adjustment
	for _, a := range f.items {
		if a.EmployeeID == employeeID && a.Month == month && a.Year == year {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepo) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.CompanyID == companyID && e.IsActive() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEmployeeRepo) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	f.employees[e.ID] = e
	return e, nil
}

// fakeAttendanceRepo serves a fixed month of rows. afterRead, when set, runs
// once after the first list call.
type fakeAttendanceRepo struct {
	mu        sync.Mutex
	rows      map[string][]attendance.AttendanceRecord
	afterRead func(f *fakeAttendanceRepo)
}

func (f *fakeAttendanceRepo) Create(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	return record, nil
}

func (f *fakeAttendanceRepo) GetByID(ctx context.Context, id string, companyID string) (attendance.AttendanceRecord, error) {
	return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*attendance.AttendanceRecord, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) Update(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	return record, nil
}

func (f *fakeAttendanceRepo) DeleteByLeaveRequest(ctx context.Context, leaveRequestID string, companyID string) (int64, error) {
	return 0, nil
}

func (f *fakeAttendanceRepo) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time, companyID string) ([]attendance.AttendanceRecord, error) {
	f.mu.Lock()
	out := append([]attendance.AttendanceRecord(nil), f.rows[employeeID]...)
	hook := f.afterRead
	f.afterRead = nil
	f.mu.Unlock()

	if hook != nil {
		hook(f)
	}
	return out, nil
}

func (f *fakeAttendanceRepo) CreateMissing(ctx context.Context, companyID string, date time.Time, status attendance.AutoStatus) (int64, error) {
	return 0, nil
}

type fakeStructureRepo struct {
	structures map[string]salary.Structure
}

func (f *fakeStructureRepo) Create(ctx context.Context, s salary.Structure) (salary.Structure, error) {
	f.structures[s.EmployeeID] = s
	return s, nil
}

func (f *fakeStructureRepo) GetOpen(ctx context.Context, employeeID, companyID string) (salary.Structure, error) {
	s, ok := f.structures[employeeID]
	if !ok {
		return salary.Structure{}, salary.ErrStructureNotFound
	}
	return s, nil
}

func (f *fakeStructureRepo) GetEffective(ctx context.Context, employeeID string, day time.Time, companyID string) (salary.Structure, error) {
	s, ok := f.structures[employeeID]
	if !ok || !s.Covers(day) {
		return salary.Structure{}, salary.ErrNoActiveStructure
	}
	return s, nil
}

func (f *fakeStructureRepo) Close(ctx context.Context, id string, effectiveTo time.Time, companyID string) error {
	return nil
}

func (f *fakeStructureRepo) ListByEmployee(ctx context.Context, employeeID, companyID string) ([]salary.Structure, error) {
	return nil, nil
}

type fakeComponentRepo struct {
	defs []salary.ComponentDefinition
}

func (f *fakeComponentRepo) Create(ctx context.Context, d salary.ComponentDefinition) (salary.ComponentDefinition, error) {
	f.defs = append(f.defs, d)
	return d, nil
}

func (f *fakeComponentRepo) GetByCode(ctx context.Context, companyID, code string) (salary.ComponentDefinition, error) {
	for _, d := range f.defs {
		if d.Code == code {
			return d, nil
		}
	}
	return salary.ComponentDefinition{}, salary.ErrComponentNotFound
}

func (f *fakeComponentRepo) ListByCompany(ctx context.Context, companyID string, activeOnly bool) ([]salary.ComponentDefinition, error) {
	return f.defs, nil
}

func (f *fakeComponentRepo) Update(ctx context.Context, d salary.ComponentDefinition) error {
	return nil
}

// fakePolicies resolves the baseline for every company.
type fakePolicies struct {
	policy.PolicyService
}

func (fakePolicies) Resolve(ctx context.Context, companyID string) (policy.Resolved, error) {
	return policy.Resolved{
		Attendance: fixtures.GetDefaultAttendancePolicy(companyID),
		Statutory:  fixtures.GetDefaultStatutoryPolicy(companyID),
		Fallbacks:  []string{policy.FallbackAttendancePolicy, policy.FallbackStatutoryPolicy},
	}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, companyID, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

// ==========================================
// HARNESS
// ==========================================

type harness struct {
	svc        payroll.PayrollService
	payrolls   *fakePayrollRepo
	adjust     *fakeAdjustmentRepo
	employees  *fakeEmployeeRepo
	attendance *fakeAttendanceRepo
	structures *fakeStructureRepo
	publisher  *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		payrolls:   newFakePayrollRepo(),
		adjust:     &fakeAdjustmentRepo{},
		employees:  &fakeEmployeeRepo{employees: map[string]employee.Employee{}},
		attendance: &fakeAttendanceRepo{rows: map[string][]attendance.AttendanceRecord{}},
		structures: &fakeStructureRepo{structures: map[string]salary.Structure{}},
		publisher:  &recordingPublisher{},
	}
	components := &fakeComponentRepo{defs: []salary.ComponentDefinition{
		def("BASIC", salary.CategoryEarning, salary.CalculationFlat, true),
		def("HRA", salary.CategoryEarning, salary.CalculationPercentOfBase, true),
		def("GRATUITY", salary.CategoryEmployerContribution, salary.CalculationPercentOfBase, false),
	}}

	h.svc = NewPayrollService(
		passThroughTx{},
		h.payrolls,
		h.adjust,
		h.employees,
		h.attendance,
		h.structures,
		components,
		fakePolicies{},
		NewComponentEvaluator(formula.NewEvaluator()),
		h.publisher,
		4,
	)
	return h
}

// addEmployee registers an employee with a structure and a fully attended June 2025.
func (h *harness) addEmployee(id string) {
	h.employees.employees[id] = employee.Employee{
		ID:               id,
		CompanyID:        testCompanyID,
		EmploymentStatus: employee.EmploymentStatusActive,
		HireDate:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	h.structures.structures[id] = salary.Structure{
		ID:                "struct-" + id,
		CompanyID:         testCompanyID,
		EmployeeID:        id,
		EffectiveFrom:     time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		MonthlyCTC:        dec(30000),
		BaseComponentCode: "BASIC",
		Components: []salary.StructureComponent{
			{Code: "BASIC", Value: dec(20000), Order: 1},
			{Code: "HRA", Value: dec(40), Order: 2},
			{Code: "GRATUITY", Value: dec(4.81), Order: 3},
		},
	}

	rows := make([]attendance.AttendanceRecord, 0, 30)
	for d := 1; d <= 30; d++ {
		rows = append(rows, attendance.AttendanceRecord{
			ID:         fmt.Sprintf("%s-%02d", id, d),
			CompanyID:  testCompanyID,
			EmployeeID: id,
			Date:       time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC),
			AutoStatus: attendance.AutoStatusFullDay,
			Status:     attendance.StatusApproved,
			Version:    1,
		})
	}
	h.attendance.rows[id] = rows
}

// ==========================================
// CALCULATION
// ==========================================

func TestCalculatePayroll_FirstCalculation(t *testing.T) {
	// Setup
	h := newHarness(t)
	empID := uuid.NewString()
	h.addEmployee(empID)

	// Act
	rec, err := h.svc.CalculatePayroll(context.Background(), testCompanyID, empID, time.June, 2025)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusDraft, rec.Status)
	assert.Equal(t, 1, rec.Revision)
	assert.Nil(t, rec.PreviousRecordID)
	assert.Equal(t, 30, rec.Attendance.TotalDays)
	assert.True(t, rec.Attendance.PayableDays.Equal(dec(30)))
	assert.True(t, rec.GrossEarnings.Equal(dec(28000)), "gross was %s", rec.GrossEarnings)
	assert.Equal(t, "struct-"+empID, rec.StructureID)
	assert.Equal(t, []string{policy.FallbackAttendancePolicy, policy.FallbackStatutoryPolicy}, rec.PolicyFallbacks)
	assert.Empty(t, rec.ComponentErrors)
	assert.NotEmpty(t, rec.AttendanceToken)
	assert.Equal(t, []string{"payroll.calculated"}, h.publisher.events)
}

func TestCalculatePayroll_RecalculateSupersedesDraft(t *testing.T) {
	h := newHarness(t)
	empID := uuid.NewString()
	h.addEmployee(empID)
	ctx := context.Background()

	first, err := h.svc.CalculatePayroll(ctx, testCompanyID, empID, time.June, 2025)
	require.NoError(t, err)

	_, err = h.svc.AddAdjustment(ctx, testCompanyID, "admin", payroll.AddAdjustmentRequest{
		EmployeeID: empID,
		Month:      payroll.Month(time.June),
		Year:       2025,
		Type:       payroll.AdjustmentTypes[0],
		Category:   "EARNING",
		Amount:     dec(500),
	})
	require.NoError(t, err)

	second, err := h.svc.CalculatePayroll(ctx, testCompanyID, empID, time.June, 2025)
	require.NoError(t, err)

	assert.Equal(t, 2, second.Revision)
	require.NotNil(t, second.PreviousRecordID)
	assert.Equal(t, first.ID, *second.PreviousRecordID)
	assert.Len(t, second.Adjustments, 1)
	assert.True(t, second.NetPayable.Sub(first.NetPayable).Equal(dec(500)))

	old, err := h.svc.GetPayrollRecord(ctx, testCompanyID, first.ID)
	require.NoError(t, err)
	assert.False(t, old.IsCurrent())

	history, err := h.svc.GetPayrollHistory(ctx, testCompanyID, second.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}

func TestCalculatePayroll_SameInputsSameResult(t *testing.T) {
	// Setup
	h := newHarness(t)
	empID := uuid.NewString()
	h.addEmployee(empID)
	ctx := context.Background()

	// Act
	first, err := h.svc.CalculatePayroll(ctx, testCompanyID, empID, time.June, 2025)
	require.NoError(t, err)
	second, err := h.svc.CalculatePayroll(ctx, testCompanyID, empID, time.June, 2025)
	require.NoError(t, err)

	// Assert
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.GrossEarnings.Equal(first.GrossEarnings), "gross %s vs %s", second.GrossEarnings, first.GrossEarnings)
	assert.True(t, second.TotalDeductions.Equal(first.TotalDeductions))
	assert.True(t, second.NetPayable.Equal(first.NetPayable), "net %s vs %s", second.NetPayable, first.NetPayable)
	assert.True(t, second.CTC.Equal(first.CTC))
	assert.Equal(t, first.AttendanceToken, second.AttendanceToken)
	assert.Equal(t, amounts(first.Earnings), amounts(second.Earnings))
	assert.True(t, second.Statutory.EmployeeTotal.Equal(first.Statutory.EmployeeTotal))
	assert.True(t, second.Statutory.EmployerTotal.Equal(first.Statutory.EmployerTotal))
}

func TestCalculatePayroll_Errors(t *testing.T) {
	h := newHarness(t)
	empID := uuid.NewString()
	h.addEmployee(empID)
	noStructure := uuid.NewString()
	h.addEmployee(noStructure)
	delete(h.structures.structures, noStructure)
	ctx := context.Background()

	tests := []struct {
		name       string
		employeeID string
		month      time.Month
		year       int
		wantErr    error
		wantCode   string
	}{
		{"invalid month", empID, 13, 2025, nil, "VALIDATION_ERROR"},
		{"invalid employee id", "not-a-uuid", time.June, 2025, nil, "VALIDATION_ERROR"},
		{"unknown employee", uuid.NewString(), time.June, 2025, payroll.ErrEmployeeNotFound, "EMPLOYEE_NOT_FOUND"},
		{"no structure", noStructure, time.June, 2025, payroll.ErrNoActiveStructure, "NO_ACTIVE_STRUCTURE"},
		{"before hire", empID, time.June, 2020, nil, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.CalculatePayroll(ctx, testCompanyID, tt.employeeID, tt.month, tt.year)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCode, ErrorCode(err))
		})
	}
}

func TestCalculatePayroll_FinalRecordIsImmutable(t *testing.T) {
	h := newHarness(t)
	empID := uuid.NewString()
	h.addEmployee(empID)
	ctx := context.Background()

	rec, err := h.svc.CalculatePayroll(ctx, testCompanyID, empID, time.June, 2025)
	require.NoError(t, err)
	_, err = h.svc.SubmitPayroll(ctx, testCompanyID, rec.ID, "hr")
	require.NoError(t, err)
	_, err = h.svc.ApprovePayroll(ctx, testCompanyID, rec.ID, "manager")
	require.NoError(t, err)

	_, err = h.svc.CalculatePayroll(ctx, testCompanyID, empID, time.June, 2025)
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)

	_, err = h.svc.AddAdjustment(ctx, testCompanyID, "admin", payroll.AddAdjustmentRequest{
		EmployeeID: empID,
		Month:      payroll.Month(time.June),
		Year:       2025,
		Type:       payroll.AdjustmentTypes[0],
		Category:   "DEDUCTION",
		Amount:     dec(100),
	})
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)
}

func TestCalculatePayroll_AttendanceChangedDuringCalculation(t *testing.T) {
	h := newHarness(t)
	empID := uuid.NewString()
	h.addEmployee(empID)
	h.attendance.afterRead = func(f *fakeAttendanceRepo) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.rows[empID][0].Version++
	}

	_, err := h.svc.CalculatePayroll(context.Background(), testCompanyID, empID, time.June, 2025)

	assert.ErrorIs(t, err, payroll.ErrConcurrentModification)
	assert.Equal(t, "CONCURRENT_MODIFICATION", ErrorCode(err))
	_, err = h.payrolls.GetCurrent(context.Background(), empID, 6, 2025, testCompanyID)
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordNotFound)
}

// ==========================================
// BULK
// ==========================================

func TestBulkCalculatePayroll_PartialFailure(t *testing.T) {
	// Setup
	h := newHarness(t)
	ok1, ok2, missing := uuid.NewString(), uuid.NewString(), uuid.NewString()
	h.addEmployee(ok1)
	h.addEmployee(ok2)

	// Act
	result, err := h.svc.BulkCalculatePayroll(context.Background(), testCompanyID, payroll.BulkCalculateRequest{
		EmployeeIDs: []string{ok1, missing, ok2, ok1},
		Month:       payroll.Month(time.June),
		Year:        2025,
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 2)
	assert.Equal(t, ok1, result.Succeeded[0].EmployeeID)
	assert.Equal(t, ok2, result.Succeeded[1].EmployeeID)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, missing, result.Failed[0].EmployeeID)
	assert.Equal(t, "EMPLOYEE_NOT_FOUND", result.Failed[0].Code)
}

func TestBulkCalculatePayroll_AllActiveEmployees(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		h.addEmployee(uuid.NewString())
	}
	late := uuid.NewString()
	h.addEmployee(late)
	e := h.employees.employees[late]
	e.HireDate = time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	h.employees.employees[late] = e

	result, err := h.svc.BulkCalculatePayroll(context.Background(), testCompanyID, payroll.BulkCalculateRequest{
		Month: payroll.Month(time.June),
		Year:  2025,
	})

	require.NoError(t, err)
	assert.Len(t, result.Succeeded, 5)
	assert.Empty(t, result.Failed)
}

// ==========================================
// WORKFLOW
// ==========================================

func TestPayrollWorkflow(t *testing.T) {
	h := newHarness(t)
	empID := uuid.NewString()
	h.addEmployee(empID)
	ctx := context.Background()

	rec, err := h.svc.CalculatePayroll(ctx, testCompanyID, empID, time.June, 2025)
	require.NoError(t, err)

	_, err = h.svc.ApprovePayroll(ctx, testCompanyID, rec.ID, "manager")
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	submitted, err := h.svc.SubmitPayroll(ctx, testCompanyID, rec.ID, "hr")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusPendingApproval, submitted.Status)
	assert.NotNil(t, submitted.SubmittedAt)

	_, err = h.svc.RejectPayroll(ctx, testCompanyID, rec.ID, "manager", " ")
	assert.Error(t, err)

	rejected, err := h.svc.RejectPayroll(ctx, testCompanyID, rec.ID, "manager", "wrong bonus")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusDraft, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "wrong bonus", *rejected.RejectionReason)

	_, err = h.svc.SubmitPayroll(ctx, testCompanyID, rec.ID, "hr")
	require.NoError(t, err)
	approved, err := h.svc.ApprovePayroll(ctx, testCompanyID, rec.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "manager", *approved.ApprovedBy)

	processed, err := h.svc.ProcessPayroll(ctx, testCompanyID, rec.ID, "finance")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusProcessed, processed.Status)

	_, err = h.svc.SubmitPayroll(ctx, testCompanyID, rec.ID, "hr")
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)

	_, err = h.svc.RevisePayroll(ctx, testCompanyID, rec.ID, "hr", "late correction")
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)
}

func TestRevisePayroll(t *testing.T) {
	h := newHarness(t)
	empID := uuid.NewString()
	h.addEmployee(empID)
	ctx := context.Background()

	rec, err := h.svc.CalculatePayroll(ctx, testCompanyID, empID, time.June, 2025)
	require.NoError(t, err)

	_, err = h.svc.RevisePayroll(ctx, testCompanyID, rec.ID, "hr", "fix")
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	_, err = h.svc.SubmitPayroll(ctx, testCompanyID, rec.ID, "hr")
	require.NoError(t, err)
	_, err = h.svc.ApprovePayroll(ctx, testCompanyID, rec.ID, "manager")
	require.NoError(t, err)

	revised, err := h.svc.RevisePayroll(ctx, testCompanyID, rec.ID, "hr", "missed overtime")
	require.NoError(t, err)
	assert.Equal(t, payroll.PayrollStatusDraft, revised.Status)
	assert.Equal(t, 2, revised.Revision)
	require.NotNil(t, revised.RevisionReason)
	assert.Equal(t, "missed overtime", *revised.RevisionReason)
	require.NotNil(t, revised.PreviousRecordID)
	assert.Equal(t, rec.ID, *revised.PreviousRecordID)

	// the superseded record can no longer move
	_, err = h.svc.ProcessPayroll(ctx, testCompanyID, rec.ID, "finance")
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)
	_, err = h.svc.RevisePayroll(ctx, testCompanyID, rec.ID, "hr", "again")
	assert.ErrorIs(t, err, payroll.ErrImmutableRecord)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "DUPLICATE_PERIOD", ErrorCode(fmt.Errorf("wrap: %w", payroll.ErrDuplicatePeriod)))
	assert.Equal(t, "CONCURRENT_MODIFICATION", ErrorCode(payroll.ErrStaleRecord))
	assert.Equal(t, "CANCELLED", ErrorCode(context.Canceled))
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(errors.New("boom")))
}
