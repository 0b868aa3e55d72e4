package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

// ===== FAKES =====
// Each fake embeds the service interface so only the methods under test
// need an implementation.

type fakeAttendanceService struct {
	attendance.AttendanceService
	gotEmployeeID string
}

func (f *fakeAttendanceService) ClassifyCheckIn(_ context.Context, companyID, employeeID string, ts time.Time) (attendance.AttendanceRecord, error) {
	f.gotEmployeeID = employeeID
	return attendance.AttendanceRecord{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Date:       attendance.DateOf(ts, time.UTC),
		AutoStatus: attendance.AutoStatusFullDay,
		Status:     attendance.StatusPending,
		Source:     attendance.SourceCheckIn,
	}, nil
}

type fakeLeaveService struct {
	leave.LeaveService
	requests  map[string]leave.LeaveRequest
	applyErr  error
	cancelled []string
}

func (f *fakeLeaveService) ApplyLeave(_ context.Context, companyID string, req leave.ApplyLeaveRequest) (leave.LeaveRequest, error) {
	if f.applyErr != nil {
		return leave.LeaveRequest{}, f.applyErr
	}
	from, to := req.Range()
	return leave.LeaveRequest{
		ID:            uuid.NewString(),
		CompanyID:     companyID,
		EmployeeID:    req.EmployeeID,
		LeaveTypeCode: req.LeaveType,
		FromDate:      from,
		ToDate:        to,
		Days:          decimal.NewFromInt(1),
		Status:        leave.LeaveRequestStatusPending,
	}, nil
}

func (f *fakeLeaveService) GetRequest(_ context.Context, _, requestID string) (leave.LeaveRequest, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

func (f *fakeLeaveService) CancelLeave(_ context.Context, _, requestID string) (leave.LeaveRequest, error) {
	f.cancelled = append(f.cancelled, requestID)
	req := f.requests[requestID]
	req.Status = leave.LeaveRequestStatusCancelled
	return req, nil
}

type fakePayrollService struct {
	payroll.PayrollService
	gotMonth   time.Month
	gotFilter  payroll.PayrollFilter
	records    []payroll.PayrollRecord
	approveErr error
}

func (f *fakePayrollService) CalculatePayroll(_ context.Context, companyID, employeeID string, month time.Month, year int) (payroll.PayrollRecord, error) {
	f.gotMonth = month
	return payroll.PayrollRecord{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		EmployeeID:  employeeID,
		PeriodMonth: int(month),
		PeriodYear:  year,
		Status:      payroll.PayrollStatusDraft,
	}, nil
}

func (f *fakePayrollService) ListPayrollRecords(_ context.Context, _ string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	f.gotFilter = filter
	return f.records, int64(len(f.records)), nil
}

func (f *fakePayrollService) ApprovePayroll(context.Context, string, string, string) (payroll.PayrollRecord, error) {
	return payroll.PayrollRecord{}, f.approveErr
}

type fakeSalaryService struct {
	salary.SalaryService
}

func (f *fakeSalaryService) GetEffectiveStructure(context.Context, string, string, time.Time) (salary.Structure, error) {
	return salary.Structure{}, salary.ErrNoActiveStructure
}

type fakePolicyService struct {
	policy.PolicyService
}

func (f *fakePolicyService) UpdateAttendancePolicy(context.Context, string, policy.UpdateAttendancePolicyRequest) (policy.AttendancePolicyResponse, error) {
	return policy.AttendancePolicyResponse{}, validator.Single("grace_minutes", "must be non-negative")
}

// ===== HELPERS =====

type testEnv struct {
	router     http.Handler
	jwt        jwt.Service
	attendance *fakeAttendanceService
	leave      *fakeLeaveService
	payroll    *fakePayrollService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{App: config.AppConfig{
		Env:            "test",
		LogLevel:       "error",
		AllowedOrigins: []string{"http://localhost:3000"},
	}}

	env := &testEnv{
		jwt:        jwt.NewJWTService(handlerTestSecret, time.Minute),
		attendance: &fakeAttendanceService{},
		leave:      &fakeLeaveService{requests: map[string]leave.LeaveRequest{}},
		payroll:    &fakePayrollService{},
	}
	env.router = NewRouter(cfg, env.jwt, Handlers{
		Attendance: NewAttendanceHandler(env.attendance),
		Leave:      NewLeaveHandler(env.leave),
		Payroll:    NewPayrollHandler(env.payroll),
		Salary:     NewSalaryHandler(&fakeSalaryService{}),
		Policy:     NewPolicyHandler(&fakePolicyService{}),
	})
	return env
}

func (e *testEnv) do(t *testing.T, claims *jwt.Claims, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if claims != nil {
		token, _, err := e.jwt.GenerateAccessToken(*claims, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func employeeClaims() *jwt.Claims {
	return &jwt.Claims{
		UserID:     uuid.NewString(),
		CompanyID:  uuid.NewString(),
		EmployeeID: uuid.NewString(),
		Role:       jwt.RoleEmployee,
	}
}

func managerClaims() *jwt.Claims {
	c := employeeClaims()
	c.Role = jwt.RoleManager
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalItems int64 `json:"total_items"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// ===== AUTH =====

func TestRouter_MissingToken(t *testing.T) {
	// Setup
	env := newTestEnv(t)

	// Act
	rec := env.do(t, nil, http.MethodGet, "/api/v1/payroll/records", nil)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_EmployeeCannotReachManagerRoutes(t *testing.T) {
	// Setup
	env := newTestEnv(t)
	claims := employeeClaims()

	paths := []string{
		"/api/v1/payroll/calculate",
		"/api/v1/payroll/records/" + uuid.NewString() + "/approve",
		"/api/v1/leave/requests/" + uuid.NewString() + "/approve",
		"/api/v1/attendance/" + uuid.NewString() + "/approve",
		"/api/v1/salary/structures",
	}

	for _, path := range paths {
		// Act
		rec := env.do(t, claims, http.MethodPost, path, map[string]string{})

		// Assert
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

// ===== ATTENDANCE =====

func TestAttendanceHandler_CheckIn_DefaultsToCaller(t *testing.T) {
	// Setup
	env := newTestEnv(t)
	claims := employeeClaims()

	// Act
	rec := env.do(t, claims, http.MethodPost, "/api/v1/attendance/check-in", map[string]string{
		"timestamp": "2024-03-04T09:05:00+05:30",
	})

	// Assert
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, claims.EmployeeID, env.attendance.gotEmployeeID)
}

func TestAttendanceHandler_CheckIn_ForOtherEmployee(t *testing.T) {
	// Setup
	env := newTestEnv(t)

	// Act
	rec := env.do(t, employeeClaims(), http.MethodPost, "/api/v1/attendance/check-in", map[string]string{
		"employee_id": uuid.NewString(),
	})

	// Assert
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, env.attendance.gotEmployeeID)
}

// ===== LEAVE =====

func TestLeaveHandler_CreateRequest_InsufficientBalance(t *testing.T) {
	// Setup
	env := newTestEnv(t)
	env.leave.applyErr = &leave.InsufficientBalanceError{
		LeaveType: "CASUAL",
		Available: decimal.NewFromInt(1),
		Requested: decimal.NewFromInt(3),
		Shortfall: decimal.NewFromInt(2),
	}

	// Act
	rec := env.do(t, employeeClaims(), http.MethodPost, "/api/v1/leave/requests", map[string]interface{}{
		"leave_type": "CASUAL",
		"from":       "2024-03-04",
		"to":         "2024-03-06",
	})

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "INSUFFICIENT_BALANCE", body.Error.Code)
	assert.Equal(t, "2", body.Error.Details["shortfall"])
}

func TestLeaveHandler_CancelRequest_Ownership(t *testing.T) {
	// Setup
	env := newTestEnv(t)
	owner := employeeClaims()
	requestID := uuid.NewString()
	env.leave.requests[requestID] = leave.LeaveRequest{
		ID:         requestID,
		CompanyID:  owner.CompanyID,
		EmployeeID: owner.EmployeeID,
		Status:     leave.LeaveRequestStatusApproved,
	}
	path := "/api/v1/leave/requests/" + requestID + "/cancel"

	// Act
	strangerRec := env.do(t, employeeClaims(), http.MethodPost, path, nil)
	ownerRec := env.do(t, owner, http.MethodPost, path, nil)

	// Assert
	assert.Equal(t, http.StatusForbidden, strangerRec.Code)
	assert.Equal(t, http.StatusOK, ownerRec.Code)
	assert.Equal(t, []string{requestID}, env.leave.cancelled)
}

func TestLeaveHandler_CancelRequest_NotFound(t *testing.T) {
	// Setup
	env := newTestEnv(t)

	// Act
	rec := env.do(t, employeeClaims(), http.MethodPost, "/api/v1/leave/requests/"+uuid.NewString()+"/cancel", nil)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ===== PAYROLL =====

func TestPayrollHandler_Calculate_AcceptsMonthName(t *testing.T) {
	// Setup
	env := newTestEnv(t)

	// Act
	rec := env.do(t, managerClaims(), http.MethodPost, "/api/v1/payroll/calculate", map[string]interface{}{
		"employee_id": uuid.NewString(),
		"month":       "March",
		"year":        2024,
	})

	// Assert
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, time.March, env.payroll.gotMonth)
}

func TestPayrollHandler_Calculate_InvalidMonth(t *testing.T) {
	// Setup
	env := newTestEnv(t)

	// Act
	rec := env.do(t, managerClaims(), http.MethodPost, "/api/v1/payroll/calculate", map[string]interface{}{
		"employee_id": uuid.NewString(),
		"month":       13,
		"year":        2024,
	})

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayrollHandler_List_EmployeeSeesOwnRecords(t *testing.T) {
	// Setup
	env := newTestEnv(t)
	claims := employeeClaims()
	env.payroll.records = []payroll.PayrollRecord{
		{ID: uuid.NewString(), EmployeeID: claims.EmployeeID, PeriodMonth: 3, PeriodYear: 2024, Status: payroll.PayrollStatusApproved},
	}

	// Act
	rec := env.do(t, claims, http.MethodGet, "/api/v1/payroll/records?employee_id="+uuid.NewString()+"&period_month=march&limit=500", nil)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, env.payroll.gotFilter.EmployeeID)
	assert.Equal(t, claims.EmployeeID, *env.payroll.gotFilter.EmployeeID)
	require.NotNil(t, env.payroll.gotFilter.PeriodMonth)
	assert.Equal(t, 3, *env.payroll.gotFilter.PeriodMonth)
	assert.Equal(t, 20, env.payroll.gotFilter.Limit)

	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Meta)
	assert.Equal(t, int64(1), body.Meta.TotalItems)
	assert.Equal(t, 1, body.Meta.TotalPages)
}

func TestPayrollHandler_Approve_ImmutableRecord(t *testing.T) {
	// Setup
	env := newTestEnv(t)
	env.payroll.approveErr = payroll.ErrImmutableRecord

	// Act
	rec := env.do(t, managerClaims(), http.MethodPost, "/api/v1/payroll/records/"+uuid.NewString()+"/approve", nil)

	// Assert
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// ===== SALARY & POLICY =====

func TestSalaryHandler_GetEffectiveStructure_None(t *testing.T) {
	// Setup
	env := newTestEnv(t)
	claims := employeeClaims()

	// Act
	rec := env.do(t, claims, http.MethodGet, "/api/v1/salary/structures/"+claims.EmployeeID+"/effective?date=2024-03-01", nil)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPolicyHandler_UpdateAttendancePolicy_Invalid(t *testing.T) {
	// Setup
	env := newTestEnv(t)

	// Act
	rec := env.do(t, managerClaims(), http.MethodPut, "/api/v1/policies/attendance", map[string]interface{}{
		"grace_minutes": -5,
	})

	// Assert
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}
