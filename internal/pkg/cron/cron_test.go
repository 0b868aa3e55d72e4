package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCompanies []string

func (s staticCompanies) ActiveCompanyIDs(ctx context.Context) ([]string, error) {
	return s, nil
}

type fakePolicies struct {
	policy.PolicyService
	timezone map[string]string
}

func (f *fakePolicies) ResolveAttendance(ctx context.Context, companyID string) (policy.AttendancePolicy, []string, error) {
	p := fixtures.GetDefaultAttendancePolicy(companyID)
	if tz, ok := f.timezone[companyID]; ok {
		p.Timezone = tz
	}
	return p, nil, nil
}

type fakeCloser struct {
	attendance.AttendanceService
	mu     sync.Mutex
	closed map[string]time.Time
	fail   string
}

func (f *fakeCloser) CloseDay(ctx context.Context, companyID string, date time.Time) (int64, error) {
	if companyID == f.fail {
		return 0, errors.New("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed[companyID] = date
	return 2, nil
}

type fakePayroll struct {
	payroll.PayrollService
	calls []payroll.BulkCalculateRequest
}

func (f *fakePayroll) BulkCalculatePayroll(ctx context.Context, companyID string, req payroll.BulkCalculateRequest) (payroll.BulkResult, error) {
	f.calls = append(f.calls, req)
	return payroll.BulkResult{}, nil
}

func TestAttendanceJobs_CloseYesterdayUsesCompanyCalendar(t *testing.T) {
	// Setup
	closer := &fakeCloser{closed: map[string]time.Time{}, fail: "broken"}
	policies := &fakePolicies{timezone: map[string]string{"utc": "UTC", "kolkata": "Asia/Kolkata"}}
	jobs := NewAttendanceJobs(staticCompanies{"utc", "kolkata", "broken"}, closer, policies)
	// 2025-06-10 20:00 UTC is already 2025-06-11 in Kolkata
	jobs.now = func() time.Time { return time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC) }

	// Act
	err := jobs.CloseYesterday(context.Background())

	// Assert
	require.Error(t, err)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), closer.closed["utc"])
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), closer.closed["kolkata"])
	assert.NotContains(t, closer.closed, "broken")
}

func TestPayrollJobs_DraftPreviousMonthOnce(t *testing.T) {
	// Setup
	svc := &fakePayroll{}
	policies := &fakePolicies{timezone: map[string]string{"c1": "UTC"}}
	jobs := NewPayrollJobs(staticCompanies{"c1"}, svc, policies)
	jobs.now = func() time.Time { return time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC) }

	// Act
	require.NoError(t, jobs.DraftPreviousMonth(context.Background()))
	require.NoError(t, jobs.DraftPreviousMonth(context.Background()))

	// Assert
	require.Len(t, svc.calls, 1)
	assert.Equal(t, payroll.Month(time.December), svc.calls[0].Month)
	assert.Equal(t, 2024, svc.calls[0].Year)
	assert.Empty(t, svc.calls[0].EmployeeIDs)
}

func TestScheduler_RunOnceCountsFailures(t *testing.T) {
	// Setup
	s := NewScheduler(context.Background(), time.Second)
	var ran []string
	s.AddJob("ok", time.Hour, func(ctx context.Context) error {
		ran = append(ran, "ok")
		return nil
	})
	s.AddJob("bad", time.Hour, func(ctx context.Context) error {
		ran = append(ran, "bad")
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return errors.New("failed")
	})

	// Act
	failed := s.RunOnce(context.Background())

	// Assert
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"ok", "bad"}, ran)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(context.Background(), 0)
	runs := make(chan struct{}, 1)
	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case runs <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()
}
