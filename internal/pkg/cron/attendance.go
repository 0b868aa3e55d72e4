package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
)

type AttendanceJobs struct {
	companies     CompanySource
	attendanceSvc attendance.AttendanceService
	policies      policy.PolicyService
	now           func() time.Time
}

func NewAttendanceJobs(
	companies CompanySource,
	attendanceSvc attendance.AttendanceService,
	policies policy.PolicyService,
) *AttendanceJobs {
	return &AttendanceJobs{
		companies:     companies,
		attendanceSvc: attendanceSvc,
		policies:      policies,
		now:           time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("close_attendance_day", interval, j.CloseYesterday)
}

// CloseYesterday writes ABSENT, WEEK_OFF or HOLIDAY rows for employees with
// no record on the previous day of each company's own calendar. Safe to rerun.
func (j *AttendanceJobs) CloseYesterday(ctx context.Context) error {
	companyIDs, err := j.companies.ActiveCompanyIDs(ctx)
	if err != nil {
		return err
	}

	var total int64
	failed := 0
	for _, companyID := range companyIDs {
		today, err := attendanceService.Today(ctx, j.policies, companyID, j.now())
		if err != nil {
			slog.Error("Cron: Failed to resolve company calendar", "company_id", companyID, "error", err)
			failed++
			continue
		}

		n, err := j.attendanceSvc.CloseDay(ctx, companyID, today.AddDate(0, 0, -1))
		if err != nil {
			slog.Error("Cron: Failed to close attendance day", "company_id", companyID, "error", err)
			failed++
			continue
		}
		total += n
	}

	slog.Info("Cron: Closed attendance day", "companies", len(companyIDs), "records", total, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("day close failed for %d of %d companies", failed, len(companyIDs))
	}
	return nil
}
