package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
)

type PayrollJobs struct {
	companies  CompanySource
	payrollSvc payroll.PayrollService
	policies   policy.PolicyService
	now        func() time.Time

	mu   sync.Mutex
	done map[string]bool
}

func NewPayrollJobs(companies CompanySource, payrollSvc payroll.PayrollService, policies policy.PolicyService) *PayrollJobs {
	return &PayrollJobs{
		companies:  companies,
		payrollSvc: payrollSvc,
		policies:   policies,
		now:        time.Now,
		done:       make(map[string]bool),
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("draft_previous_month_payroll", interval, j.DraftPreviousMonth)
}

// DraftPreviousMonth calculates DRAFT payroll for the month before the
// current one, once per company and period for the life of the process.
func (j *PayrollJobs) DraftPreviousMonth(ctx context.Context) error {
	companyIDs, err := j.companies.ActiveCompanyIDs(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, companyID := range companyIDs {
		today, err := attendanceService.Today(ctx, j.policies, companyID, j.now())
		if err != nil {
			slog.Error("Cron: Failed to resolve company calendar", "company_id", companyID, "error", err)
			failed++
			continue
		}
		prev := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		key := fmt.Sprintf("%s/%d-%02d", companyID, prev.Year(), prev.Month())
		if j.isDone(key) {
			continue
		}

		result, err := j.payrollSvc.BulkCalculatePayroll(ctx, companyID, payroll.BulkCalculateRequest{
			Month: payroll.Month(prev.Month()),
			Year:  prev.Year(),
		})
		if err != nil {
			slog.Error("Cron: Failed to draft payroll", "company_id", companyID, "error", err)
			failed++
			continue
		}
		j.markDone(key)

		slog.Info("Cron: Drafted payroll",
			"company_id", companyID,
			"period", fmt.Sprintf("%d-%02d", prev.Year(), prev.Month()),
			"succeeded", len(result.Succeeded),
			"failed", len(result.Failed),
		)
	}

	if failed > 0 {
		return fmt.Errorf("payroll draft failed for %d of %d companies", failed, len(companyIDs))
	}
	return nil
}

func (j *PayrollJobs) isDone(key string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done[key]
}

func (j *PayrollJobs) markDone(key string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.done[key] = true
}
