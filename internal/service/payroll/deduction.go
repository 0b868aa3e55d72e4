package payroll

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/shopspring/decimal"
)

// Derive turns the attendance rows of one employee month into payable days.
// Only APPROVED rows dated within the month are tallied. The result depends
// on its inputs alone so a stored record can always be re-derived.
func Derive(records []attendance.AttendanceRecord, p policy.AttendancePolicy, month time.Month, year int) payroll.AttendanceSummary {
	first, last := attendance.MonthRange(month, year)
	summary := payroll.AttendanceSummary{
		Month:     month,
		Year:      year,
		TotalDays: last.Day(),
	}

	var inMonth []attendance.AttendanceRecord
	for _, r := range records {
		if r.Date.Before(first) || r.Date.After(last) {
			continue
		}
		inMonth = append(inMonth, r)
		if !r.IsApproved() {
			continue
		}
		switch r.AutoStatus {
		case attendance.AutoStatusFullDay:
			summary.FullDays++
		case attendance.AutoStatusLate:
			summary.LateCount++
		case attendance.AutoStatusHalfDay:
			summary.HalfDayCount++
		case attendance.AutoStatusAbsent:
			summary.AbsentDays++
		case attendance.AutoStatusPaidLeave:
			summary.PaidLeaveDays++
		case attendance.AutoStatusUnpaidLeave:
			summary.UnpaidLeaveDays++
		case attendance.AutoStatusHoliday:
			summary.HolidayDays++
		case attendance.AutoStatusWeekOff:
			summary.WeekOffDays++
		}
	}

	summary.EquivalentAbsences = equivalentAbsences(summary.LateCount, p.LateRule).
		Add(equivalentAbsences(summary.HalfDayCount, p.HalfDayRule))

	present := summary.FullDays + summary.LateCount + summary.HalfDayCount +
		summary.PaidLeaveDays + summary.HolidayDays + summary.WeekOffDays
	summary.PayableDays = decimal.Max(decimal.NewFromInt(int64(present)).Sub(summary.EquivalentAbsences), decimal.Zero)
	summary.Token = AttendanceToken(inMonth)

	return summary
}

func equivalentAbsences(occurrences int, rule policy.DeductionRule) decimal.Decimal {
	if !rule.Enabled || rule.Count <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(occurrences / rule.Count)).Mul(rule.DeductDays)
}

// AttendanceToken fingerprints a set of rows by id and version. Any insert,
// delete or update of the set changes it.
func AttendanceToken(records []attendance.AttendanceRecord) string {
	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.ID+"@"+strconv.FormatInt(r.Version, 10))
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	return strconv.Itoa(len(keys)) + "-" + hex.EncodeToString(h.Sum(nil)[:12])
}
