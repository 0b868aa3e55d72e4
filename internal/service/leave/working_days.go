package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/shopspring/decimal"
)

var half = decimal.NewFromFloat(0.5)

// WorkingDays lists the days in [from, to] that are working days under the
// policy mask and are not company holidays.
func WorkingDays(from, to time.Time, p policy.AttendancePolicy, holidays map[string]string) []time.Time {
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !p.IsWorkingDay(d) {
			continue
		}
		if _, ok := holidays[d.Format("2006-01-02")]; ok {
			continue
		}
		days = append(days, d)
	}
	return days
}

// CountDays is the leave charged for the given working days.
func CountDays(days []time.Time, halfDay bool) decimal.Decimal {
	if len(days) == 0 {
		return decimal.Zero
	}
	if halfDay {
		return half
	}
	return decimal.NewFromInt(int64(len(days)))
}
