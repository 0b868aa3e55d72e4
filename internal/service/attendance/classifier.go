package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
)

// Classify maps a check-in to a day status using the policy boundaries.
// Boundaries are exclusive: arriving exactly at LateBefore is a half day.
func Classify(checkIn time.Time, p policy.AttendancePolicy) attendance.AutoStatus {
	local := checkIn.In(p.Location())
	minute := local.Hour()*60 + local.Minute()

	switch {
	case minute < p.FullDayBefore+p.Grace():
		return attendance.AutoStatusFullDay
	case minute < p.LateBefore:
		return attendance.AutoStatusLate
	case minute < p.HalfDayBefore:
		return attendance.AutoStatusHalfDay
	default:
		return attendance.AutoStatusAbsent
	}
}

// DayStatus is the status the day closer assigns to a day with no record.
func DayStatus(day time.Time, p policy.AttendancePolicy, holidays map[string]string) attendance.AutoStatus {
	if _, ok := holidays[day.Format("2006-01-02")]; ok {
		return attendance.AutoStatusHoliday
	}
	if !p.IsWorkingDay(day) {
		return attendance.AutoStatusWeekOff
	}
	return attendance.AutoStatusAbsent
}
