package attendance

import (
	"time"
)

// AutoStatus - derived day status
type AutoStatus string

const (
	AutoStatusFullDay     AutoStatus = "FULL_DAY"
	AutoStatusLate        AutoStatus = "LATE"
	AutoStatusHalfDay     AutoStatus = "HALF_DAY"
	AutoStatusAbsent      AutoStatus = "ABSENT"
	AutoStatusPaidLeave   AutoStatus = "PAID_LEAVE"
	AutoStatusUnpaidLeave AutoStatus = "UNPAID_LEAVE"
	AutoStatusHoliday     AutoStatus = "HOLIDAY"
	AutoStatusWeekOff     AutoStatus = "WEEK_OFF"
)

// Status - approval workflow status
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Source tells who produced a record.
type Source string

const (
	SourceCheckIn Source = "CHECK_IN"
	SourceLeave   Source = "LEAVE"
	SourceSystem  Source = "SYSTEM"
)

// AttendanceRecord - one per employee per calendar date.
// Date is a UTC midnight value of the local calendar day.
type AttendanceRecord struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	Date            time.Time
	CheckInTime     *time.Time
	AutoStatus      AutoStatus
	Status          Status
	Source          Source
	LeaveRequestID  *string
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r AttendanceRecord) IsApproved() bool {
	return r.Status == StatusApproved
}

// DateOf truncates t to its calendar day in loc, returned as UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last calendar day of a month.
func MonthRange(month time.Month, year int) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}
