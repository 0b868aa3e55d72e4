package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// ClassifyCheckIn classifies a check-in and writes one PENDING record
	ClassifyCheckIn(ctx context.Context, companyID, employeeID string, ts time.Time) (AttendanceRecord, error)

	ApproveAttendance(ctx context.Context, companyID string, req ApproveAttendanceRequest) (AttendanceRecord, error)
	RejectAttendance(ctx context.Context, companyID string, req RejectAttendanceRequest) (AttendanceRecord, error)

	ListAttendance(ctx context.Context, companyID, employeeID string, month time.Month, year int) ([]AttendanceRecord, error)

	// CloseDay writes ABSENT, WEEK_OFF or HOLIDAY records for employees without a record on date
	CloseDay(ctx context.Context, companyID string, date time.Time) (int64, error)
}
