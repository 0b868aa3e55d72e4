package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// All methods include companyID parameter to prevent cross-company data access attacks.
type AttendanceRepository interface {
	// Create inserts a record, ErrDuplicateAttendance when (employee, date) exists
	Create(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	GetByID(ctx context.Context, id string, companyID string) (AttendanceRecord, error)

	// GetByEmployeeAndDate returns nil when no record exists
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*AttendanceRecord, error)

	// Update writes record when its stored version equals record.Version and
	// bumps the version. ErrConcurrentModification otherwise.
	Update(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	// DeleteByLeaveRequest removes the rows written for a leave request that
	// carry no check-in
	DeleteByLeaveRequest(ctx context.Context, leaveRequestID string, companyID string) (int64, error)

	// ListByEmployeeBetween returns records ordered by date, both bounds inclusive
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time, companyID string) ([]AttendanceRecord, error)

	// CreateMissing inserts SYSTEM records for employees with no record on date
	CreateMissing(ctx context.Context, companyID string, date time.Time, status AutoStatus) (int64, error)
}
