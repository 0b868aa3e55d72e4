package policy

import "errors"

var (
	ErrAttendancePolicyNotFound = errors.New("attendance policy not found")
	ErrStatutoryPolicyNotFound  = errors.New("statutory policy not found")
	ErrInvalidAttendancePolicy  = errors.New("invalid attendance policy")
	ErrInvalidStatutoryPolicy   = errors.New("invalid statutory policy")
	ErrInvalidTimezone          = errors.New("invalid timezone")
	ErrHolidayExists            = errors.New("holiday already exists for this date")
	ErrHolidayNotFound          = errors.New("holiday not found")
)
