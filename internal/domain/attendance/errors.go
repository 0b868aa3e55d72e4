package attendance

import (
	"errors"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
)

// Attendance domain errors
var (
	ErrDuplicateAttendance        = errors.New("attendance already recorded for this date")
	ErrAttendanceNotFound         = errors.New("attendance record not found")
	ErrAttendanceAlreadyProcessed = errors.New("attendance has already been approved or rejected")
	ErrConcurrentModification     = errors.New("attendance record was modified concurrently")
	ErrEmployeeNotFound           = employee.ErrEmployeeNotFound
)
