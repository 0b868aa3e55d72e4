package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type CheckInRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	// Timestamp defaults to the server clock when empty, RFC3339 otherwise
	Timestamp string `json:"timestamp,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if r.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, r.Timestamp); err != nil {
			return validator.Single("timestamp", "must be an RFC3339 timestamp")
		}
	}
	return nil
}

func (r CheckInRequest) Time(now time.Time) time.Time {
	if r.Timestamp == "" {
		return now
	}
	ts, _ := time.Parse(time.RFC3339, r.Timestamp)
	return ts
}

type ApproveAttendanceRequest struct {
	ID         string `json:"-" validate:"required"`
	ApproverID string `json:"-"`
	Version    int64  `json:"version" validate:"gte=0"`
}

func (r *ApproveAttendanceRequest) Validate() error {
	return validator.Struct(r)
}

type RejectAttendanceRequest struct {
	ID         string `json:"-" validate:"required"`
	ApproverID string `json:"-"`
	Version    int64  `json:"version" validate:"gte=0"`
	Reason     string `json:"reason" validate:"required,max=500"`
}

func (r *RejectAttendanceRequest) Validate() error {
	return validator.Struct(r)
}

type AttendanceFilter struct {
	EmployeeID string `validate:"required,uuid"`
	Month      string `validate:"required"`
	Year       int    `validate:"gte=2000,lte=2100"`
}

type AttendanceResponse struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employee_id"`
	Date            string     `json:"date"`
	CheckInTime     *time.Time `json:"check_in_time,omitempty"`
	AutoStatus      AutoStatus `json:"auto_status"`
	Status          Status     `json:"status"`
	Source          Source     `json:"source"`
	LeaveRequestID  *string    `json:"leave_request_id,omitempty"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	Version         int64      `json:"version"`
}

func NewAttendanceResponse(r AttendanceRecord) AttendanceResponse {
	return AttendanceResponse{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		Date:            r.Date.Format("2006-01-02"),
		CheckInTime:     r.CheckInTime,
		AutoStatus:      r.AutoStatus,
		Status:          r.Status,
		Source:          r.Source,
		LeaveRequestID:  r.LeaveRequestID,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectionReason: r.RejectionReason,
		Version:         r.Version,
	}
}
