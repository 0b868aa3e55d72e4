package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	CloseDay(w http.ResponseWriter, r *http.Request)
}

type AttendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	now               func() time.Time
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &AttendanceHandlerImpl{
		attendanceService: attendanceService,
		now:               time.Now,
	}
}

// CheckIn implements AttendanceHandler.
func (h *AttendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req attendance.CheckInRequest
	if !decodeJSON(w, r, &req, "CheckIn") {
		return
	}
	if req.EmployeeID == "" {
		req.EmployeeID = claims.EmployeeID
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	if !selfOrManager(w, claims, req.EmployeeID) {
		return
	}

	record, err := h.attendanceService.ClassifyCheckIn(r.Context(), claims.CompanyID, req.EmployeeID, req.Time(h.now()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Check-in recorded", attendance.NewAttendanceResponse(record))
}

// Approve implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req attendance.ApproveAttendanceRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, "ApproveAttendance") {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ApproverID = claims.UserID
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.attendanceService.ApproveAttendance(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance approved", attendance.NewAttendanceResponse(record))
}

// Reject implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req attendance.RejectAttendanceRequest
	if !decodeJSON(w, r, &req, "RejectAttendance") {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ApproverID = claims.UserID
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.attendanceService.RejectAttendance(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance rejected", attendance.NewAttendanceResponse(record))
}

// List implements AttendanceHandler.
// GET /attendance?employee_id=&month=&year=
func (h *AttendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		employeeID = claims.EmployeeID
	}
	if !selfOrManager(w, claims, employeeID) {
		return
	}
	month, year, err := periodQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	records, err := h.attendanceService.ListAttendance(r.Context(), claims.CompanyID, employeeID, month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, attendance.NewAttendanceResponse(rec))
	}
	response.Success(w, out)
}

// CloseDay implements AttendanceHandler.
// POST /attendance/close-day?date=YYYY-MM-DD
func (h *AttendanceHandlerImpl) CloseDay(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	date, valid := validator.IsValidDate(r.URL.Query().Get("date"))
	if !valid {
		response.HandleError(w, validator.Single("date", "must be a date in YYYY-MM-DD format"))
		return
	}

	n, err := h.attendanceService.CloseDay(r.Context(), claims.CompanyID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{"date": date.Format("2006-01-02"), "records_created": n})
}
