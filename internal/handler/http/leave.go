package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	CreateType(w http.ResponseWriter, r *http.Request)
	ListTypes(w http.ResponseWriter, r *http.Request)

	GetBalance(w http.ResponseWriter, r *http.Request)

	ListRequests(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	CreateRequest(w http.ResponseWriter, r *http.Request)
	ApproveRequest(w http.ResponseWriter, r *http.Request)
	RejectRequest(w http.ResponseWriter, r *http.Request)
	CancelRequest(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{leaveService: leaveService}
}

// CreateType implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateType(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req leave.CreateLeaveTypeRequest
	if !decodeJSON(w, r, &req, "CreateLeaveType") {
		return
	}

	lt, err := l.leaveService.CreateLeaveType(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave type created", leave.NewLeaveTypeResponse(lt))
}

// ListTypes implements LeaveHandler.
func (l *LeaveHandlerImpl) ListTypes(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	types, err := l.leaveService.ListLeaveTypes(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]leave.LeaveTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, leave.NewLeaveTypeResponse(t))
	}
	response.Success(w, out)
}

// GetBalance implements LeaveHandler.
// GET /leave/balances/{employeeID}?year=
func (l *LeaveHandlerImpl) GetBalance(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if !selfOrManager(w, claims, employeeID) {
		return
	}
	year, err := yearQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	balance, err := l.leaveService.GetBalance(r.Context(), claims.CompanyID, employeeID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, leave.NewLeaveBalanceResponse(balance))
}

// ListRequests implements LeaveHandler.
// GET /leave/requests?employee_id=&year=
func (l *LeaveHandlerImpl) ListRequests(w http.ResponseWriter, r *http.Request) {
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
	year, err := yearQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	requests, err := l.leaveService.ListRequests(r.Context(), claims.CompanyID, employeeID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, leave.NewLeaveRequestResponse(req))
	}
	response.Success(w, out)
}

// GetRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	req, err := l.leaveService.GetRequest(r.Context(), claims.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !selfOrManager(w, claims, req.EmployeeID) {
		return
	}

	response.Success(w, leave.NewLeaveRequestResponse(req))
}

// CreateRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req leave.ApplyLeaveRequest
	if !decodeJSON(w, r, &req, "CreateLeaveRequest") {
		return
	}
	if req.EmployeeID == "" {
		req.EmployeeID = claims.EmployeeID
	}
	if !selfOrManager(w, claims, req.EmployeeID) {
		return
	}

	created, err := l.leaveService.ApplyLeave(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted", leave.NewLeaveRequestResponse(created))
}

// ApproveRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	approved, err := l.leaveService.ApproveLeave(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request approved", leave.NewLeaveRequestResponse(approved))
}

// RejectRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) RejectRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req leave.DecideLeaveRequest
	if !decodeJSON(w, r, &req, "RejectLeaveRequest") {
		return
	}
	if err := validator.Struct(&req); err != nil {
		response.HandleError(w, err)
		return
	}

	rejected, err := l.leaveService.RejectLeave(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), claims.UserID, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request rejected", leave.NewLeaveRequestResponse(rejected))
}

// CancelRequest implements LeaveHandler. Employees may cancel their own requests.
func (l *LeaveHandlerImpl) CancelRequest(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if !claims.IsManager() {
		existing, err := l.leaveService.GetRequest(r.Context(), claims.CompanyID, id)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		if !selfOrManager(w, claims, existing.EmployeeID) {
			return
		}
	}

	cancelled, err := l.leaveService.CancelLeave(r.Context(), claims.CompanyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request cancelled", leave.NewLeaveRequestResponse(cancelled))
}
