package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Calculation
	Calculate(w http.ResponseWriter, r *http.Request)
	BulkCalculate(w http.ResponseWriter, r *http.Request)

	// Payroll Records
	GetPayrollRecord(w http.ResponseWriter, r *http.Request)
	ListPayrollRecords(w http.ResponseWriter, r *http.Request)
	GetPayrollHistory(w http.ResponseWriter, r *http.Request)

	// Workflow
	Submit(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Process(w http.ResponseWriter, r *http.Request)
	Revise(w http.ResponseWriter, r *http.Request)

	// Adjustments
	AddAdjustment(w http.ResponseWriter, r *http.Request)
	ListAdjustments(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== CALCULATION ==========

func (h *payrollHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req payroll.CalculatePayrollRequest
	if !decodeJSON(w, r, &req, "CalculatePayroll") {
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.payrollService.CalculatePayroll(r.Context(), claims.CompanyID, req.EmployeeID, time.Month(req.Month), req.Year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll calculated", payroll.NewPayrollRecordResponse(record))
}

func (h *payrollHandlerImpl) BulkCalculate(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req payroll.BulkCalculateRequest
	if !decodeJSON(w, r, &req, "BulkCalculatePayroll") {
		return
	}

	result, err := h.payrollService.BulkCalculatePayroll(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewBulkResultResponse(result))
}

// ========== PAYROLL RECORDS ==========

func (h *payrollHandlerImpl) GetPayrollRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	record, err := h.payrollService.GetPayrollRecord(r.Context(), claims.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !selfOrManager(w, claims, record.EmployeeID) {
		return
	}

	response.Success(w, payroll.NewPayrollRecordResponse(record))
}

func (h *payrollHandlerImpl) ListPayrollRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := payroll.PayrollFilter{Page: 1, Limit: 20}

	if pageStr := q.Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if monthStr := q.Get("period_month"); monthStr != "" {
		month, err := validator.ParseMonth(monthStr)
		if err != nil {
			response.HandleError(w, validator.Single("period_month", "must be between 1 and 12 or a month name"))
			return
		}
		m := int(month)
		filter.PeriodMonth = &m
	}
	if yearStr := q.Get("period_year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			filter.PeriodYear = &year
		}
	}
	if status := q.Get("status"); status != "" {
		filter.Status = &status
	}
	if employeeID := q.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}

	// employees only ever see their own payslips
	if !claims.IsManager() {
		filter.EmployeeID = &claims.EmployeeID
	}
	filter.Normalize()

	records, total, err := h.payrollService.ListPayrollRecords(r.Context(), claims.CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	data := make([]payroll.PayrollRecordResponse, 0, len(records))
	for _, rec := range records {
		data = append(data, payroll.NewPayrollRecordResponse(rec))
	}

	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit != 0 {
		totalPages++
	}
	response.SuccessWithMeta(w, data, &response.Meta{
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

func (h *payrollHandlerImpl) GetPayrollHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	history, err := h.payrollService.GetPayrollHistory(r.Context(), claims.CompanyID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if len(history) > 0 && !selfOrManager(w, claims, history[0].EmployeeID) {
		return
	}

	data := make([]payroll.PayrollRecordResponse, 0, len(history))
	for _, rec := range history {
		data = append(data, payroll.NewPayrollRecordResponse(rec))
	}
	response.Success(w, data)
}

// ========== WORKFLOW ==========

func (h *payrollHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	record, err := h.payrollService.SubmitPayroll(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll submitted for approval", payroll.NewPayrollRecordResponse(record))
}

func (h *payrollHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	record, err := h.payrollService.ApprovePayroll(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll approved", payroll.NewPayrollRecordResponse(record))
}

func (h *payrollHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req payroll.DecisionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, "RejectPayroll") {
		return
	}
	if err := validator.Struct(&req); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.payrollService.RejectPayroll(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), claims.UserID, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll rejected", payroll.NewPayrollRecordResponse(record))
}

func (h *payrollHandlerImpl) Process(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	record, err := h.payrollService.ProcessPayroll(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll processed", payroll.NewPayrollRecordResponse(record))
}

func (h *payrollHandlerImpl) Revise(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req payroll.RevisePayrollRequest
	if !decodeJSON(w, r, &req, "RevisePayroll") {
		return
	}
	if err := validator.Struct(&req); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.payrollService.RevisePayroll(r.Context(), claims.CompanyID, chi.URLParam(r, "id"), claims.UserID, req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll revision created", payroll.NewPayrollRecordResponse(record))
}

// ========== ADJUSTMENTS ==========

func (h *payrollHandlerImpl) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req payroll.AddAdjustmentRequest
	if !decodeJSON(w, r, &req, "AddAdjustment") {
		return
	}

	adj, err := h.payrollService.AddAdjustment(r.Context(), claims.CompanyID, claims.UserID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Adjustment recorded", adj)
}

// ListAdjustments - GET /payroll/adjustments?employee_id=&month=&year=
func (h *payrollHandlerImpl) ListAdjustments(w http.ResponseWriter, r *http.Request) {
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

	adjustments, err := h.payrollService.ListAdjustments(r.Context(), claims.CompanyID, employeeID, month, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if adjustments == nil {
		adjustments = []payroll.Adjustment{}
	}

	response.Success(w, adjustments)
}
