package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PolicyHandler interface {
	GetAttendancePolicy(w http.ResponseWriter, r *http.Request)
	UpdateAttendancePolicy(w http.ResponseWriter, r *http.Request)
	GetStatutoryPolicy(w http.ResponseWriter, r *http.Request)
	UpdateStatutoryPolicy(w http.ResponseWriter, r *http.Request)

	CreateHoliday(w http.ResponseWriter, r *http.Request)
	ListHolidays(w http.ResponseWriter, r *http.Request)
	DeleteHoliday(w http.ResponseWriter, r *http.Request)
}

type policyHandlerImpl struct {
	policyService policy.PolicyService
}

func NewPolicyHandler(policyService policy.PolicyService) PolicyHandler {
	return &policyHandlerImpl{policyService: policyService}
}

func (h *policyHandlerImpl) GetAttendancePolicy(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	result, err := h.policyService.GetAttendancePolicy(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *policyHandlerImpl) UpdateAttendancePolicy(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req policy.UpdateAttendancePolicyRequest
	if !decodeJSON(w, r, &req, "UpdateAttendancePolicy") {
		return
	}

	result, err := h.policyService.UpdateAttendancePolicy(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance policy updated", result)
}

func (h *policyHandlerImpl) GetStatutoryPolicy(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	result, err := h.policyService.GetStatutoryPolicy(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *policyHandlerImpl) UpdateStatutoryPolicy(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req policy.UpdateStatutoryPolicyRequest
	if !decodeJSON(w, r, &req, "UpdateStatutoryPolicy") {
		return
	}

	result, err := h.policyService.UpdateStatutoryPolicy(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Statutory policy updated", result)
}

// ========== HOLIDAYS ==========

func (h *policyHandlerImpl) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req policy.CreateHolidayRequest
	if !decodeJSON(w, r, &req, "CreateHoliday") {
		return
	}

	result, err := h.policyService.CreateHoliday(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Holiday created", result)
}

func (h *policyHandlerImpl) ListHolidays(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	year, err := yearQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.policyService.ListHolidays(r.Context(), claims.CompanyID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if result == nil {
		result = []policy.HolidayResponse{}
	}

	response.Success(w, result)
}

func (h *policyHandlerImpl) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	if err := h.policyService.DeleteHoliday(r.Context(), claims.CompanyID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Holiday deleted", nil)
}
