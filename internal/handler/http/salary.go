package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type SalaryHandler interface {
	// Components
	CreateComponent(w http.ResponseWriter, r *http.Request)
	ListComponents(w http.ResponseWriter, r *http.Request)
	DeactivateComponent(w http.ResponseWriter, r *http.Request)

	// Structures
	ActivateStructure(w http.ResponseWriter, r *http.Request)
	ListStructures(w http.ResponseWriter, r *http.Request)
	GetEffectiveStructure(w http.ResponseWriter, r *http.Request)
}

type salaryHandlerImpl struct {
	salaryService salary.SalaryService
}

func NewSalaryHandler(salaryService salary.SalaryService) SalaryHandler {
	return &salaryHandlerImpl{salaryService: salaryService}
}

// ========== COMPONENTS ==========

func (h *salaryHandlerImpl) CreateComponent(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req salary.CreateComponentRequest
	if !decodeJSON(w, r, &req, "CreateComponent") {
		return
	}

	component, err := h.salaryService.CreateComponent(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary component created", salary.NewComponentResponse(component))
}

func (h *salaryHandlerImpl) ListComponents(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	components, err := h.salaryService.ListComponents(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]salary.ComponentResponse, 0, len(components))
	for _, c := range components {
		out = append(out, salary.NewComponentResponse(c))
	}
	response.Success(w, out)
}

func (h *salaryHandlerImpl) DeactivateComponent(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	code := chi.URLParam(r, "code")
	if !validator.IsValidComponentCode(code) {
		response.BadRequest(w, "Invalid component code", nil)
		return
	}

	if err := h.salaryService.DeactivateComponent(r.Context(), claims.CompanyID, code); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary component deactivated", nil)
}

// ========== STRUCTURES ==========

func (h *salaryHandlerImpl) ActivateStructure(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req salary.CreateStructureRequest
	if !decodeJSON(w, r, &req, "ActivateStructure") {
		return
	}

	structure, err := h.salaryService.ActivateStructure(r.Context(), claims.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary structure activated", salary.NewStructureResponse(structure))
}

// ListStructures - GET /salary/structures/{employeeID}
func (h *salaryHandlerImpl) ListStructures(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if !selfOrManager(w, claims, employeeID) {
		return
	}

	structures, err := h.salaryService.ListStructures(r.Context(), claims.CompanyID, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]salary.StructureResponse, 0, len(structures))
	for _, s := range structures {
		out = append(out, salary.NewStructureResponse(s))
	}
	response.Success(w, out)
}

// GetEffectiveStructure - GET /salary/structures/{employeeID}/effective?date=YYYY-MM-DD
func (h *salaryHandlerImpl) GetEffectiveStructure(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if !selfOrManager(w, claims, employeeID) {
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, valid := validator.IsValidDate(raw)
		if !valid {
			response.HandleError(w, validator.Single("date", "must be a date in YYYY-MM-DD format"))
			return
		}
		day = parsed
	}

	structure, err := h.salaryService.GetEffectiveStructure(r.Context(), claims.CompanyID, employeeID, day)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, salary.NewStructureResponse(structure))
}
