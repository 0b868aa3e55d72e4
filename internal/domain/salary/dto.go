package salary

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== COMPONENT DTOs ==========

type CreateComponentRequest struct {
	Code            string  `json:"code" validate:"required,componentcode"`
	Name            string  `json:"name" validate:"required,max=100"`
	Category        string  `json:"category" validate:"required"`
	CalculationType string  `json:"calculation_type" validate:"required"`
	Formula         *string `json:"formula,omitempty"`
	Prorated        bool    `json:"prorated"`
}

func (r *CreateComponentRequest) Validate() error {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Category = strings.ToUpper(r.Category)
	r.CalculationType = strings.ToUpper(r.CalculationType)

	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	if !validator.IsInSlice(r.Category, Categories) {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "must be one of " + strings.Join(Categories, ", ")})
	}
	if !validator.IsInSlice(r.CalculationType, CalculationTypes) {
		errs = append(errs, validator.ValidationError{Field: "calculation_type", Message: "must be one of " + strings.Join(CalculationTypes, ", ")})
	}
	isFormula := CalculationType(r.CalculationType) == CalculationFormula
	if isFormula && (r.Formula == nil || validator.IsEmpty(*r.Formula)) {
		errs = append(errs, validator.ValidationError{Field: "formula", Message: "is required for FORMULA components"})
	}
	if !isFormula && r.Formula != nil {
		errs = append(errs, validator.ValidationError{Field: "formula", Message: "is only allowed for FORMULA components"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ComponentResponse struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Category        Category        `json:"category"`
	CalculationType CalculationType `json:"calculation_type"`
	Formula         *string         `json:"formula,omitempty"`
	Prorated        bool            `json:"prorated"`
	IsActive        bool            `json:"is_active"`
}

func NewComponentResponse(d ComponentDefinition) ComponentResponse {
	return ComponentResponse{
		Code:            d.Code,
		Name:            d.Name,
		Category:        d.Category,
		CalculationType: d.CalculationType,
		Formula:         d.Formula,
		Prorated:        d.Prorated,
		IsActive:        d.IsActive,
	}
}

// ========== STRUCTURE DTOs ==========

type StructureComponentRequest struct {
	Code  string          `json:"code" validate:"required,componentcode"`
	Value decimal.Decimal `json:"value"`
	Order int             `json:"order" validate:"gte=0"`
}

type CreateStructureRequest struct {
	EmployeeID        string                      `json:"employee_id" validate:"required,uuid"`
	EffectiveFrom     string                      `json:"effective_from" validate:"required,date"`
	MonthlyCTC        decimal.Decimal             `json:"monthly_ctc"`
	BaseComponentCode string                      `json:"base_component_code" validate:"required,componentcode"`
	Components        []StructureComponentRequest `json:"components" validate:"required,min=1,dive"`
}

func (r *CreateStructureRequest) Validate() error {
	r.BaseComponentCode = strings.ToUpper(strings.TrimSpace(r.BaseComponentCode))
	for i := range r.Components {
		r.Components[i].Code = strings.ToUpper(strings.TrimSpace(r.Components[i].Code))
	}

	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	if r.MonthlyCTC.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "monthly_ctc", Message: "must be non-negative"})
	}
	seen := make(map[string]bool, len(r.Components))
	hasBase := false
	for _, c := range r.Components {
		if seen[c.Code] {
			errs = append(errs, validator.ValidationError{Field: "components", Message: "duplicate component " + c.Code})
		}
		seen[c.Code] = true
		if c.Value.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: "components", Message: "value of " + c.Code + " must be non-negative"})
		}
		if c.Code == r.BaseComponentCode {
			hasBase = true
		}
	}
	if !hasBase {
		errs = append(errs, validator.ValidationError{Field: "base_component_code", Message: ErrBaseComponentMissing.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r CreateStructureRequest) ToEntity(companyID string) Structure {
	from, _ := time.Parse("2006-01-02", r.EffectiveFrom)
	components := make([]StructureComponent, 0, len(r.Components))
	for _, c := range r.Components {
		components = append(components, StructureComponent(c))
	}
	return Structure{
		CompanyID:         companyID,
		EmployeeID:        r.EmployeeID,
		EffectiveFrom:     from,
		MonthlyCTC:        r.MonthlyCTC,
		BaseComponentCode: r.BaseComponentCode,
		Components:        components,
	}
}

type StructureResponse struct {
	ID                string               `json:"id"`
	EmployeeID        string               `json:"employee_id"`
	EffectiveFrom     string               `json:"effective_from"`
	EffectiveTo       *string              `json:"effective_to,omitempty"`
	MonthlyCTC        decimal.Decimal      `json:"monthly_ctc"`
	BaseComponentCode string               `json:"base_component_code"`
	Components        []StructureComponent `json:"components"`
}

func NewStructureResponse(s Structure) StructureResponse {
	resp := StructureResponse{
		ID:                s.ID,
		EmployeeID:        s.EmployeeID,
		EffectiveFrom:     s.EffectiveFrom.Format("2006-01-02"),
		MonthlyCTC:        s.MonthlyCTC,
		BaseComponentCode: s.BaseComponentCode,
		Components:        s.Components,
	}
	if s.EffectiveTo != nil {
		to := s.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &to
	}
	return resp
}
