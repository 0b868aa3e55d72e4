package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== ATTENDANCE POLICY DTOs ==========

type DeductionRuleDTO struct {
	Enabled    bool            `json:"enabled"`
	Count      int             `json:"count" validate:"gte=0"`
	DeductDays decimal.Decimal `json:"deduct_days"`
}

type AttendancePolicyResponse struct {
	CompanyID     string           `json:"company_id"`
	FullDayBefore string           `json:"full_day_before"`
	LateBefore    string           `json:"late_before"`
	HalfDayBefore string           `json:"half_day_before"`
	GraceEnabled  bool             `json:"grace_enabled"`
	GraceMinutes  int              `json:"grace_minutes"`
	LateRule      DeductionRuleDTO `json:"late_rule"`
	HalfDayRule   DeductionRuleDTO `json:"half_day_rule"`
	WorkingDays   []string         `json:"working_days"`
	Timezone      string           `json:"timezone"`
	IsDefault     bool             `json:"is_default"`
}

type UpdateAttendancePolicyRequest struct {
	FullDayBefore string           `json:"full_day_before" validate:"required,hhmm"`
	LateBefore    string           `json:"late_before" validate:"required,hhmm"`
	HalfDayBefore string           `json:"half_day_before" validate:"required,hhmm"`
	GraceEnabled  bool             `json:"grace_enabled"`
	GraceMinutes  int              `json:"grace_minutes" validate:"gte=0,lte=240"`
	LateRule      DeductionRuleDTO `json:"late_rule"`
	HalfDayRule   DeductionRuleDTO `json:"half_day_rule"`
	WorkingDays   []string         `json:"working_days" validate:"required,min=1,dive,required"`
	Timezone      string           `json:"timezone" validate:"required"`
}

func (r *UpdateAttendancePolicyRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	if _, err := ParseWeekdays(r.WorkingDays); err != nil {
		errs = append(errs, validator.ValidationError{Field: "working_days", Message: err.Error()})
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		errs = append(errs, validator.ValidationError{Field: "timezone", Message: "must be a valid IANA timezone"})
	}
	if r.LateRule.DeductDays.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "late_rule.deduct_days", Message: "must be non-negative"})
	}
	if r.HalfDayRule.DeductDays.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "half_day_rule.deduct_days", Message: "must be non-negative"})
	}

	full, _ := validator.ParseClock(r.FullDayBefore)
	late, _ := validator.ParseClock(r.LateBefore)
	half, _ := validator.ParseClock(r.HalfDayBefore)
	if full > late || late > half {
		errs = append(errs, validator.ValidationError{Field: "late_before", Message: "boundaries must satisfy full_day_before <= late_before <= half_day_before"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToEntity converts a validated request into a policy.
func (r UpdateAttendancePolicyRequest) ToEntity(companyID string) AttendancePolicy {
	full, _ := validator.ParseClock(r.FullDayBefore)
	late, _ := validator.ParseClock(r.LateBefore)
	half, _ := validator.ParseClock(r.HalfDayBefore)
	mask, _ := ParseWeekdays(r.WorkingDays)

	return AttendancePolicy{
		CompanyID:     companyID,
		FullDayBefore: full,
		LateBefore:    late,
		HalfDayBefore: half,
		GraceEnabled:  r.GraceEnabled,
		GraceMinutes:  r.GraceMinutes,
		LateRule:      DeductionRule(r.LateRule),
		HalfDayRule:   DeductionRule(r.HalfDayRule),
		WorkingDays:   mask,
		Timezone:      r.Timezone,
	}
}

func NewAttendancePolicyResponse(p AttendancePolicy, isDefault bool) AttendancePolicyResponse {
	days := make([]string, 0, 7)
	for _, d := range p.WorkingDays.Days() {
		days = append(days, strings.ToLower(d.String()))
	}
	return AttendancePolicyResponse{
		CompanyID:     p.CompanyID,
		FullDayBefore: FormatClock(p.FullDayBefore),
		LateBefore:    FormatClock(p.LateBefore),
		HalfDayBefore: FormatClock(p.HalfDayBefore),
		GraceEnabled:  p.GraceEnabled,
		GraceMinutes:  p.GraceMinutes,
		LateRule:      DeductionRuleDTO(p.LateRule),
		HalfDayRule:   DeductionRuleDTO(p.HalfDayRule),
		WorkingDays:   days,
		Timezone:      p.Timezone,
		IsDefault:     isDefault,
	}
}

// FormatClock renders minutes of day as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseWeekdays accepts english weekday names, full or 3-letter, any case.
func ParseWeekdays(names []string) (WeekdayMask, error) {
	var mask WeekdayMask
	for _, name := range names {
		n := strings.ToLower(strings.TrimSpace(name))
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if n == full || n == full[:3] {
				mask[d] = true
				found = true
				break
			}
		}
		if !found {
			return WeekdayMask{}, fmt.Errorf("unknown weekday %q", name)
		}
	}
	return mask, nil
}

// ========== STATUTORY POLICY DTOs ==========

type PFPolicyDTO struct {
	Enabled         bool            `json:"enabled"`
	EmployeePercent decimal.Decimal `json:"employee_percent"`
	EmployerPercent decimal.Decimal `json:"employer_percent"`
	PensionPercent  decimal.Decimal `json:"pension_percent"`
	Ceiling         decimal.Decimal `json:"ceiling"`
}

type ESIPolicyDTO struct {
	Enabled         bool            `json:"enabled"`
	EmployeePercent decimal.Decimal `json:"employee_percent"`
	EmployerPercent decimal.Decimal `json:"employer_percent"`
	Ceiling         decimal.Decimal `json:"ceiling"`
}

type PTSlabDTO struct {
	Min    decimal.Decimal  `json:"min"`
	Max    *decimal.Decimal `json:"max,omitempty"`
	Amount decimal.Decimal  `json:"amount"`
}

type ProfessionalTaxDTO struct {
	Enabled bool        `json:"enabled"`
	Slabs   []PTSlabDTO `json:"slabs"`
}

type StatutoryPolicyResponse struct {
	CompanyID       string             `json:"company_id"`
	PF              PFPolicyDTO        `json:"pf"`
	ESI             ESIPolicyDTO       `json:"esi"`
	ProfessionalTax ProfessionalTaxDTO `json:"professional_tax"`
	IsDefault       bool               `json:"is_default"`
}

type UpdateStatutoryPolicyRequest struct {
	PF              PFPolicyDTO        `json:"pf"`
	ESI             ESIPolicyDTO       `json:"esi"`
	ProfessionalTax ProfessionalTaxDTO `json:"professional_tax"`
}

func (r *UpdateStatutoryPolicyRequest) Validate() error {
	if err := r.ToEntity("").Validate(); err != nil {
		return validator.Single("statutory", "percentages, ceilings and slab amounts must be non-negative, pension cannot exceed the employer share and slab max must not be below min")
	}
	return nil
}

func (r UpdateStatutoryPolicyRequest) ToEntity(companyID string) StatutoryPolicy {
	slabs := make([]PTSlab, 0, len(r.ProfessionalTax.Slabs))
	for _, s := range r.ProfessionalTax.Slabs {
		slabs = append(slabs, PTSlab(s))
	}
	return StatutoryPolicy{
		CompanyID: companyID,
		PF:        PFPolicy(r.PF),
		ESI:       ESIPolicy(r.ESI),
		ProfessionalTax: ProfessionalTaxPolicy{
			Enabled: r.ProfessionalTax.Enabled,
			Slabs:   slabs,
		},
	}
}

func NewStatutoryPolicyResponse(p StatutoryPolicy, isDefault bool) StatutoryPolicyResponse {
	slabs := make([]PTSlabDTO, 0, len(p.ProfessionalTax.Slabs))
	for _, s := range p.ProfessionalTax.Slabs {
		slabs = append(slabs, PTSlabDTO(s))
	}
	return StatutoryPolicyResponse{
		CompanyID: p.CompanyID,
		PF:        PFPolicyDTO(p.PF),
		ESI:       ESIPolicyDTO(p.ESI),
		ProfessionalTax: ProfessionalTaxDTO{
			Enabled: p.ProfessionalTax.Enabled,
			Slabs:   slabs,
		},
		IsDefault: isDefault,
	}
}

// ========== HOLIDAY DTOs ==========

type CreateHolidayRequest struct {
	Date string `json:"date" validate:"required,date"`
	Name string `json:"name" validate:"required,max=100"`
}

func (r *CreateHolidayRequest) Validate() error {
	return validator.Struct(r)
}

type HolidayResponse struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

func NewHolidayResponse(h Holiday) HolidayResponse {
	return HolidayResponse{ID: h.ID, Date: h.Date.Format("2006-01-02"), Name: h.Name}
}
