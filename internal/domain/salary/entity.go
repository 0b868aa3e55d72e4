package salary

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category of a salary component
type Category string

const (
	CategoryEarning              Category = "EARNING"
	CategoryDeduction            Category = "DEDUCTION"
	CategoryEmployerContribution Category = "EMPLOYER_CONTRIBUTION"
)

// CalculationType of a salary component
type CalculationType string

const (
	CalculationFlat           CalculationType = "FLAT"
	CalculationPercentOfBase  CalculationType = "PERCENT_OF_BASE"
	CalculationPercentOfGross CalculationType = "PERCENT_OF_GROSS"
	CalculationPercentOfCTC   CalculationType = "PERCENT_OF_CTC"
	CalculationFormula        CalculationType = "FORMULA"
)

var (
	Categories       = []string{string(CategoryEarning), string(CategoryDeduction), string(CategoryEmployerContribution)}
	CalculationTypes = []string{
		string(CalculationFlat), string(CalculationPercentOfBase), string(CalculationPercentOfGross),
		string(CalculationPercentOfCTC), string(CalculationFormula),
	}
)

// ComponentDefinition - company-wide definition of a salary component.
// Code doubles as the formula symbol.
type ComponentDefinition struct {
	ID              string
	CompanyID       string
	Code            string
	Name            string
	Category        Category
	CalculationType CalculationType
	Formula         *string
	Prorated        bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StructureComponent - value assigned to one component in a structure.
// Value is an amount for FLAT, a percentage for PERCENT_* and unused for FORMULA.
type StructureComponent struct {
	Code  string          `json:"code"`
	Value decimal.Decimal `json:"value"`
	Order int             `json:"order"`
}

// Structure - versioned salary structure of an employee.
// EffectiveTo nil means open ended.
type Structure struct {
	ID                string
	CompanyID         string
	EmployeeID        string
	EffectiveFrom     time.Time
	EffectiveTo       *time.Time
	MonthlyCTC        decimal.Decimal
	BaseComponentCode string
	Components        []StructureComponent
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Covers reports whether the structure is effective on day.
func (s Structure) Covers(day time.Time) bool {
	if day.Before(s.EffectiveFrom) {
		return false
	}
	return s.EffectiveTo == nil || !day.After(*s.EffectiveTo)
}

// Component returns the assigned component for code.
func (s Structure) Component(code string) (StructureComponent, bool) {
	for _, c := range s.Components {
		if c.Code == code {
			return c, true
		}
	}
	return StructureComponent{}, false
}
