package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// percentOf returns base * percent / 100 rounded to a whole unit.
func percentOf(base, percent decimal.Decimal) decimal.Decimal {
	return roundUnit(base.Mul(percent).Div(hundred))
}

// roundUnit rounds half away from zero to a whole currency unit.
func roundUnit(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// CalculateStatutory computes PF, ESI and professional tax on gross.
func CalculateStatutory(gross decimal.Decimal, p policy.StatutoryPolicy) payroll.StatutoryBreakdown {
	var b payroll.StatutoryBreakdown

	if p.PF.Enabled {
		b.PFBase = decimal.Min(gross, p.PF.Ceiling)
		b.PFEmployee = percentOf(b.PFBase, p.PF.EmployeePercent)
		b.PFEmployer = percentOf(b.PFBase, p.PF.EmployerPercent)
		b.PFPension = percentOf(b.PFBase, p.PF.PensionPercent)
	}

	// ESI is a step function: at or below the ceiling the whole gross is
	// contributory, above it nothing is.
	if p.ESI.Enabled && gross.LessThanOrEqual(p.ESI.Ceiling) {
		b.ESIApplicable = true
		b.ESIEmployee = percentOf(gross, p.ESI.EmployeePercent)
		b.ESIEmployer = percentOf(gross, p.ESI.EmployerPercent)
	}

	if p.ProfessionalTax.Enabled {
		for _, slab := range p.ProfessionalTax.Slabs {
			if slab.Contains(gross) {
				b.ProfessionalTax = slab.Amount
				break
			}
		}
	}

	b.EmployeeTotal = b.PFEmployee.Add(b.ESIEmployee).Add(b.ProfessionalTax)
	b.EmployerTotal = b.PFEmployer.Add(b.ESIEmployer)
	return b
}
