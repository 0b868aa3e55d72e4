package payroll

import (
	"fmt"
	"sort"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/formula"
	"github.com/shopspring/decimal"
)

// ComponentEvaluator computes the amount of every component of a structure.
type ComponentEvaluator struct {
	formulas *formula.Evaluator
}

func NewComponentEvaluator(formulas *formula.Evaluator) *ComponentEvaluator {
	return &ComponentEvaluator{formulas: formulas}
}

type resolvedComponent struct {
	def      salary.ComponentDefinition
	assigned salary.StructureComponent
	base     decimal.Decimal
	amount   decimal.Decimal
	failed   bool
}

// Evaluate runs the two-pass evaluation. A component that cannot be computed
// is zeroed and reported; the returned Evaluation is complete either way and
// the error, if any, is a *payroll.ComponentEvaluationError.
func (e *ComponentEvaluator) Evaluate(
	structure salary.Structure,
	definitions map[string]salary.ComponentDefinition,
	summary payroll.AttendanceSummary,
) (payroll.Evaluation, error) {
	var (
		eval       payroll.Evaluation
		components []*resolvedComponent
	)

	assigned := append([]salary.StructureComponent(nil), structure.Components...)
	sort.SliceStable(assigned, func(i, j int) bool {
		if assigned[i].Order != assigned[j].Order {
			return assigned[i].Order < assigned[j].Order
		}
		return assigned[i].Code < assigned[j].Code
	})

	codes := make([]string, 0, len(assigned))
	for _, a := range assigned {
		def, ok := definitions[a.Code]
		if !ok || !def.IsActive {
			eval.Errors = append(eval.Errors, payroll.ComponentError{Code: a.Code, Message: "component definition missing or inactive"})
			continue
		}
		components = append(components, &resolvedComponent{def: def, assigned: a})
		codes = append(codes, a.Code)
	}

	base, baseErr := baseAmount(structure, definitions)
	payable := summary.PayableDays
	total := decimal.NewFromInt(int64(summary.TotalDays))

	symbols := formula.Symbols(codes...)
	vars := map[string]float64{
		formula.SymbolPayableDays: payable.InexactFloat64(),
		formula.SymbolTotalDays:   total.InexactFloat64(),
	}
	fail := func(c *resolvedComponent, err error) {
		c.failed = true
		c.base = decimal.Zero
		c.amount = decimal.Zero
		eval.Errors = append(eval.Errors, payroll.ComponentError{Code: c.def.Code, Message: err.Error()})
	}
	// settle records the pre-proration amount and the final amount.
	settle := func(c *resolvedComponent, amount decimal.Decimal) {
		c.base = roundUnit(amount)
		c.amount = roundUnit(prorate(amount, c.def.Prorated && isProratable(c.def.CalculationType), payable, total))
		vars[c.def.Code] = c.amount.InexactFloat64()
	}

	// Pass 1: everything that does not depend on gross.
	for _, c := range components {
		switch c.def.CalculationType {
		case salary.CalculationFlat:
			settle(c, c.assigned.Value)
		case salary.CalculationPercentOfBase:
			if baseErr != nil {
				fail(c, baseErr)
				continue
			}
			settle(c, base.Mul(c.assigned.Value).Div(hundred))
		case salary.CalculationPercentOfCTC:
			settle(c, structure.MonthlyCTC.Mul(c.assigned.Value).Div(hundred))
		case salary.CalculationFormula:
			if c.def.Formula == nil {
				fail(c, fmt.Errorf("formula is empty"))
				continue
			}
			v, err := e.formulas.Eval(*c.def.Formula, symbols, vars)
			if err != nil {
				fail(c, err)
				continue
			}
			settle(c, decimal.NewFromFloat(v))
		case salary.CalculationPercentOfGross:
			// second pass
		default:
			fail(c, fmt.Errorf("unknown calculation type %q", c.def.CalculationType))
		}
	}

	// Pass 2: percent of gross earnings and employer contributions on the
	// first-pass earnings subtotal.
	subtotal := decimal.Zero
	for _, c := range components {
		if c.def.Category == salary.CategoryEarning && c.def.CalculationType != salary.CalculationPercentOfGross {
			subtotal = subtotal.Add(c.amount)
		}
	}
	for _, c := range components {
		if c.def.CalculationType == salary.CalculationPercentOfGross && c.def.Category != salary.CategoryDeduction {
			settle(c, subtotal.Mul(c.assigned.Value).Div(hundred))
		}
	}

	// Percent of gross deductions use the final gross.
	gross := decimal.Zero
	for _, c := range components {
		if c.def.Category == salary.CategoryEarning {
			gross = gross.Add(c.amount)
		}
	}
	for _, c := range components {
		if c.def.CalculationType == salary.CalculationPercentOfGross && c.def.Category == salary.CategoryDeduction {
			settle(c, gross.Mul(c.assigned.Value).Div(hundred))
		}
	}

	for _, c := range components {
		item := payroll.LineItem{
			Code:            c.def.Code,
			Name:            c.def.Name,
			Category:        c.def.Category,
			CalculationType: c.def.CalculationType,
			BaseAmount:      c.base,
			Amount:          c.amount,
			Prorated:        c.def.Prorated && isProratable(c.def.CalculationType),
		}
		switch c.def.Category {
		case salary.CategoryEarning:
			eval.Earnings = append(eval.Earnings, item)
		case salary.CategoryDeduction:
			eval.Deductions = append(eval.Deductions, item)
		case salary.CategoryEmployerContribution:
			eval.EmployerContributions = append(eval.EmployerContributions, item)
		}
	}

	if len(eval.Errors) > 0 {
		return eval, &payroll.ComponentEvaluationError{Errors: eval.Errors}
	}
	return eval, nil
}

// baseAmount is the monthly value of the structure's base component, which
// must be a FLAT component.
func baseAmount(structure salary.Structure, definitions map[string]salary.ComponentDefinition) (decimal.Decimal, error) {
	b, ok := structure.Component(structure.BaseComponentCode)
	if !ok {
		return decimal.Zero, fmt.Errorf("base component %s is not part of the structure", structure.BaseComponentCode)
	}
	if def, ok := definitions[b.Code]; ok && def.CalculationType != salary.CalculationFlat {
		return decimal.Zero, fmt.Errorf("base component %s is %s, expected FLAT", b.Code, def.CalculationType)
	}
	return b.Value, nil
}

func isProratable(t salary.CalculationType) bool {
	switch t {
	case salary.CalculationFlat, salary.CalculationPercentOfBase, salary.CalculationPercentOfCTC:
		return true
	}
	return false
}

// prorate scales amount by payable/total when the component is prorated.
func prorate(amount decimal.Decimal, prorated bool, payable, total decimal.Decimal) decimal.Decimal {
	if !prorated || total.IsZero() {
		return amount
	}
	return amount.Mul(payable).Div(total)
}
