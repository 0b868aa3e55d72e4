package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/shopspring/decimal"
)

// Aggregate combines evaluated components, statutory contributions and
// manual adjustments into the period totals. Inputs are already rounded and
// sums are not rounded again.
func Aggregate(eval payroll.Evaluation, stat payroll.StatutoryBreakdown, adjustments []payroll.Adjustment) payroll.Totals {
	gross := sumItems(eval.Earnings)
	deductions := sumItems(eval.Deductions).Add(stat.EmployeeTotal)

	adjustmentTotal := decimal.Zero
	for _, adj := range adjustments {
		switch adj.Category {
		case salary.CategoryEarning:
			adjustmentTotal = adjustmentTotal.Add(adj.Amount)
		case salary.CategoryDeduction:
			adjustmentTotal = adjustmentTotal.Sub(adj.Amount)
		}
	}

	return payroll.Totals{
		GrossEarnings:   gross,
		TotalDeductions: deductions,
		AdjustmentTotal: adjustmentTotal,
		NetPayable:      gross.Sub(deductions).Add(adjustmentTotal),
		CTC:             gross.Add(sumItems(eval.EmployerContributions)).Add(stat.EmployerTotal),
	}
}

func sumItems(items []payroll.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}
