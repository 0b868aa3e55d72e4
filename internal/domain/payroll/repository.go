package payroll

import "context"

// PayrollRepository defines data access methods for payroll records.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	// Create inserts a current record. ErrDuplicatePeriod when another current
	// record for the period exists.
	Create(ctx context.Context, record PayrollRecord) (PayrollRecord, error)
	GetByID(ctx context.Context, id string, companyID string) (PayrollRecord, error)
	GetCurrent(ctx context.Context, employeeID string, month, year int, companyID string) (PayrollRecord, error)

	// Supersede marks a current record as replaced. It is conditional on
	// version and returns ErrDuplicatePeriod when no row matched.
	Supersede(ctx context.Context, id string, version int64, companyID string) error

	// UpdateStatus writes the workflow fields, conditional on record.Version
	UpdateStatus(ctx context.Context, record PayrollRecord) (PayrollRecord, error)

	List(ctx context.Context, companyID string, filter PayrollFilter) ([]PayrollRecord, int64, error)
}

// AdjustmentRepository - interface for payroll_adjustments table
type AdjustmentRepository interface {
	Create(ctx context.Context, adj Adjustment) (Adjustment, error)
	ListByPeriod(ctx context.Context, employeeID string, month, year int, companyID string) ([]Adjustment, error)
}
