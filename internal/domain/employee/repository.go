package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
	// Create is used by seeding and tests, the directory is owned elsewhere
	Create(ctx context.Context, e Employee) (Employee, error)
}
