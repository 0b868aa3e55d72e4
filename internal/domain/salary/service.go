package salary

import (
	"context"
	"time"
)

// SalaryService manages component definitions and employee structures
type SalaryService interface {
	CreateComponent(ctx context.Context, companyID string, req CreateComponentRequest) (ComponentDefinition, error)
	ListComponents(ctx context.Context, companyID string) ([]ComponentDefinition, error)
	DeactivateComponent(ctx context.Context, companyID, code string) error

	// ActivateStructure stores a structure and closes the open one the day before
	ActivateStructure(ctx context.Context, companyID string, req CreateStructureRequest) (Structure, error)
	GetEffectiveStructure(ctx context.Context, companyID, employeeID string, day time.Time) (Structure, error)
	ListStructures(ctx context.Context, companyID, employeeID string) ([]Structure, error)
}
