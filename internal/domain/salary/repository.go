package salary

import (
	"context"
	"time"
)

// ComponentRepository - interface for salary_components table
type ComponentRepository interface {
	Create(ctx context.Context, def ComponentDefinition) (ComponentDefinition, error)
	GetByCode(ctx context.Context, companyID, code string) (ComponentDefinition, error)
	ListByCompany(ctx context.Context, companyID string, activeOnly bool) ([]ComponentDefinition, error)
	Update(ctx context.Context, def ComponentDefinition) error
}

// StructureRepository - interface for salary_structures table
type StructureRepository interface {
	Create(ctx context.Context, s Structure) (Structure, error)
	// GetOpen returns the structure with no end date, ErrStructureNotFound when none
	GetOpen(ctx context.Context, employeeID, companyID string) (Structure, error)
	// GetEffective returns the structure covering day, ErrNoActiveStructure when none
	GetEffective(ctx context.Context, employeeID string, day time.Time, companyID string) (Structure, error)
	// Close sets EffectiveTo on an open structure
	Close(ctx context.Context, id string, effectiveTo time.Time, companyID string) error
	ListByEmployee(ctx context.Context, employeeID, companyID string) ([]Structure, error)
}
