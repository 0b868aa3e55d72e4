package salary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/formula"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

var reservedCodes = map[string]bool{
	formula.SymbolPayableDays: true,
	formula.SymbolTotalDays:   true,
}

type SalaryServiceImpl struct {
	tx            database.Transactor
	componentRepo salary.ComponentRepository
	structureRepo salary.StructureRepository
	employeeRepo  employee.EmployeeRepository
	formulas      *formula.Evaluator
}

func NewSalaryService(
	tx database.Transactor,
	componentRepo salary.ComponentRepository,
	structureRepo salary.StructureRepository,
	employeeRepo employee.EmployeeRepository,
	formulas *formula.Evaluator,
) salary.SalaryService {
	return &SalaryServiceImpl{
		tx:            tx,
		componentRepo: componentRepo,
		structureRepo: structureRepo,
		employeeRepo:  employeeRepo,
		formulas:      formulas,
	}
}

// ========== COMPONENTS ==========

// catalog returns the company component definitions. A company without any
// gets the baseline catalog persisted on first use.
func (s *SalaryServiceImpl) catalog(ctx context.Context, companyID string) ([]salary.ComponentDefinition, error) {
	defs, err := s.componentRepo.ListByCompany(ctx, companyID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get salary components: %w", err)
	}
	if len(defs) > 0 {
		return defs, nil
	}

	seeded := make([]salary.ComponentDefinition, 0)
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		for _, def := range fixtures.GetDefaultComponents(companyID) {
			created, err := s.componentRepo.Create(txCtx, def)
			if err != nil {
				return err
			}
			seeded = append(seeded, created)
		}
		return nil
	})
	if errors.Is(err, salary.ErrComponentCodeExists) {
		// seeded concurrently
		return s.componentRepo.ListByCompany(ctx, companyID, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to seed salary components: %w", err)
	}

	slog.Info("salary component catalog seeded", "company_id", companyID, "count", len(seeded))
	return seeded, nil
}

// CreateComponent implements salary.SalaryService. A formula may only
// reference components that already exist.
func (s *SalaryServiceImpl) CreateComponent(ctx context.Context, companyID string, req salary.CreateComponentRequest) (salary.ComponentDefinition, error) {
	if err := req.Validate(); err != nil {
		return salary.ComponentDefinition{}, err
	}
	if reservedCodes[req.Code] {
		return salary.ComponentDefinition{}, salary.ErrReservedComponentCode
	}

	existing, err := s.catalog(ctx, companyID)
	if err != nil {
		return salary.ComponentDefinition{}, err
	}
	if req.Formula != nil {
		codes := make([]string, 0, len(existing))
		for _, d := range existing {
			codes = append(codes, d.Code)
		}
		if err := s.formulas.Check(*req.Formula, formula.Symbols(codes...)); err != nil {
			return salary.ComponentDefinition{}, fmt.Errorf("%w: %v", salary.ErrInvalidFormula, err)
		}
	}

	created, err := s.componentRepo.Create(ctx, salary.ComponentDefinition{
		CompanyID:       companyID,
		Code:            req.Code,
		Name:            req.Name,
		Category:        salary.Category(req.Category),
		CalculationType: salary.CalculationType(req.CalculationType),
		Formula:         req.Formula,
		Prorated:        req.Prorated,
		IsActive:        true,
	})
	if err != nil {
		return salary.ComponentDefinition{}, err
	}

	slog.Info("salary component created", "company_id", companyID, "code", created.Code, "calculation_type", created.CalculationType)
	return created, nil
}

func (s *SalaryServiceImpl) ListComponents(ctx context.Context, companyID string) ([]salary.ComponentDefinition, error) {
	return s.catalog(ctx, companyID)
}

func (s *SalaryServiceImpl) DeactivateComponent(ctx context.Context, companyID, code string) error {
	def, err := s.componentRepo.GetByCode(ctx, companyID, code)
	if err != nil {
		return err
	}
	if !def.IsActive {
		return nil
	}
	def.IsActive = false
	return s.componentRepo.Update(ctx, def)
}

// ========== STRUCTURES ==========

// ActivateStructure implements salary.SalaryService.
func (s *SalaryServiceImpl) ActivateStructure(ctx context.Context, companyID string, req salary.CreateStructureRequest) (salary.Structure, error) {
	if err := req.Validate(); err != nil {
		return salary.Structure{}, err
	}
	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID); err != nil {
		return salary.Structure{}, err
	}

	defs, err := s.catalog(ctx, companyID)
	if err != nil {
		return salary.Structure{}, err
	}
	known := make(map[string]salary.ComponentDefinition, len(defs))
	for _, d := range defs {
		known[d.Code] = d
	}
	for _, c := range req.Components {
		if d, ok := known[c.Code]; !ok || !d.IsActive {
			return salary.Structure{}, fmt.Errorf("%w: %s", salary.ErrUnknownComponent, c.Code)
		}
	}
	if known[req.BaseComponentCode].CalculationType != salary.CalculationFlat {
		return salary.Structure{}, validator.Single("base_component_code", "must reference a FLAT component")
	}

	structure := req.ToEntity(companyID)
	var created salary.Structure
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		open, err := s.structureRepo.GetOpen(txCtx, req.EmployeeID, companyID)
		switch {
		case errors.Is(err, salary.ErrStructureNotFound):
		case err != nil:
			return fmt.Errorf("failed to get open structure: %w", err)
		default:
			if !open.EffectiveFrom.Before(structure.EffectiveFrom) {
				return salary.ErrStructureOverlap
			}
			if err := s.structureRepo.Close(txCtx, open.ID, structure.EffectiveFrom.AddDate(0, 0, -1), companyID); err != nil {
				return err
			}
		}

		created, err = s.structureRepo.Create(txCtx, structure)
		return err
	})
	if err != nil {
		return salary.Structure{}, err
	}

	slog.Info("salary structure activated",
		"company_id", companyID,
		"employee_id", req.EmployeeID,
		"effective_from", created.EffectiveFrom.Format("2006-01-02"),
	)
	return created, nil
}

func (s *SalaryServiceImpl) GetEffectiveStructure(ctx context.Context, companyID, employeeID string, day time.Time) (salary.Structure, error) {
	return s.structureRepo.GetEffective(ctx, employeeID, day, companyID)
}

func (s *SalaryServiceImpl) ListStructures(ctx context.Context, companyID, employeeID string) ([]salary.Structure, error) {
	if _, err := s.employeeRepo.GetByID(ctx, employeeID, companyID); err != nil {
		return nil, err
	}
	return s.structureRepo.ListByEmployee(ctx, employeeID, companyID)
}
