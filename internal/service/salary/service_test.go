package salary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/formula"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCompanyID  = "company-1"
	testEmployeeID = "0199a3f0-0000-7000-8000-00000000e001"
)

type passThroughTx struct{}

func (passThroughTx) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeComponentRepo struct {
	defs map[string]salary.ComponentDefinition
}

func (f *fakeComponentRepo) Create(ctx context.Context, d salary.ComponentDefinition) (salary.ComponentDefinition, error) {
	if _, ok := f.defs[d.Code]; ok {
		return salary.ComponentDefinition{}, salary.ErrComponentCodeExists
	}
	d.ID = "def-" + d.Code
	f.defs[d.Code] = d
	return d, nil
}

func (f *fakeComponentRepo) GetByCode(ctx context.Context, companyID, code string) (salary.ComponentDefinition, error) {
	d, ok := f.defs[code]
	if !ok {
		return salary.ComponentDefinition{}, salary.ErrComponentNotFound
	}
	return d, nil
}

func (f *fakeComponentRepo) ListByCompany(ctx context.Context, companyID string, activeOnly bool) ([]salary.ComponentDefinition, error) {
	var out []salary.ComponentDefinition
	for _, d := range f.defs {
		if !activeOnly || d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeComponentRepo) Update(ctx context.Context, d salary.ComponentDefinition) error {
	f.defs[d.Code] = d
	return nil
}

type fakeStructureRepo struct {
	structures []salary.Structure
}

func (f *fakeStructureRepo) Create(ctx context.Context, s salary.Structure) (salary.Structure, error) {
	s.ID = "struct-" + s.EffectiveFrom.Format("2006-01-02")
	f.structures = append(f.structures, s)
	return s, nil
}

func (f *fakeStructureRepo) GetOpen(ctx context.Context, employeeID, companyID string) (salary.Structure, error) {
	for _, s := range f.structures {
		if s.EmployeeID == employeeID && s.EffectiveTo == nil {
			return s, nil
		}
	}
	return salary.Structure{}, salary.ErrStructureNotFound
}

func (f *fakeStructureRepo) GetEffective(ctx context.Context, employeeID string, day time.Time, companyID string) (salary.Structure, error) {
	for _, s := range f.structures {
		if s.EmployeeID == employeeID && s.Covers(day) {
			return s, nil
		}
	}
	return salary.Structure{}, salary.ErrNoActiveStructure
}

func (f *fakeStructureRepo) Close(ctx context.Context, id string, effectiveTo time.Time, companyID string) error {
	for i := range f.structures {
		if f.structures[i].ID == id {
			f.structures[i].EffectiveTo = &effectiveTo
			return nil
		}
	}
	return salary.ErrStructureNotFound
}

func (f *fakeStructureRepo) ListByEmployee(ctx context.Context, employeeID, companyID string) ([]salary.Structure, error) {
	return f.structures, nil
}

type fakeEmployeeRepo struct{}

func (fakeEmployeeRepo) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	if id != testEmployeeID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return employee.Employee{ID: id, CompanyID: companyID, EmploymentStatus: employee.EmploymentStatusActive}, nil
}

func (fakeEmployeeRepo) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return nil, nil
}

func (fakeEmployeeRepo) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	return e, nil
}

func newTestService() (salary.SalaryService, *fakeComponentRepo, *fakeStructureRepo) {
	components := &fakeComponentRepo{defs: map[string]salary.ComponentDefinition{
		"BASIC": {Code: "BASIC", Category: salary.CategoryEarning, CalculationType: salary.CalculationFlat, IsActive: true},
		"HRA":   {Code: "HRA", Category: salary.CategoryEarning, CalculationType: salary.CalculationPercentOfBase, IsActive: true},
	}}
	structures := &fakeStructureRepo{}
	svc := NewSalaryService(passThroughTx{}, components, structures, fakeEmployeeRepo{}, formula.NewEvaluator())
	return svc, components, structures
}

func strPtr(s string) *string { return &s }

func TestCreateComponent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     salary.CreateComponentRequest
		wantErr error
		wantMsg string
	}{
		{
			name: "flat earning",
			req:  salary.CreateComponentRequest{Code: "conveyance", Name: "Conveyance", Category: "earning", CalculationType: "flat", Prorated: true},
		},
		{
			name: "formula over existing components",
			req:  salary.CreateComponentRequest{Code: "OT", Name: "Overtime", Category: "EARNING", CalculationType: "FORMULA", Formula: strPtr("BASIC / TOTAL_DAYS * 2.0")},
		},
		{
			name:    "formula with unknown symbol",
			req:     salary.CreateComponentRequest{Code: "BONUS", Name: "Bonus", Category: "EARNING", CalculationType: "FORMULA", Formula: strPtr("SPECIAL * 0.1")},
			wantErr: salary.ErrInvalidFormula,
		},
		{
			name:    "integer literal against decimal symbols",
			req:     salary.CreateComponentRequest{Code: "DOUBLE_BASIC", Name: "Double Basic", Category: "EARNING", CalculationType: "FORMULA", Formula: strPtr("BASIC * 2")},
			wantErr: salary.ErrInvalidFormula,
			wantMsg: "2.0 instead of 2",
		},
		{
			name:    "reserved code",
			req:     salary.CreateComponentRequest{Code: "PAYABLE_DAYS", Name: "x", Category: "EARNING", CalculationType: "FLAT"},
			wantErr: salary.ErrReservedComponentCode,
		},
		{
			name:    "duplicate code",
			req:     salary.CreateComponentRequest{Code: "BASIC", Name: "Basic", Category: "EARNING", CalculationType: "FLAT"},
			wantErr: salary.ErrComponentCodeExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := svc.CreateComponent(ctx, testCompanyID, tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					assert.Contains(t, err.Error(), tt.wantMsg)
				}
				return
			}
			require.NoError(t, err)
			assert.True(t, created.IsActive)
			assert.Equal(t, testCompanyID, created.CompanyID)
		})
	}
}

func TestDeactivateComponent(t *testing.T) {
	svc, components, _ := newTestService()

	require.NoError(t, svc.DeactivateComponent(context.Background(), testCompanyID, "HRA"))
	assert.False(t, components.defs["HRA"].IsActive)

	err := svc.DeactivateComponent(context.Background(), testCompanyID, "NOPE")
	assert.ErrorIs(t, err, salary.ErrComponentNotFound)
}

func TestActivateStructure_ClosesPrevious(t *testing.T) {
	// Setup
	svc, _, structures := newTestService()
	ctx := context.Background()
	req := func(from string, basic int64) salary.CreateStructureRequest {
		return salary.CreateStructureRequest{
			EmployeeID:        testEmployeeID,
			EffectiveFrom:     from,
			MonthlyCTC:        decimal.NewFromInt(basic * 2),
			BaseComponentCode: "basic",
			Components: []salary.StructureComponentRequest{
				{Code: "basic", Value: decimal.NewFromInt(basic), Order: 1},
				{Code: "HRA", Value: decimal.NewFromInt(40), Order: 2},
			},
		}
	}

	// Act
	first, err := svc.ActivateStructure(ctx, testCompanyID, req("2025-01-01", 20000))
	require.NoError(t, err)
	second, err := svc.ActivateStructure(ctx, testCompanyID, req("2025-06-16", 25000))
	require.NoError(t, err)

	// Assert
	require.Len(t, structures.structures, 2)
	closed := structures.structures[0]
	require.NotNil(t, closed.EffectiveTo)
	assert.Equal(t, "2025-06-15", closed.EffectiveTo.Format("2006-01-02"))
	assert.Nil(t, second.EffectiveTo)
	assert.Equal(t, "BASIC", first.BaseComponentCode)

	// a mid-month change applies from the month where it is effective on the last day
	june, err := svc.GetEffectiveStructure(ctx, testCompanyID, testEmployeeID, time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, second.ID, june.ID)

	_, err = svc.ActivateStructure(ctx, testCompanyID, req("2025-06-01", 30000))
	assert.ErrorIs(t, err, salary.ErrStructureOverlap)
}

func TestActivateStructure_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ActivateStructure(ctx, testCompanyID, salary.CreateStructureRequest{
		EmployeeID:        testEmployeeID,
		EffectiveFrom:     "2025-01-01",
		BaseComponentCode: "BASIC",
		Components:        []salary.StructureComponentRequest{{Code: "BASIC", Value: decimal.NewFromInt(1)}, {Code: "LTA", Value: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, salary.ErrUnknownComponent)

	_, err = svc.ActivateStructure(ctx, testCompanyID, salary.CreateStructureRequest{
		EmployeeID:        testEmployeeID,
		EffectiveFrom:     "2025-01-01",
		BaseComponentCode: "BASIC",
		Components:        []salary.StructureComponentRequest{{Code: "HRA", Value: decimal.NewFromInt(40)}},
	})
	assert.Error(t, err)

	_, err = svc.ActivateStructure(ctx, testCompanyID, salary.CreateStructureRequest{
		EmployeeID:        "0199a3f0-0000-7000-8000-00000000ffff",
		EffectiveFrom:     "2025-01-01",
		BaseComponentCode: "BASIC",
		Components:        []salary.StructureComponentRequest{{Code: "BASIC", Value: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, salary.ErrEmployeeNotFound)

	_, err = svc.ActivateStructure(ctx, testCompanyID, salary.CreateStructureRequest{
		EmployeeID:        testEmployeeID,
		EffectiveFrom:     "2025-01-01",
		BaseComponentCode: "HRA",
		Components:        []salary.StructureComponentRequest{{Code: "BASIC", Value: decimal.NewFromInt(1)}, {Code: "HRA", Value: decimal.NewFromInt(40)}},
	})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "percent based component cannot be the base")
	assert.Equal(t, "base_component_code", verrs[0].Field)
}

func TestListComponents_SeedsBaselineCatalog(t *testing.T) {
	// Setup
	components := &fakeComponentRepo{defs: map[string]salary.ComponentDefinition{}}
	svc := NewSalaryService(passThroughTx{}, components, &fakeStructureRepo{}, fakeEmployeeRepo{}, formula.NewEvaluator())

	// Act
	defs, err := svc.ListComponents(context.Background(), testCompanyID)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, defs)
	assert.Len(t, components.defs, len(defs))
	basic, ok := components.defs["BASIC"]
	require.True(t, ok)
	assert.Equal(t, testCompanyID, basic.CompanyID)

	again, err := svc.ListComponents(context.Background(), testCompanyID)
	require.NoError(t, err)
	assert.Len(t, again, len(defs))
}
