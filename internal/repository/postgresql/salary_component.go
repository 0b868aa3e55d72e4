package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type salaryComponentRepositoryImpl struct {
	db *database.DB
}

func NewSalaryComponentRepository(db *database.DB) salary.ComponentRepository {
	return &salaryComponentRepositoryImpl{db: db}
}

const componentColumns = `id, company_id, code, name, category, calculation_type, formula, prorated, is_active, created_at, updated_at`

func scanComponent(row pgx.Row) (salary.ComponentDefinition, error) {
	var c salary.ComponentDefinition
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Category, &c.CalculationType,
		&c.Formula, &c.Prorated, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Create implements salary.ComponentRepository.
func (r *salaryComponentRepositoryImpl) Create(ctx context.Context, def salary.ComponentDefinition) (salary.ComponentDefinition, error) {
	q := GetQuerier(ctx, r.db)

	if def.ID == "" {
		def.ID = newID()
	}

	query := `
		INSERT INTO salary_components (id, company_id, code, name, category, calculation_type, formula, prorated, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		def.ID, def.CompanyID, def.Code, def.Name, def.Category, def.CalculationType,
		def.Formula, def.Prorated, def.IsActive,
	).Scan(&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if uniqueViolation(err) == "uk_salary_components_company_code" {
			return salary.ComponentDefinition{}, salary.ErrComponentCodeExists
		}
		return salary.ComponentDefinition{}, fmt.Errorf("failed to create salary component: %w", err)
	}

	return def, nil
}

// GetByCode implements salary.ComponentRepository.
func (r *salaryComponentRepositoryImpl) GetByCode(ctx context.Context, companyID, code string) (salary.ComponentDefinition, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + componentColumns + ` FROM salary_components WHERE company_id = $1 AND code = $2`

	c, err := scanComponent(q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.ComponentDefinition{}, salary.ErrComponentNotFound
		}
		return salary.ComponentDefinition{}, fmt.Errorf("failed to get salary component %s: %w", code, err)
	}
	return c, nil
}

// ListByCompany implements salary.ComponentRepository.
func (r *salaryComponentRepositoryImpl) ListByCompany(ctx context.Context, companyID string, activeOnly bool) ([]salary.ComponentDefinition, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + componentColumns + ` FROM salary_components WHERE company_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY code`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary components: %w", err)
	}
	defer rows.Close()

	var defs []salary.ComponentDefinition
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary component: %w", err)
		}
		defs = append(defs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating salary components: %w", err)
	}

	return defs, nil
}

// Update implements salary.ComponentRepository.
func (r *salaryComponentRepositoryImpl) Update(ctx context.Context, def salary.ComponentDefinition) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_components
		SET name = $1, formula = $2, prorated = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5 AND company_id = $6
	`

	tag, err := q.Exec(ctx, query, def.Name, def.Formula, def.Prorated, def.IsActive, def.ID, def.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to update salary component %s: %w", def.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return salary.ErrComponentNotFound
	}
	return nil
}
