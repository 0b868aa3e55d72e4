package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type salaryStructureRepositoryImpl struct {
	db *database.DB
}

func NewSalaryStructureRepository(db *database.DB) salary.StructureRepository {
	return &salaryStructureRepositoryImpl{db: db}
}

const structureColumns = `id, company_id, employee_id, effective_from, effective_to, monthly_ctc,
	base_component_code, components, created_at, updated_at`

func scanStructure(row pgx.Row) (salary.Structure, error) {
	var s salary.Structure
	var components []byte
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.EmployeeID, &s.EffectiveFrom, &s.EffectiveTo, &s.MonthlyCTC,
		&s.BaseComponentCode, &components, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return salary.Structure{}, err
	}
	if err := json.Unmarshal(components, &s.Components); err != nil {
		return salary.Structure{}, fmt.Errorf("failed to unmarshal structure components: %w", err)
	}
	return s, nil
}

// Create implements salary.StructureRepository.
func (r *salaryStructureRepositoryImpl) Create(ctx context.Context, s salary.Structure) (salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	if s.ID == "" {
		s.ID = newID()
	}

	components, err := json.Marshal(s.Components)
	if err != nil {
		return salary.Structure{}, fmt.Errorf("failed to marshal structure components: %w", err)
	}

	query := `
		INSERT INTO salary_structures (id, company_id, employee_id, effective_from, effective_to, monthly_ctc, base_component_code, components)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		s.ID, s.CompanyID, s.EmployeeID, s.EffectiveFrom, s.EffectiveTo, s.MonthlyCTC, s.BaseComponentCode, components,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if uniqueViolation(err) == "uk_salary_structures_open" {
			return salary.Structure{}, salary.ErrConcurrentModification
		}
		if foreignKeyViolation(err) {
			return salary.Structure{}, employee.ErrEmployeeNotFound
		}
		return salary.Structure{}, fmt.Errorf("failed to create salary structure: %w", err)
	}

	return s, nil
}

// GetOpen implements salary.StructureRepository.
func (r *salaryStructureRepositoryImpl) GetOpen(ctx context.Context, employeeID, companyID string) (salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + structureColumns + `
		FROM salary_structures
		WHERE employee_id = $1 AND company_id = $2 AND effective_to IS NULL
		FOR UPDATE
	`

	s, err := scanStructure(q.QueryRow(ctx, query, employeeID, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.Structure{}, salary.ErrStructureNotFound
		}
		return salary.Structure{}, fmt.Errorf("failed to get open salary structure: %w", err)
	}
	return s, nil
}

// GetEffective implements salary.StructureRepository.
func (r *salaryStructureRepositoryImpl) GetEffective(ctx context.Context, employeeID string, day time.Time, companyID string) (salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + structureColumns + `
		FROM salary_structures
		WHERE employee_id = $1 AND company_id = $2
			AND effective_from <= $3 AND (effective_to IS NULL OR effective_to >= $3)
		ORDER BY effective_from DESC
		LIMIT 1
	`

	s, err := scanStructure(q.QueryRow(ctx, query, employeeID, companyID, day))
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.Structure{}, salary.ErrNoActiveStructure
		}
		return salary.Structure{}, fmt.Errorf("failed to get effective salary structure: %w", err)
	}
	return s, nil
}

// Close implements salary.StructureRepository.
func (r *salaryStructureRepositoryImpl) Close(ctx context.Context, id string, effectiveTo time.Time, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE salary_structures
		SET effective_to = $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3 AND effective_to IS NULL
	`, effectiveTo, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to close salary structure %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return salary.ErrConcurrentModification
	}
	return nil
}

// ListByEmployee implements salary.StructureRepository.
func (r *salaryStructureRepositoryImpl) ListByEmployee(ctx context.Context, employeeID, companyID string) ([]salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+structureColumns+`
		FROM salary_structures
		WHERE employee_id = $1 AND company_id = $2
		ORDER BY effective_from DESC
	`, employeeID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary structures: %w", err)
	}
	defer rows.Close()

	var structures []salary.Structure
	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary structure: %w", err)
		}
		structures = append(structures, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating salary structures: %w", err)
	}

	return structures, nil
}
