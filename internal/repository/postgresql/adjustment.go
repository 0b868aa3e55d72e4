package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type adjustmentRepository struct {
	db *database.DB
}

func NewAdjustmentRepository(db *database.DB) payroll.AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

// Create implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) Create(ctx context.Context, adj payroll.Adjustment) (payroll.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	if adj.ID == "" {
		adj.ID = newID()
	}

	err := q.QueryRow(ctx, `
		INSERT INTO payroll_adjustments (id, company_id, employee_id, month, year, type, category, amount, note, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, adj.ID, adj.CompanyID, adj.EmployeeID, adj.Month, adj.Year, adj.Type, adj.Category,
		adj.Amount, adj.Note, adj.CreatedBy,
	).Scan(&adj.CreatedAt)
	if err != nil {
		if foreignKeyViolation(err) {
			return payroll.Adjustment{}, employee.ErrEmployeeNotFound
		}
		return payroll.Adjustment{}, fmt.Errorf("failed to create payroll adjustment: %w", err)
	}

	return adj, nil
}

// ListByPeriod implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) ListByPeriod(ctx context.Context, employeeID string, month, year int, companyID string) ([]payroll.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, company_id, employee_id, month, year, type, category, amount, note, created_by, created_at
		FROM payroll_adjustments
		WHERE employee_id = $1 AND month = $2 AND year = $3 AND company_id = $4
		ORDER BY created_at, id
	`, employeeID, month, year, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []payroll.Adjustment
	for rows.Next() {
		var adj payroll.Adjustment
		if err := rows.Scan(
			&adj.ID, &adj.CompanyID, &adj.EmployeeID, &adj.Month, &adj.Year, &adj.Type,
			&adj.Category, &adj.Amount, &adj.Note, &adj.CreatedBy, &adj.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll adjustment: %w", err)
		}
		adjustments = append(adjustments, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payroll adjustments: %w", err)
	}

	return adjustments, nil
}
