package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

// Create implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Create(ctx context.Context, b leave.LeaveBalance) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	if b.ID == "" {
		b.ID = newID()
	}
	b.Version = 1

	entries, err := json.Marshal(b.Entries)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to marshal balance entries: %w", err)
	}

	query := `
		INSERT INTO leave_balances (id, company_id, employee_id, year, entries, version)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query, b.ID, b.CompanyID, b.EmployeeID, b.Year, entries, b.Version).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if uniqueViolation(err) == "uk_leave_balances_employee_year" {
			return leave.LeaveBalance{}, leave.ErrConcurrentModification
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to create leave balance: %w", err)
	}

	return b, nil
}

// GetByEmployeeAndYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByEmployeeAndYear(ctx context.Context, employeeID string, year int, companyID string) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, employee_id, year, entries, version, created_at, updated_at
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2 AND company_id = $3
	`

	var b leave.LeaveBalance
	var entries []byte
	err := q.QueryRow(ctx, query, employeeID, year, companyID).Scan(
		&b.ID, &b.CompanyID, &b.EmployeeID, &b.Year, &entries, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveBalance{}, leave.ErrBalanceNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	if err := json.Unmarshal(entries, &b.Entries); err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to unmarshal balance entries: %w", err)
	}

	return b, nil
}

// Update implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Update(ctx context.Context, b leave.LeaveBalance) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	entries, err := json.Marshal(b.Entries)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to marshal balance entries: %w", err)
	}

	query := `
		UPDATE leave_balances
		SET entries = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3 AND version = $4
		RETURNING version, updated_at
	`

	err = q.QueryRow(ctx, query, entries, b.ID, b.CompanyID, b.Version).Scan(&b.Version, &b.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveBalance{}, leave.ErrConcurrentModification
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to update leave balance %s: %w", b.ID, err)
	}

	return b, nil
}
