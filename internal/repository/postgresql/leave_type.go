package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveTypeRepositoryImpl struct {
	db *database.DB
}

func NewLeaveTypeRepository(db *database.DB) leave.LeaveTypeRepository {
	return &leaveTypeRepositoryImpl{db: db}
}

const leaveTypeColumns = `id, company_id, code, name, is_paid, default_quota, allow_half_day, max_carry_forward, is_active, created_at, updated_at`

func scanLeaveType(row pgx.Row) (leave.LeaveType, error) {
	var lt leave.LeaveType
	err := row.Scan(
		&lt.ID, &lt.CompanyID, &lt.Code, &lt.Name, &lt.IsPaid, &lt.DefaultQuota,
		&lt.AllowHalfDay, &lt.MaxCarryForward, &lt.IsActive, &lt.CreatedAt, &lt.UpdatedAt,
	)
	return lt, err
}

// Create implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) Create(ctx context.Context, lt leave.LeaveType) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	if lt.ID == "" {
		lt.ID = newID()
	}

	query := `
		INSERT INTO leave_types (id, company_id, code, name, is_paid, default_quota, allow_half_day, max_carry_forward, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		lt.ID, lt.CompanyID, lt.Code, lt.Name, lt.IsPaid, lt.DefaultQuota,
		lt.AllowHalfDay, lt.MaxCarryForward, lt.IsActive,
	).Scan(&lt.CreatedAt, &lt.UpdatedAt)
	if err != nil {
		if uniqueViolation(err) == "uk_leave_types_company_code" {
			return leave.LeaveType{}, leave.ErrLeaveTypeCodeExists
		}
		return leave.LeaveType{}, fmt.Errorf("failed to create leave type: %w", err)
	}

	return lt, nil
}

// GetByCode implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) GetByCode(ctx context.Context, companyID, code string) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveTypeColumns + ` FROM leave_types WHERE company_id = $1 AND code = $2`

	lt, err := scanLeaveType(q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveType{}, fmt.Errorf("failed to get leave type %s: %w", code, err)
	}
	return lt, nil
}

// GetByCompanyID implements leave.LeaveTypeRepository.
func (r *leaveTypeRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) ([]leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveTypeColumns + ` FROM leave_types WHERE company_id = $1 ORDER BY code`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}
	defer rows.Close()

	var types []leave.LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave type: %w", err)
		}
		types = append(types, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leave types: %w", err)
	}

	return types, nil
}
