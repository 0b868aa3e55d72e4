package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestColumns = `id, company_id, employee_id, leave_type_code, from_date, to_date, half_day, days, reason,
	status, approved_by, approved_at, rejection_reason, cancelled_at, created_at, updated_at`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var lr leave.LeaveRequest
	err := row.Scan(
		&lr.ID, &lr.CompanyID, &lr.EmployeeID, &lr.LeaveTypeCode, &lr.FromDate, &lr.ToDate, &lr.HalfDay,
		&lr.Days, &lr.Reason, &lr.Status, &lr.ApprovedBy, &lr.ApprovedAt, &lr.RejectionReason,
		&lr.CancelledAt, &lr.CreatedAt, &lr.UpdatedAt,
	)
	return lr, err
}

func (r *leaveRequestRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leave requests: %w", err)
	}

	return requests, nil
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, lr leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	if lr.ID == "" {
		lr.ID = newID()
	}

	query := `
		INSERT INTO leave_requests (id, company_id, employee_id, leave_type_code, from_date, to_date, half_day, days, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		lr.ID, lr.CompanyID, lr.EmployeeID, lr.LeaveTypeCode, lr.FromDate, lr.ToDate,
		lr.HalfDay, lr.Days, lr.Reason, lr.Status,
	).Scan(&lr.CreatedAt, &lr.UpdatedAt)
	if err != nil {
		if foreignKeyViolation(err) {
			return leave.LeaveRequest{}, employee.ErrEmployeeNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	return lr, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRequestColumns + ` FROM leave_requests WHERE id = $1 AND company_id = $2`

	lr, err := scanLeaveRequest(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request by id %s: %w", id, err)
	}
	return lr, nil
}

// ListActiveOverlapping implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListActiveOverlapping(ctx context.Context, employeeID string, from, to time.Time, companyID string) ([]leave.LeaveRequest, error) {
	query := `
		SELECT ` + leaveRequestColumns + `
		FROM leave_requests
		WHERE employee_id = $1 AND company_id = $2
			AND status IN ($3, $4)
			AND from_date <= $6 AND to_date >= $5
		ORDER BY from_date
	`
	return r.list(ctx, query, employeeID, companyID,
		leave.LeaveRequestStatusPending, leave.LeaveRequestStatusApproved, from, to)
}

// ListByEmployee implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, year int, companyID string) ([]leave.LeaveRequest, error) {
	query := `
		SELECT ` + leaveRequestColumns + `
		FROM leave_requests
		WHERE employee_id = $1 AND company_id = $2 AND EXTRACT(YEAR FROM from_date) = $3
		ORDER BY from_date DESC
	`
	return r.list(ctx, query, employeeID, companyID, year)
}

// Update implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Update(ctx context.Context, lr leave.LeaveRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET status = $1, approved_by = $2, approved_at = $3, rejection_reason = $4, cancelled_at = $5, updated_at = NOW()
		WHERE id = $6 AND company_id = $7
	`

	tag, err := q.Exec(ctx, query,
		lr.Status, lr.ApprovedBy, lr.ApprovedAt, lr.RejectionReason, lr.CancelledAt, lr.ID, lr.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave request %s: %w", lr.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}
