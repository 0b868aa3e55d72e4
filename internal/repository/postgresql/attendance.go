package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

const attendanceColumns = `id, company_id, employee_id, date, check_in_time, auto_status, status, source,
	leave_request_id, approved_by, approved_at, rejection_reason, version, created_at, updated_at`

func scanAttendance(row pgx.Row) (attendance.AttendanceRecord, error) {
	var r attendance.AttendanceRecord
	err := row.Scan(
		&r.ID, &r.CompanyID, &r.EmployeeID, &r.Date, &r.CheckInTime, &r.AutoStatus, &r.Status, &r.Source,
		&r.LeaveRequestID, &r.ApprovedBy, &r.ApprovedAt, &r.RejectionReason, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Create(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	if record.ID == "" {
		record.ID = newID()
	}
	record.Version = 1

	query := `
		INSERT INTO attendance_records (
			id, company_id, employee_id, date, check_in_time, auto_status, status, source,
			leave_request_id, approved_by, approved_at, rejection_reason, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.ID, record.CompanyID, record.EmployeeID, record.Date, record.CheckInTime,
		record.AutoStatus, record.Status, record.Source, record.LeaveRequestID,
		record.ApprovedBy, record.ApprovedAt, record.RejectionReason, record.Version,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if uniqueViolation(err) == "uk_attendance_employee_date" {
			return attendance.AttendanceRecord{}, attendance.ErrDuplicateAttendance
		}
		if foreignKeyViolation(err) {
			return attendance.AttendanceRecord{}, employee.ErrEmployeeNotFound
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return record, nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1 AND company_id = $2`

	record, err := scanAttendance(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.AttendanceRecord{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to get attendance by id %s: %w", id, err)
	}
	return record, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date = $2 AND company_id = $3
	`

	record, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance for %s: %w", date.Format("2006-01-02"), err)
	}
	return &record, nil
}

// Update implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Update(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_records
		SET check_in_time = $1, auto_status = $2, status = $3, source = $4, leave_request_id = $5,
			approved_by = $6, approved_at = $7, rejection_reason = $8,
			version = version + 1, updated_at = NOW()
		WHERE id = $9 AND company_id = $10 AND version = $11
		RETURNING version, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.CheckInTime, record.AutoStatus, record.Status, record.Source, record.LeaveRequestID,
		record.ApprovedBy, record.ApprovedAt, record.RejectionReason,
		record.ID, record.CompanyID, record.Version,
	).Scan(&record.Version, &record.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.AttendanceRecord{}, attendance.ErrConcurrentModification
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to update attendance %s: %w", record.ID, err)
	}

	return record, nil
}

// DeleteByLeaveRequest implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) DeleteByLeaveRequest(ctx context.Context, leaveRequestID string, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx,
		`DELETE FROM attendance_records WHERE leave_request_id = $1 AND company_id = $2 AND check_in_time IS NULL`,
		leaveRequestID, companyID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attendance of leave request %s: %w", leaveRequestID, err)
	}
	return tag.RowsAffected(), nil
}

// ListByEmployeeBetween implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time, companyID string) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND company_id = $2 AND date BETWEEN $3 AND $4
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, employeeID, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.AttendanceRecord
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance: %w", err)
	}

	return records, nil
}

// CreateMissing implements attendance.AttendanceRepository.
// System rows need no review and are stored approved.
func (r *attendanceRepositoryImpl) CreateMissing(ctx context.Context, companyID string, date time.Time, status attendance.AutoStatus) (int64, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT e.id
		FROM employees e
		WHERE e.company_id = $1 AND e.employment_status = $2 AND e.hire_date <= $3
			AND (e.resignation_date IS NULL OR e.resignation_date >= $3)
			AND NOT EXISTS (
				SELECT 1 FROM attendance_records a WHERE a.employee_id = e.id AND a.date = $3
			)
	`, companyID, employee.EmploymentStatusActive, date)
	if err != nil {
		return 0, fmt.Errorf("failed to find employees without attendance: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return 0, fmt.Errorf("failed to scan employee ids: %w", err)
	}

	now := time.Now()
	var created int64
	for _, id := range ids {
		tag, err := q.Exec(ctx, `
			INSERT INTO attendance_records (
				id, company_id, employee_id, date, auto_status, status, source, approved_at, version
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
			ON CONFLICT (employee_id, date) DO NOTHING
		`, newID(), companyID, id, date, status, attendance.StatusApproved, attendance.SourceSystem, now)
		if err != nil {
			return created, fmt.Errorf("failed to close day for employee %s: %w", id, err)
		}
		created += tag.RowsAffected()
	}
	return created, nil
}
