package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const payrollColumns = `pr.id, pr.company_id, pr.employee_id, pr.period_month, pr.period_year, pr.structure_id,
	pr.attendance, pr.earnings, pr.deductions, pr.employer_contributions, pr.statutory, pr.adjustments,
	pr.gross_earnings, pr.total_deductions, pr.adjustment_total, pr.net_payable, pr.ctc,
	pr.status, pr.previous_record_id, pr.superseded_at, pr.revision, pr.revision_reason,
	pr.policy_fallbacks, pr.component_errors, pr.attendance_token,
	pr.submitted_at, pr.approved_by, pr.approved_at, pr.rejection_reason, pr.processed_by, pr.processed_at,
	pr.calculated_at, pr.version, pr.created_at, pr.updated_at`

// payrollDocuments holds the jsonb columns of a payroll record.
type payrollDocuments struct {
	attendance            []byte
	earnings              []byte
	deductions            []byte
	employerContributions []byte
	statutory             []byte
	adjustments           []byte
	policyFallbacks       []byte
	componentErrors       []byte
}

func marshalPayrollDocuments(rec payroll.PayrollRecord) (payrollDocuments, error) {
	var d payrollDocuments
	var err error
	fields := []struct {
		dst *[]byte
		src interface{}
		name string
	}{
		{&d.attendance, rec.Attendance, "attendance"},
		{&d.earnings, nonNil(rec.Earnings), "earnings"},
		{&d.deductions, nonNil(rec.Deductions), "deductions"},
		{&d.employerContributions, nonNil(rec.EmployerContributions), "employer contributions"},
		{&d.statutory, rec.Statutory, "statutory"},
		{&d.adjustments, nonNil(rec.Adjustments), "adjustments"},
		{&d.policyFallbacks, nonNil(rec.PolicyFallbacks), "policy fallbacks"},
		{&d.componentErrors, nonNil(rec.ComponentErrors), "component errors"},
	}
	for _, f := range fields {
		if *f.dst, err = json.Marshal(f.src); err != nil {
			return payrollDocuments{}, fmt.Errorf("failed to marshal %s: %w", f.name, err)
		}
	}
	return d, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func scanPayrollRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var rec payroll.PayrollRecord
	var d payrollDocuments
	var structureID *string
	err := row.Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &rec.PeriodMonth, &rec.PeriodYear, &structureID,
		&d.attendance, &d.earnings, &d.deductions, &d.employerContributions, &d.statutory, &d.adjustments,
		&rec.GrossEarnings, &rec.TotalDeductions, &rec.AdjustmentTotal, &rec.NetPayable, &rec.CTC,
		&rec.Status, &rec.PreviousRecordID, &rec.SupersededAt, &rec.Revision, &rec.RevisionReason,
		&d.policyFallbacks, &d.componentErrors, &rec.AttendanceToken,
		&rec.SubmittedAt, &rec.ApprovedBy, &rec.ApprovedAt, &rec.RejectionReason, &rec.ProcessedBy, &rec.ProcessedAt,
		&rec.CalculatedAt, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	if structureID != nil {
		rec.StructureID = *structureID
	}

	targets := []struct {
		src []byte
		dst interface{}
	}{
		{d.attendance, &rec.Attendance},
		{d.earnings, &rec.Earnings},
		{d.deductions, &rec.Deductions},
		{d.employerContributions, &rec.EmployerContributions},
		{d.statutory, &rec.Statutory},
		{d.adjustments, &rec.Adjustments},
		{d.policyFallbacks, &rec.PolicyFallbacks},
		{d.componentErrors, &rec.ComponentErrors},
	}
	for _, t := range targets {
		if err := json.Unmarshal(t.src, t.dst); err != nil {
			return payroll.PayrollRecord{}, fmt.Errorf("failed to unmarshal payroll record %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// Create implements payroll.PayrollRepository.
func (r *payrollRepository) Create(ctx context.Context, rec payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	if rec.ID == "" {
		rec.ID = newID()
	}
	rec.Version = 1

	d, err := marshalPayrollDocuments(rec)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	var structureID *string
	if rec.StructureID != "" {
		structureID = &rec.StructureID
	}

	query := `
		INSERT INTO payroll_records (
			id, company_id, employee_id, period_month, period_year, structure_id,
			attendance, earnings, deductions, employer_contributions, statutory, adjustments,
			gross_earnings, total_deductions, adjustment_total, net_payable, ctc,
			status, previous_record_id, revision, revision_reason,
			policy_fallbacks, component_errors, attendance_token, calculated_at, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		rec.ID, rec.CompanyID, rec.EmployeeID, rec.PeriodMonth, rec.PeriodYear, structureID,
		d.attendance, d.earnings, d.deductions, d.employerContributions, d.statutory, d.adjustments,
		rec.GrossEarnings, rec.TotalDeductions, rec.AdjustmentTotal, rec.NetPayable, rec.CTC,
		rec.Status, rec.PreviousRecordID, rec.Revision, rec.RevisionReason,
		d.policyFallbacks, d.componentErrors, rec.AttendanceToken, rec.CalculatedAt, rec.Version,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if uniqueViolation(err) == "uk_payroll_records_current" {
			return payroll.PayrollRecord{}, payroll.ErrDuplicatePeriod
		}
		if foreignKeyViolation(err) {
			return payroll.PayrollRecord{}, employee.ErrEmployeeNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to create payroll record: %w", err)
	}

	return rec, nil
}

// GetByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetByID(ctx context.Context, id string, companyID string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollColumns + ` FROM payroll_records pr WHERE pr.id = $1 AND pr.company_id = $2`

	rec, err := scanPayrollRecord(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record by id %s: %w", id, err)
	}
	return rec, nil
}

// GetCurrent implements payroll.PayrollRepository.
func (r *payrollRepository) GetCurrent(ctx context.Context, employeeID string, month, year int, companyID string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payrollColumns + `
		FROM payroll_records pr
		WHERE pr.employee_id = $1 AND pr.period_month = $2 AND pr.period_year = $3
			AND pr.company_id = $4 AND pr.superseded_at IS NULL
	`

	rec, err := scanPayrollRecord(q.QueryRow(ctx, query, employeeID, month, year, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get current payroll record: %w", err)
	}
	return rec, nil
}

// Supersede implements payroll.PayrollRepository.
func (r *payrollRepository) Supersede(ctx context.Context, id string, version int64, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE payroll_records
		SET superseded_at = NOW(), version = version + 1, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND version = $3 AND superseded_at IS NULL
	`, id, companyID, version)
	if err != nil {
		return fmt.Errorf("failed to supersede payroll record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrDuplicatePeriod
	}
	return nil
}

// UpdateStatus implements payroll.PayrollRepository.
func (r *payrollRepository) UpdateStatus(ctx context.Context, rec payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_records
		SET status = $1, submitted_at = $2, approved_by = $3, approved_at = $4, rejection_reason = $5,
			processed_by = $6, processed_at = $7, version = version + 1, updated_at = NOW()
		WHERE id = $8 AND company_id = $9 AND version = $10 AND superseded_at IS NULL
		RETURNING version, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.Status, rec.SubmittedAt, rec.ApprovedBy, rec.ApprovedAt, rec.RejectionReason,
		rec.ProcessedBy, rec.ProcessedAt, rec.ID, rec.CompanyID, rec.Version,
	).Scan(&rec.Version, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, payroll.ErrStaleRecord
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to update payroll record %s: %w", rec.ID, err)
	}

	return rec, nil
}

// List implements payroll.PayrollRepository. Only current records are listed.
func (r *payrollRepository) List(ctx context.Context, companyID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM payroll_records pr
		WHERE pr.company_id = $1 AND pr.superseded_at IS NULL
	`
	args := []interface{}{companyID}
	argIdx := 2

	if filter.PeriodMonth != nil {
		baseQuery += fmt.Sprintf(" AND pr.period_month = $%d", argIdx)
		args = append(args, *filter.PeriodMonth)
		argIdx++
	}
	if filter.PeriodYear != nil {
		baseQuery += fmt.Sprintf(" AND pr.period_year = $%d", argIdx)
		args = append(args, *filter.PeriodYear)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND pr.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeID != nil {
		baseQuery += fmt.Sprintf(" AND pr.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	// Count query
	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	filter.Normalize()
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY pr.period_year DESC, pr.period_month DESC, pr.employee_id
		LIMIT $%d OFFSET $%d
	`, payrollColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating payroll records: %w", err)
	}

	return records, totalCount, nil
}
