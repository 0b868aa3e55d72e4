package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type policyRepositoryImpl struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) policy.PolicyRepository {
	return &policyRepositoryImpl{db: db}
}

type ptSlabRow struct {
	Min    decimal.Decimal  `json:"min"`
	Max    *decimal.Decimal `json:"max,omitempty"`
	Amount decimal.Decimal  `json:"amount"`
}

// GetAttendancePolicy implements policy.PolicyRepository.
func (r *policyRepositoryImpl) GetAttendancePolicy(ctx context.Context, companyID string) (policy.AttendancePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT company_id, full_day_before, late_before, half_day_before, grace_enabled, grace_minutes,
			late_rule_enabled, late_rule_count, late_rule_deduct_days,
			half_day_rule_enabled, half_day_rule_count, half_day_rule_deduct_days,
			working_days, timezone, updated_at
		FROM attendance_policies
		WHERE company_id = $1
	`

	var p policy.AttendancePolicy
	var workingDays []bool
	err := q.QueryRow(ctx, query, companyID).Scan(
		&p.CompanyID, &p.FullDayBefore, &p.LateBefore, &p.HalfDayBefore, &p.GraceEnabled, &p.GraceMinutes,
		&p.LateRule.Enabled, &p.LateRule.Count, &p.LateRule.DeductDays,
		&p.HalfDayRule.Enabled, &p.HalfDayRule.Count, &p.HalfDayRule.DeductDays,
		&workingDays, &p.Timezone, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return policy.AttendancePolicy{}, policy.ErrAttendancePolicyNotFound
		}
		return policy.AttendancePolicy{}, fmt.Errorf("failed to get attendance policy: %w", err)
	}
	// index 0 is Sunday
	for i := 0; i < len(workingDays) && i < len(p.WorkingDays); i++ {
		p.WorkingDays[i] = workingDays[i]
	}

	return p, nil
}

// UpsertAttendancePolicy implements policy.PolicyRepository.
func (r *policyRepositoryImpl) UpsertAttendancePolicy(ctx context.Context, p policy.AttendancePolicy) (policy.AttendancePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_policies (
			company_id, full_day_before, late_before, half_day_before, grace_enabled, grace_minutes,
			late_rule_enabled, late_rule_count, late_rule_deduct_days,
			half_day_rule_enabled, half_day_rule_count, half_day_rule_deduct_days,
			working_days, timezone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (company_id) DO UPDATE SET
			full_day_before = EXCLUDED.full_day_before,
			late_before = EXCLUDED.late_before,
			half_day_before = EXCLUDED.half_day_before,
			grace_enabled = EXCLUDED.grace_enabled,
			grace_minutes = EXCLUDED.grace_minutes,
			late_rule_enabled = EXCLUDED.late_rule_enabled,
			late_rule_count = EXCLUDED.late_rule_count,
			late_rule_deduct_days = EXCLUDED.late_rule_deduct_days,
			half_day_rule_enabled = EXCLUDED.half_day_rule_enabled,
			half_day_rule_count = EXCLUDED.half_day_rule_count,
			half_day_rule_deduct_days = EXCLUDED.half_day_rule_deduct_days,
			working_days = EXCLUDED.working_days,
			timezone = EXCLUDED.timezone,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		p.CompanyID, p.FullDayBefore, p.LateBefore, p.HalfDayBefore, p.GraceEnabled, p.GraceMinutes,
		p.LateRule.Enabled, p.LateRule.Count, p.LateRule.DeductDays,
		p.HalfDayRule.Enabled, p.HalfDayRule.Count, p.HalfDayRule.DeductDays,
		p.WorkingDays[:], p.Timezone,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return policy.AttendancePolicy{}, fmt.Errorf("failed to upsert attendance policy: %w", err)
	}

	return p, nil
}

// GetStatutoryPolicy implements policy.PolicyRepository.
func (r *policyRepositoryImpl) GetStatutoryPolicy(ctx context.Context, companyID string) (policy.StatutoryPolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT company_id, pf_enabled, pf_employee_percent, pf_employer_percent, pf_pension_percent, pf_ceiling,
			esi_enabled, esi_employee_percent, esi_employer_percent, esi_ceiling,
			pt_enabled, pt_slabs, updated_at
		FROM statutory_policies
		WHERE company_id = $1
	`

	var p policy.StatutoryPolicy
	var slabsJSON []byte
	err := q.QueryRow(ctx, query, companyID).Scan(
		&p.CompanyID, &p.PF.Enabled, &p.PF.EmployeePercent, &p.PF.EmployerPercent, &p.PF.PensionPercent, &p.PF.Ceiling,
		&p.ESI.Enabled, &p.ESI.EmployeePercent, &p.ESI.EmployerPercent, &p.ESI.Ceiling,
		&p.ProfessionalTax.Enabled, &slabsJSON, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return policy.StatutoryPolicy{}, policy.ErrStatutoryPolicyNotFound
		}
		return policy.StatutoryPolicy{}, fmt.Errorf("failed to get statutory policy: %w", err)
	}

	var slabs []ptSlabRow
	if err := json.Unmarshal(slabsJSON, &slabs); err != nil {
		return policy.StatutoryPolicy{}, fmt.Errorf("failed to unmarshal professional tax slabs: %w", err)
	}
	for _, s := range slabs {
		p.ProfessionalTax.Slabs = append(p.ProfessionalTax.Slabs, policy.PTSlab(s))
	}

	return p, nil
}

// UpsertStatutoryPolicy implements policy.PolicyRepository.
func (r *policyRepositoryImpl) UpsertStatutoryPolicy(ctx context.Context, p policy.StatutoryPolicy) (policy.StatutoryPolicy, error) {
	q := GetQuerier(ctx, r.db)

	slabs := make([]ptSlabRow, 0, len(p.ProfessionalTax.Slabs))
	for _, s := range p.ProfessionalTax.Slabs {
		slabs = append(slabs, ptSlabRow(s))
	}
	slabsJSON, err := json.Marshal(slabs)
	if err != nil {
		return policy.StatutoryPolicy{}, fmt.Errorf("failed to marshal professional tax slabs: %w", err)
	}

	query := `
		INSERT INTO statutory_policies (
			company_id, pf_enabled, pf_employee_percent, pf_employer_percent, pf_pension_percent, pf_ceiling,
			esi_enabled, esi_employee_percent, esi_employer_percent, esi_ceiling, pt_enabled, pt_slabs
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (company_id) DO UPDATE SET
			pf_enabled = EXCLUDED.pf_enabled,
			pf_employee_percent = EXCLUDED.pf_employee_percent,
			pf_employer_percent = EXCLUDED.pf_employer_percent,
			pf_pension_percent = EXCLUDED.pf_pension_percent,
			pf_ceiling = EXCLUDED.pf_ceiling,
			esi_enabled = EXCLUDED.esi_enabled,
			esi_employee_percent = EXCLUDED.esi_employee_percent,
			esi_employer_percent = EXCLUDED.esi_employer_percent,
			esi_ceiling = EXCLUDED.esi_ceiling,
			pt_enabled = EXCLUDED.pt_enabled,
			pt_slabs = EXCLUDED.pt_slabs,
			updated_at = NOW()
		RETURNING updated_at
	`

	err = q.QueryRow(ctx, query,
		p.CompanyID, p.PF.Enabled, p.PF.EmployeePercent, p.PF.EmployerPercent, p.PF.PensionPercent, p.PF.Ceiling,
		p.ESI.Enabled, p.ESI.EmployeePercent, p.ESI.EmployerPercent, p.ESI.Ceiling,
		p.ProfessionalTax.Enabled, slabsJSON,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return policy.StatutoryPolicy{}, fmt.Errorf("failed to upsert statutory policy: %w", err)
	}

	return p, nil
}
