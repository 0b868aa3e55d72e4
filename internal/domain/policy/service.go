package policy

import (
	"context"
	"time"
)

// Resolved bundles the policies in effect for a company together with the
// fallbacks that were applied to obtain them.
type Resolved struct {
	Attendance AttendancePolicy
	Statutory  StatutoryPolicy
	Fallbacks  []string
}

// PolicyService resolves company policies, falling back to the baseline.
type PolicyService interface {
	// ResolveAttendance never fails on missing or invalid configuration,
	// it returns the baseline and the fallback markers instead.
	ResolveAttendance(ctx context.Context, companyID string) (AttendancePolicy, []string, error)
	Resolve(ctx context.Context, companyID string) (Resolved, error)

	GetAttendancePolicy(ctx context.Context, companyID string) (AttendancePolicyResponse, error)
	UpdateAttendancePolicy(ctx context.Context, companyID string, req UpdateAttendancePolicyRequest) (AttendancePolicyResponse, error)
	GetStatutoryPolicy(ctx context.Context, companyID string) (StatutoryPolicyResponse, error)
	UpdateStatutoryPolicy(ctx context.Context, companyID string, req UpdateStatutoryPolicyRequest) (StatutoryPolicyResponse, error)

	// Holidays returns a set of holiday dates (YYYY-MM-DD) within [from, to].
	Holidays(ctx context.Context, companyID string, from, to time.Time) (map[string]string, error)
	CreateHoliday(ctx context.Context, companyID string, req CreateHolidayRequest) (HolidayResponse, error)
	ListHolidays(ctx context.Context, companyID string, year int) ([]HolidayResponse, error)
	DeleteHoliday(ctx context.Context, companyID, id string) error
}
