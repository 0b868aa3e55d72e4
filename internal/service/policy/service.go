package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/fixtures"
)

type PolicyServiceImpl struct {
	policyRepo      policy.PolicyRepository
	holidayRepo     policy.HolidayRepository
	defaultTimezone string
}

// NewPolicyService creates a policy service. defaultTimezone replaces the
// baseline timezone when a company has no attendance policy.
func NewPolicyService(policyRepo policy.PolicyRepository, holidayRepo policy.HolidayRepository, defaultTimezone string) policy.PolicyService {
	return &PolicyServiceImpl{
		policyRepo:      policyRepo,
		holidayRepo:     holidayRepo,
		defaultTimezone: defaultTimezone,
	}
}

// ========== RESOLUTION ==========

func (s *PolicyServiceImpl) ResolveAttendance(ctx context.Context, companyID string) (policy.AttendancePolicy, []string, error) {
	p, err := s.policyRepo.GetAttendancePolicy(ctx, companyID)
	switch {
	case errors.Is(err, policy.ErrAttendancePolicyNotFound):
		slog.Warn("attendance policy not configured, using baseline", "company_id", companyID)
		return s.baselineAttendance(companyID), []string{policy.FallbackAttendancePolicy}, nil
	case err != nil:
		return policy.AttendancePolicy{}, nil, fmt.Errorf("failed to get attendance policy: %w", err)
	}

	if err := p.Validate(); err != nil {
		if errors.Is(err, policy.ErrInvalidTimezone) {
			slog.Warn("attendance policy timezone invalid, using default", "company_id", companyID, "timezone", p.Timezone)
			p.Timezone = s.defaultTimezone
			return p, []string{policy.FallbackTimezone}, nil
		}
		slog.Warn("attendance policy invalid, using baseline", "company_id", companyID, "error", err)
		return s.baselineAttendance(companyID), []string{policy.FallbackAttendancePolicy}, nil
	}
	if p.Timezone == "" {
		p.Timezone = s.defaultTimezone
		return p, []string{policy.FallbackTimezone}, nil
	}
	return p, nil, nil
}

func (s *PolicyServiceImpl) resolveStatutory(ctx context.Context, companyID string) (policy.StatutoryPolicy, []string, error) {
	p, err := s.policyRepo.GetStatutoryPolicy(ctx, companyID)
	switch {
	case errors.Is(err, policy.ErrStatutoryPolicyNotFound):
		slog.Warn("statutory policy not configured, using baseline", "company_id", companyID)
		return fixtures.GetDefaultStatutoryPolicy(companyID), []string{policy.FallbackStatutoryPolicy}, nil
	case err != nil:
		return policy.StatutoryPolicy{}, nil, fmt.Errorf("failed to get statutory policy: %w", err)
	}

	if err := p.Validate(); err != nil {
		slog.Warn("statutory policy invalid, using baseline", "company_id", companyID, "error", err)
		return fixtures.GetDefaultStatutoryPolicy(companyID), []string{policy.FallbackStatutoryPolicy}, nil
	}
	return p, nil, nil
}

func (s *PolicyServiceImpl) Resolve(ctx context.Context, companyID string) (policy.Resolved, error) {
	att, attFallbacks, err := s.ResolveAttendance(ctx, companyID)
	if err != nil {
		return policy.Resolved{}, err
	}
	stat, statFallbacks, err := s.resolveStatutory(ctx, companyID)
	if err != nil {
		return policy.Resolved{}, err
	}

	return policy.Resolved{
		Attendance: att,
		Statutory:  stat,
		Fallbacks:  append(attFallbacks, statFallbacks...),
	}, nil
}

func (s *PolicyServiceImpl) baselineAttendance(companyID string) policy.AttendancePolicy {
	p := fixtures.GetDefaultAttendancePolicy(companyID)
	if s.defaultTimezone != "" {
		p.Timezone = s.defaultTimezone
	}
	return p
}

// ========== ADMINISTRATION ==========

func (s *PolicyServiceImpl) GetAttendancePolicy(ctx context.Context, companyID string) (policy.AttendancePolicyResponse, error) {
	p, fallbacks, err := s.ResolveAttendance(ctx, companyID)
	if err != nil {
		return policy.AttendancePolicyResponse{}, err
	}
	return policy.NewAttendancePolicyResponse(p, len(fallbacks) > 0), nil
}

func (s *PolicyServiceImpl) UpdateAttendancePolicy(ctx context.Context, companyID string, req policy.UpdateAttendancePolicyRequest) (policy.AttendancePolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return policy.AttendancePolicyResponse{}, err
	}

	saved, err := s.policyRepo.UpsertAttendancePolicy(ctx, req.ToEntity(companyID))
	if err != nil {
		return policy.AttendancePolicyResponse{}, fmt.Errorf("failed to save attendance policy: %w", err)
	}
	slog.Info("attendance policy updated", "company_id", companyID)
	return policy.NewAttendancePolicyResponse(saved, false), nil
}

func (s *PolicyServiceImpl) GetStatutoryPolicy(ctx context.Context, companyID string) (policy.StatutoryPolicyResponse, error) {
	p, fallbacks, err := s.resolveStatutory(ctx, companyID)
	if err != nil {
		return policy.StatutoryPolicyResponse{}, err
	}
	return policy.NewStatutoryPolicyResponse(p, len(fallbacks) > 0), nil
}

func (s *PolicyServiceImpl) UpdateStatutoryPolicy(ctx context.Context, companyID string, req policy.UpdateStatutoryPolicyRequest) (policy.StatutoryPolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return policy.StatutoryPolicyResponse{}, err
	}

	saved, err := s.policyRepo.UpsertStatutoryPolicy(ctx, req.ToEntity(companyID))
	if err != nil {
		return policy.StatutoryPolicyResponse{}, fmt.Errorf("failed to save statutory policy: %w", err)
	}
	slog.Info("statutory policy updated", "company_id", companyID)
	return policy.NewStatutoryPolicyResponse(saved, false), nil
}

// ========== HOLIDAYS ==========

func (s *PolicyServiceImpl) Holidays(ctx context.Context, companyID string, from, to time.Time) (map[string]string, error) {
	holidays, err := s.holidayRepo.ListBetween(ctx, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays: %w", err)
	}
	out := make(map[string]string, len(holidays))
	for _, h := range holidays {
		out[h.Date.Format("2006-01-02")] = h.Name
	}
	return out, nil
}

func (s *PolicyServiceImpl) CreateHoliday(ctx context.Context, companyID string, req policy.CreateHolidayRequest) (policy.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return policy.HolidayResponse{}, err
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	created, err := s.holidayRepo.Create(ctx, policy.Holiday{CompanyID: companyID, Date: date, Name: req.Name})
	if err != nil {
		return policy.HolidayResponse{}, err
	}
	return policy.NewHolidayResponse(created), nil
}

func (s *PolicyServiceImpl) ListHolidays(ctx context.Context, companyID string, year int) ([]policy.HolidayResponse, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	holidays, err := s.holidayRepo.ListBetween(ctx, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays: %w", err)
	}
	out := make([]policy.HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		out = append(out, policy.NewHolidayResponse(h))
	}
	return out, nil
}

func (s *PolicyServiceImpl) DeleteHoliday(ctx context.Context, companyID, id string) error {
	return s.holidayRepo.Delete(ctx, id, companyID)
}
