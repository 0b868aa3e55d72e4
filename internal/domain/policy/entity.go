package policy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fallback markers recorded when a company has no usable policy and the
// baseline is used instead.
const (
	FallbackAttendancePolicy = "attendance_policy"
	FallbackStatutoryPolicy  = "statutory_policy"
	FallbackLeaveCatalog     = "leave_catalog"
	FallbackTimezone         = "timezone"
)

// DeductionRule converts every Count occurrences into DeductDays absence days.
type DeductionRule struct {
	Enabled    bool
	Count      int
	DeductDays decimal.Decimal
}

// WeekdayMask is indexed by time.Weekday.
type WeekdayMask [7]bool

func (m WeekdayMask) Has(d time.Weekday) bool {
	return m[d]
}

func (m WeekdayMask) Days() []time.Weekday {
	var days []time.Weekday
	for i, on := range m {
		if on {
			days = append(days, time.Weekday(i))
		}
	}
	return days
}

// AttendancePolicy - shift timing and penalty rules of a company.
// Boundaries are minutes of the day in Timezone.
type AttendancePolicy struct {
	CompanyID     string
	FullDayBefore int
	LateBefore    int
	HalfDayBefore int
	GraceEnabled  bool
	GraceMinutes  int
	LateRule      DeductionRule
	HalfDayRule   DeductionRule
	WorkingDays   WeekdayMask
	Timezone      string
	UpdatedAt     time.Time
}

// Grace returns the grace minutes in effect.
func (p AttendancePolicy) Grace() int {
	if !p.GraceEnabled || p.GraceMinutes < 0 {
		return 0
	}
	return p.GraceMinutes
}

// Location loads the policy timezone, UTC when unknown.
func (p AttendancePolicy) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (p AttendancePolicy) IsWorkingDay(d time.Time) bool {
	return p.WorkingDays.Has(d.Weekday())
}

// Validate reports whether the stored policy can be used as is.
func (p AttendancePolicy) Validate() error {
	if p.FullDayBefore < 0 || p.HalfDayBefore > 24*60 {
		return ErrInvalidAttendancePolicy
	}
	if p.FullDayBefore > p.LateBefore || p.LateBefore > p.HalfDayBefore {
		return ErrInvalidAttendancePolicy
	}
	if p.GraceMinutes < 0 || p.LateRule.Count < 0 || p.HalfDayRule.Count < 0 {
		return ErrInvalidAttendancePolicy
	}
	if p.LateRule.DeductDays.IsNegative() || p.HalfDayRule.DeductDays.IsNegative() {
		return ErrInvalidAttendancePolicy
	}
	if len(p.WorkingDays.Days()) == 0 {
		return ErrInvalidAttendancePolicy
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return ErrInvalidTimezone
		}
	}
	return nil
}

// PFPolicy - provident fund. Pension is the part of the employer share
// routed to the pension scheme.
type PFPolicy struct {
	Enabled         bool
	EmployeePercent decimal.Decimal
	EmployerPercent decimal.Decimal
	PensionPercent  decimal.Decimal
	Ceiling         decimal.Decimal
}

// ESIPolicy - applies to the whole gross only while gross is within Ceiling.
type ESIPolicy struct {
	Enabled         bool
	EmployeePercent decimal.Decimal
	EmployerPercent decimal.Decimal
	Ceiling         decimal.Decimal
}

// PTSlab - Max nil means open ended.
type PTSlab struct {
	Min    decimal.Decimal
	Max    *decimal.Decimal
	Amount decimal.Decimal
}

func (s PTSlab) Contains(gross decimal.Decimal) bool {
	if gross.LessThan(s.Min) {
		return false
	}
	return s.Max == nil || gross.LessThanOrEqual(*s.Max)
}

type ProfessionalTaxPolicy struct {
	Enabled bool
	Slabs   []PTSlab
}

// StatutoryPolicy - statutory contribution thresholds of a company.
type StatutoryPolicy struct {
	CompanyID       string
	PF              PFPolicy
	ESI             ESIPolicy
	ProfessionalTax ProfessionalTaxPolicy
	UpdatedAt       time.Time
}

func (p StatutoryPolicy) Validate() error {
	for _, d := range []decimal.Decimal{
		p.PF.EmployeePercent, p.PF.EmployerPercent, p.PF.PensionPercent, p.PF.Ceiling,
		p.ESI.EmployeePercent, p.ESI.EmployerPercent, p.ESI.Ceiling,
	} {
		if d.IsNegative() {
			return ErrInvalidStatutoryPolicy
		}
	}
	if p.PF.PensionPercent.GreaterThan(p.PF.EmployerPercent) {
		return ErrInvalidStatutoryPolicy
	}
	for _, s := range p.ProfessionalTax.Slabs {
		if s.Amount.IsNegative() || (s.Max != nil && s.Max.LessThan(s.Min)) {
			return ErrInvalidStatutoryPolicy
		}
	}
	return nil
}

// Holiday - company holiday, date only.
type Holiday struct {
	ID        string
	CompanyID string
	Date      time.Time
	Name      string
	CreatedAt time.Time
}
