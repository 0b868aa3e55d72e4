package fixtures

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed policy_defaults.yaml
var policyDefaultsYAML []byte

// ==========================================
// YAML SHAPE
// ==========================================

type ruleDoc struct {
	Enabled    bool    `yaml:"enabled"`
	Count      int     `yaml:"count"`
	DeductDays float64 `yaml:"deduct_days"`
}

type attendanceDoc struct {
	FullDayBefore string   `yaml:"full_day_before"`
	LateBefore    string   `yaml:"late_before"`
	HalfDayBefore string   `yaml:"half_day_before"`
	GraceEnabled  bool     `yaml:"grace_enabled"`
	GraceMinutes  int      `yaml:"grace_minutes"`
	LateRule      ruleDoc  `yaml:"late_rule"`
	HalfDayRule   ruleDoc  `yaml:"half_day_rule"`
	WorkingDays   []string `yaml:"working_days"`
	Timezone      string   `yaml:"timezone"`
}

type slabDoc struct {
	Min    float64  `yaml:"min"`
	Max    *float64 `yaml:"max"`
	Amount float64  `yaml:"amount"`
}

type statutoryDoc struct {
	PF struct {
		Enabled         bool    `yaml:"enabled"`
		EmployeePercent float64 `yaml:"employee_percent"`
		EmployerPercent float64 `yaml:"employer_percent"`
		PensionPercent  float64 `yaml:"pension_percent"`
		Ceiling         float64 `yaml:"ceiling"`
	} `yaml:"pf"`
	ESI struct {
		Enabled         bool    `yaml:"enabled"`
		EmployeePercent float64 `yaml:"employee_percent"`
		EmployerPercent float64 `yaml:"employer_percent"`
		Ceiling         float64 `yaml:"ceiling"`
	} `yaml:"esi"`
	ProfessionalTax struct {
		Enabled bool      `yaml:"enabled"`
		Slabs   []slabDoc `yaml:"slabs"`
	} `yaml:"professional_tax"`
}

type leaveTypeDoc struct {
	Code            string  `yaml:"code"`
	Name            string  `yaml:"name"`
	Paid            bool    `yaml:"paid"`
	DefaultQuota    float64 `yaml:"default_quota"`
	AllowHalfDay    bool    `yaml:"allow_half_day"`
	MaxCarryForward float64 `yaml:"max_carry_forward"`
}

type componentDoc struct {
	Code            string `yaml:"code"`
	Name            string `yaml:"name"`
	Category        string `yaml:"category"`
	CalculationType string `yaml:"calculation_type"`
	Prorated        bool   `yaml:"prorated"`
}

type defaultsDoc struct {
	Attendance attendanceDoc  `yaml:"attendance"`
	Statutory  statutoryDoc   `yaml:"statutory"`
	LeaveTypes []leaveTypeDoc `yaml:"leave_types"`
	Components []componentDoc `yaml:"components"`
}

// ==========================================
// PARSED DEFAULTS
// ==========================================

// Defaults holds the baseline policies, leave catalog and salary components.
type Defaults struct {
	Attendance policy.AttendancePolicy
	Statutory  policy.StatutoryPolicy
	LeaveTypes []leave.LeaveType
	Components []salary.ComponentDefinition
}

var loadDefaults = sync.OnceValues(func() (*Defaults, error) {
	return ParseDefaults(policyDefaultsYAML)
})

// LoadDefaults returns the embedded baseline, parsed once.
func LoadDefaults() (*Defaults, error) {
	return loadDefaults()
}

// MustLoadDefaults panics when the embedded baseline is broken.
func MustLoadDefaults() *Defaults {
	d, err := LoadDefaults()
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDefaults parses a defaults document and validates the policies in it.
func ParseDefaults(data []byte) (*Defaults, error) {
	var doc defaultsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy defaults: %w", err)
	}

	att, err := doc.Attendance.toPolicy()
	if err != nil {
		return nil, err
	}
	if err := att.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default attendance policy: %w", err)
	}

	stat := doc.Statutory.toPolicy()
	if err := stat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default statutory policy: %w", err)
	}

	d := &Defaults{Attendance: att, Statutory: stat}
	for _, lt := range doc.LeaveTypes {
		d.LeaveTypes = append(d.LeaveTypes, leave.LeaveType{
			Code:            lt.Code,
			Name:            lt.Name,
			IsPaid:          lt.Paid,
			DefaultQuota:    decimal.NewFromFloat(lt.DefaultQuota),
			AllowHalfDay:    lt.AllowHalfDay,
			MaxCarryForward: decimal.NewFromFloat(lt.MaxCarryForward),
			IsActive:        true,
		})
	}
	for _, c := range doc.Components {
		if !validator.IsValidComponentCode(c.Code) {
			return nil, fmt.Errorf("invalid default component code %q", c.Code)
		}
		d.Components = append(d.Components, salary.ComponentDefinition{
			Code:            c.Code,
			Name:            c.Name,
			Category:        salary.Category(c.Category),
			CalculationType: salary.CalculationType(c.CalculationType),
			Prorated:        c.Prorated,
			IsActive:        true,
		})
	}
	return d, nil
}

func (a attendanceDoc) toPolicy() (policy.AttendancePolicy, error) {
	full, err := validator.ParseClock(a.FullDayBefore)
	if err != nil {
		return policy.AttendancePolicy{}, fmt.Errorf("invalid full_day_before: %w", err)
	}
	late, err := validator.ParseClock(a.LateBefore)
	if err != nil {
		return policy.AttendancePolicy{}, fmt.Errorf("invalid late_before: %w", err)
	}
	half, err := validator.ParseClock(a.HalfDayBefore)
	if err != nil {
		return policy.AttendancePolicy{}, fmt.Errorf("invalid half_day_before: %w", err)
	}
	mask, err := policy.ParseWeekdays(a.WorkingDays)
	if err != nil {
		return policy.AttendancePolicy{}, err
	}

	return policy.AttendancePolicy{
		FullDayBefore: full,
		LateBefore:    late,
		HalfDayBefore: half,
		GraceEnabled:  a.GraceEnabled,
		GraceMinutes:  a.GraceMinutes,
		LateRule:      a.LateRule.toRule(),
		HalfDayRule:   a.HalfDayRule.toRule(),
		WorkingDays:   mask,
		Timezone:      a.Timezone,
	}, nil
}

func (r ruleDoc) toRule() policy.DeductionRule {
	return policy.DeductionRule{Enabled: r.Enabled, Count: r.Count, DeductDays: decimal.NewFromFloat(r.DeductDays)}
}

func (s statutoryDoc) toPolicy() policy.StatutoryPolicy {
	p := policy.StatutoryPolicy{
		PF: policy.PFPolicy{
			Enabled:         s.PF.Enabled,
			EmployeePercent: decimal.NewFromFloat(s.PF.EmployeePercent),
			EmployerPercent: decimal.NewFromFloat(s.PF.EmployerPercent),
			PensionPercent:  decimal.NewFromFloat(s.PF.PensionPercent),
			Ceiling:         decimal.NewFromFloat(s.PF.Ceiling),
		},
		ESI: policy.ESIPolicy{
			Enabled:         s.ESI.Enabled,
			EmployeePercent: decimal.NewFromFloat(s.ESI.EmployeePercent),
			EmployerPercent: decimal.NewFromFloat(s.ESI.EmployerPercent),
			Ceiling:         decimal.NewFromFloat(s.ESI.Ceiling),
		},
		ProfessionalTax: policy.ProfessionalTaxPolicy{Enabled: s.ProfessionalTax.Enabled},
	}
	for _, slab := range s.ProfessionalTax.Slabs {
		ps := policy.PTSlab{Min: decimal.NewFromFloat(slab.Min), Amount: decimal.NewFromFloat(slab.Amount)}
		if slab.Max != nil {
			upper := decimal.NewFromFloat(*slab.Max)
			ps.Max = &upper
		}
		p.ProfessionalTax.Slabs = append(p.ProfessionalTax.Slabs, ps)
	}
	return p
}

// ==========================================
// PER-COMPANY COPIES
// ==========================================

// GetDefaultAttendancePolicy returns the baseline attendance policy for a company
func GetDefaultAttendancePolicy(companyID string) policy.AttendancePolicy {
	p := MustLoadDefaults().Attendance
	p.CompanyID = companyID
	return p
}

// GetDefaultStatutoryPolicy returns the baseline statutory policy for a company
func GetDefaultStatutoryPolicy(companyID string) policy.StatutoryPolicy {
	p := MustLoadDefaults().Statutory
	p.CompanyID = companyID
	p.ProfessionalTax.Slabs = append([]policy.PTSlab(nil), p.ProfessionalTax.Slabs...)
	return p
}

// GetDefaultLeaveTypes returns the baseline leave catalog (CL, SL, EL, LWP)
func GetDefaultLeaveTypes(companyID string) []leave.LeaveType {
	src := MustLoadDefaults().LeaveTypes
	out := make([]leave.LeaveType, len(src))
	for i, lt := range src {
		lt.CompanyID = companyID
		out[i] = lt
	}
	return out
}

// GetDefaultComponents returns the baseline salary component definitions
func GetDefaultComponents(companyID string) []salary.ComponentDefinition {
	src := MustLoadDefaults().Components
	out := make([]salary.ComponentDefinition, len(src))
	for i, c := range src {
		c.CompanyID = companyID
		out[i] = c
	}
	return out
}
