package policy

import (
	"context"
	"time"
)

// PolicyRepository defines data access methods for company policies.
type PolicyRepository interface {
	GetAttendancePolicy(ctx context.Context, companyID string) (AttendancePolicy, error)
	UpsertAttendancePolicy(ctx context.Context, p AttendancePolicy) (AttendancePolicy, error)

	GetStatutoryPolicy(ctx context.Context, companyID string) (StatutoryPolicy, error)
	UpsertStatutoryPolicy(ctx context.Context, p StatutoryPolicy) (StatutoryPolicy, error)
}

// HolidayRepository - interface for holidays table
type HolidayRepository interface {
	Create(ctx context.Context, h Holiday) (Holiday, error)
	ListBetween(ctx context.Context, companyID string, from, to time.Time) ([]Holiday, error)
	Delete(ctx context.Context, id string, companyID string) error
}
