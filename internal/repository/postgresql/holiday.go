package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) policy.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

// Create implements policy.HolidayRepository.
func (r *holidayRepositoryImpl) Create(ctx context.Context, h policy.Holiday) (policy.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	if h.ID == "" {
		h.ID = newID()
	}

	err := q.QueryRow(ctx, `
		INSERT INTO holidays (id, company_id, date, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, h.ID, h.CompanyID, h.Date, h.Name).Scan(&h.CreatedAt)
	if err != nil {
		if uniqueViolation(err) == "uk_holidays_company_date" {
			return policy.Holiday{}, policy.ErrHolidayExists
		}
		return policy.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}

	return h, nil
}

// ListBetween implements policy.HolidayRepository.
func (r *holidayRepositoryImpl) ListBetween(ctx context.Context, companyID string, from, to time.Time) ([]policy.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, company_id, date, name, created_at
		FROM holidays
		WHERE company_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []policy.Holiday
	for rows.Next() {
		var h policy.Holiday
		if err := rows.Scan(&h.ID, &h.CompanyID, &h.Date, &h.Name, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holidays: %w", err)
	}

	return holidays, nil
}

// Delete implements policy.HolidayRepository.
func (r *holidayRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM holidays WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete holiday %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return policy.ErrHolidayNotFound
	}
	return nil
}
