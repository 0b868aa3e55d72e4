package cron

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

// CompanySource lists the companies background jobs iterate over.
type CompanySource interface {
	ActiveCompanyIDs(ctx context.Context) ([]string, error)
}

type dbCompanySource struct {
	db *database.DB
}

// NewCompanySource lists every company with at least one active employee.
func NewCompanySource(db *database.DB) CompanySource {
	return &dbCompanySource{db: db}
}

func (c *dbCompanySource) ActiveCompanyIDs(ctx context.Context) ([]string, error) {
	rows, err := c.db.Pool.Query(ctx, `
		SELECT DISTINCT company_id FROM employees
		WHERE employment_status = $1
	`, employee.EmploymentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get companies: %w", err)
	}
	defer rows.Close()

	var companyIDs []string
	for rows.Next() {
		var companyID string
		if err := rows.Scan(&companyID); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		companyIDs = append(companyIDs, companyID)
	}
	return companyIDs, rows.Err()
}
