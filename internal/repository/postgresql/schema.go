package postgresql

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL of every table the repositories use.
func Schema() string {
	return schemaSQL
}

// Migrate applies the schema. Safe to run on every start.
func Migrate(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
