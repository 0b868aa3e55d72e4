package postgresql_test

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *database.DB

// TestMain connects to TEST_DATABASE_URL when set and starts a throwaway
// postgres container otherwise. Tests skip when neither is available.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	dsn := os.Getenv("TEST_DATABASE_URL")

	var container *postgres.PostgresContainer
	if dsn == "" {
		var err error
		container, dsn, err = startPostgres(ctx)
		if err != nil {
			log.Printf("postgres container unavailable, repository tests will be skipped: %v", err)
		}
	}

	if dsn != "" {
		db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 10, MinConns: 1})
		if err != nil {
			log.Fatalf("failed to connect to test database: %v", err)
		}
		if err := postgresql.Migrate(ctx, db); err != nil {
			log.Fatalf("failed to migrate test database: %v", err)
		}
		testDB = db
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	if container != nil {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate postgres container: %v", err)
		}
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("payroll_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get connection string: %w", err)
	}
	return container, dsn, nil
}

// requireDB skips the test when no database is available and empties every table.
func requireDB(t *testing.T) *database.DB {
	t.Helper()
	if testDB == nil {
		t.Skip("no test database available")
	}
	truncateAll(t)
	return testDB
}

func truncateAll(t *testing.T) {
	t.Helper()
	tables := []string{
		"payroll_adjustments",
		"payroll_records",
		"salary_structures",
		"salary_components",
		"leave_requests",
		"leave_balances",
		"leave_types",
		"attendance_records",
		"holidays",
		"statutory_policies",
		"attendance_policies",
		"employees",
	}
	for _, table := range tables {
		_, err := testDB.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "truncate %s", table)
	}
}

func seedEmployee(t *testing.T, db *database.DB, companyID, code string, hired time.Time) employee.Employee {
	t.Helper()
	emp, err := postgresql.NewEmployeeRepository(db).Create(context.Background(), employee.Employee{
		CompanyID:    companyID,
		EmployeeCode: code,
		FullName:     "Employee " + code,
		HireDate:     hired,
	})
	require.NoError(t, err)
	return emp
}

func newCompanyID() string {
	return uuid.NewString()
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
