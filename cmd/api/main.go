package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/formula"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-payroll-go/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	policyService "github.com/cmlabs-hris/hris-payroll-go/internal/service/policy"
	salaryService "github.com/cmlabs-hris/hris-payroll-go/internal/service/salary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgresql.Migrate(ctx, db); err != nil {
		slog.Error("Error applying schema", "error", err)
		os.Exit(1)
	}

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.RabbitMQ.Enabled() {
		rmq, err := messaging.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			slog.Error("Error connecting to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer rmq.Close()

		amqpPublisher, err := messaging.NewPublisher(rmq, cfg.RabbitMQ.Exchange, "hris-payroll")
		if err != nil {
			slog.Error("Error creating event publisher", "error", err)
			os.Exit(1)
		}
		publisher = amqpPublisher
	}

	transactor := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	policyRepo := postgresql.NewPolicyRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	componentRepo := postgresql.NewSalaryComponentRepository(db)
	structureRepo := postgresql.NewSalaryStructureRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	adjustmentRepo := postgresql.NewAdjustmentRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Leeway)
	formulas := formula.NewEvaluator()

	policySvc := policyService.NewPolicyService(policyRepo, holidayRepo, cfg.Payroll.DefaultTimezone)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, employeeRepo, policySvc, publisher)
	leaveSvc := leaveService.NewLeaveService(
		transactor,
		leaveTypeRepo,
		leaveBalanceRepo,
		leaveRequestRepo,
		attendanceRepo,
		employeeRepo,
		policySvc,
		publisher,
	)
	salarySvc := salaryService.NewSalaryService(transactor, componentRepo, structureRepo, employeeRepo, formulas)
	payrollSvc := payrollService.NewPayrollService(
		transactor,
		payrollRepo,
		adjustmentRepo,
		employeeRepo,
		attendanceRepo,
		structureRepo,
		componentRepo,
		policySvc,
		payrollService.NewComponentEvaluator(formulas),
		publisher,
		cfg.Payroll.BulkWorkers,
	)

	// Background jobs
	scheduler := cron.NewScheduler(ctx, 10*time.Minute)
	companies := cron.NewCompanySource(db)
	if cfg.Payroll.DayCloserEnabled {
		cron.NewAttendanceJobs(companies, attendanceSvc, policySvc).RegisterJobs(scheduler, cfg.Payroll.DayCloserInterval)
	}
	if cfg.Payroll.MonthlyDraftEnabled {
		cron.NewPayrollJobs(companies, payrollSvc, policySvc).RegisterJobs(scheduler, cfg.Payroll.MonthlyDraftCheck)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(cfg, JWTService, appHTTP.Handlers{
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Leave:      appHTTP.NewLeaveHandler(leaveSvc),
		Payroll:    appHTTP.NewPayrollHandler(payrollSvc),
		Salary:     appHTTP.NewSalaryHandler(salarySvc),
		Policy:     appHTTP.NewPolicyHandler(policySvc),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}
