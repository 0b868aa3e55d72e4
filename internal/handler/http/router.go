package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type Handlers struct {
	Attendance AttendanceHandler
	Leave      LeaveHandler
	Payroll    PayrollHandler
	Salary     SalaryHandler
	Policy     PolicyHandler
}

func NewRouter(cfg *config.Config, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.Correlation)
	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired)

		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", h.Attendance.List)
			r.Post("/check-in", h.Attendance.CheckIn)

			// Manager only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/close-day", h.Attendance.CloseDay)
				r.Post("/{id}/approve", h.Attendance.Approve)
				r.Post("/{id}/reject", h.Attendance.Reject)
			})
		})

		r.Route("/leave", func(r chi.Router) {
			r.Get("/types", h.Leave.ListTypes)
			r.Get("/balances/{employeeID}", h.Leave.GetBalance)

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", h.Leave.ListRequests)
				r.Post("/", h.Leave.CreateRequest)
				r.Get("/{id}", h.Leave.GetRequest)
				r.Post("/{id}/cancel", h.Leave.CancelRequest)

				// Manager only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/{id}/approve", h.Leave.ApproveRequest)
					r.Post("/{id}/reject", h.Leave.RejectRequest)
				})
			})

			// Manager only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/types", h.Leave.CreateType)
			})
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/records", h.Payroll.ListPayrollRecords)
			r.Get("/records/{id}", h.Payroll.GetPayrollRecord)
			r.Get("/records/{id}/history", h.Payroll.GetPayrollHistory)
			r.Get("/adjustments", h.Payroll.ListAdjustments)

			// Manager only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/calculate", h.Payroll.Calculate)
				r.Post("/bulk", h.Payroll.BulkCalculate)
				r.Post("/adjustments", h.Payroll.AddAdjustment)
				r.Post("/records/{id}/submit", h.Payroll.Submit)
				r.Post("/records/{id}/approve", h.Payroll.Approve)
				r.Post("/records/{id}/reject", h.Payroll.Reject)
				r.Post("/records/{id}/process", h.Payroll.Process)
				r.Post("/records/{id}/revise", h.Payroll.Revise)
			})
		})

		r.Route("/salary", func(r chi.Router) {
			r.Get("/components", h.Salary.ListComponents)
			r.Get("/structures/{employeeID}", h.Salary.ListStructures)
			r.Get("/structures/{employeeID}/effective", h.Salary.GetEffectiveStructure)

			// Manager only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/components", h.Salary.CreateComponent)
				r.Delete("/components/{code}", h.Salary.DeactivateComponent)
				r.Post("/structures", h.Salary.ActivateStructure)
			})
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/attendance", h.Policy.GetAttendancePolicy)
			r.Get("/statutory", h.Policy.GetStatutoryPolicy)
			r.Get("/holidays", h.Policy.ListHolidays)

			// Manager only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Put("/attendance", h.Policy.UpdateAttendancePolicy)
				r.Put("/statutory", h.Policy.UpdateStatutoryPolicy)
				r.Post("/holidays", h.Policy.CreateHoliday)
				r.Delete("/holidays/{id}", h.Policy.DeleteHoliday)
			})
		})
	})
	return r
}
