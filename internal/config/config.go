package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Payroll  PayrollConfig
	RabbitMQ RabbitMQConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration. Tokens are issued by the identity service.
type JWTConfig struct {
	Secret string
	Leeway time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// PayrollConfig holds engine tuning and background job settings
type PayrollConfig struct {
	BulkWorkers         int
	DefaultTimezone     string
	DayCloserEnabled    bool
	DayCloserInterval   time.Duration
	MonthlyDraftEnabled bool
	MonthlyDraftCheck   time.Duration
}

// RabbitMQConfig - empty URL disables event publishing
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	} else if err != nil {
		slog.Info("no .env file found, using environment only")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_payroll"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// JWT configuration
	leeway, err := time.ParseDuration(getEnv("JWT_LEEWAY", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_LEEWAY: %w", err)
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
		Leeway: leeway,
	}

	// Payroll configuration
	workers, err := strconv.Atoi(getEnv("PAYROLL_BULK_WORKERS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_BULK_WORKERS: %w", err)
	}
	closerInterval, err := time.ParseDuration(getEnv("DAY_CLOSER_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DAY_CLOSER_INTERVAL: %w", err)
	}
	draftCheck, err := time.ParseDuration(getEnv("MONTHLY_DRAFT_CHECK_INTERVAL", "6h"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONTHLY_DRAFT_CHECK_INTERVAL: %w", err)
	}

	config.Payroll = PayrollConfig{
		BulkWorkers:         workers,
		DefaultTimezone:     getEnv("DEFAULT_TIMEZONE", "Asia/Kolkata"),
		DayCloserEnabled:    getEnvBool("DAY_CLOSER_ENABLED", true),
		DayCloserInterval:   closerInterval,
		MonthlyDraftEnabled: getEnvBool("MONTHLY_DRAFT_ENABLED", false),
		MonthlyDraftCheck:   draftCheck,
	}

	// RabbitMQ configuration
	config.RabbitMQ = RabbitMQConfig{
		URL:      getEnv("RABBITMQ_URL", ""),
		Exchange: getEnv("RABBITMQ_EXCHANGE", "hris.payroll.events"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.Payroll.BulkWorkers < 1 {
		return fmt.Errorf("PAYROLL_BULK_WORKERS must be at least 1")
	}
	if _, err := time.LoadLocation(c.Payroll.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid DEFAULT_TIMEZONE: %w", err)
	}
	if c.Payroll.DayCloserInterval <= 0 || c.Payroll.MonthlyDraftCheck <= 0 {
		return fmt.Errorf("job intervals must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// LogLevel maps LOG_LEVEL to a slog level, info when unknown
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
