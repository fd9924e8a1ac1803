package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	App        AppConfig
	CORS       CORSConfig
	Telemetry  TelemetryConfig
	Attendance AttendanceConfig
	Roster     RosterConfig
	Reconcile  ReconcileConfig
	Notify     NotifyConfig
	Jobs       JobsConfig
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
	// RunMigrations applies embedded migrations on startup
	RunMigrations bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name     string
	Version  string
	Port     int
	Env      string
	LogLevel string
	// Location work dates are computed in for clock in/out
	Timezone string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type TelemetryConfig struct {
	Endpoint string
	Insecure bool
}

type AttendanceConfig struct {
	PageSize      int
	MaxWindowDays int
}

type RosterConfig struct {
	Concurrency  int
	StateBackend string // memory | redis
	StateTTL     time.Duration
}

type ReconcileConfig struct {
	Strategy       string // best_effort | atomic
	DeleteMaxTries int
	InitialBackoff time.Duration
	SessionTTL     time.Duration
}

type NotifyConfig struct {
	WorkerCount     int
	QueueSize       int
	DeliveryTimeout time.Duration
	SSEBufferSize   int
}

type JobsConfig struct {
	Enabled                bool
	DuplicateAuditInterval time.Duration
	DuplicateAuditWindow   int
	SessionSweepInterval   time.Duration
}

// Load reads configuration from the environment. A .env file is loaded
// when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	p := &envParser{}
	config := &Config{}

	config.Database = DatabaseConfig{
		Host:          getEnv("DB_HOST", "localhost"),
		Port:          p.int("DB_PORT", 5432),
		User:          getEnv("DB_USER", "postgres"),
		Password:      getEnv("DB_PASSWORD", ""),
		Name:          getEnv("DB_NAME", "attendance"),
		SSLMode:       getEnv("DB_SSL_MODE", "disable"),
		MaxConns:      int32(p.int("DB_MAX_CONNS", 10)),
		MinConns:      int32(p.int("DB_MIN_CONNS", 2)),
		RunMigrations: p.bool("DB_RUN_MIGRATIONS", true),
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       p.int("REDIS_DB", 0),
	}

	config.App = AppConfig{
		Name:     getEnv("APP_NAME", "attendance-api"),
		Version:  getEnv("APP_VERSION", "dev"),
		Port:     p.int("APP_PORT", 8080),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	config.Telemetry = TelemetryConfig{
		Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Insecure: p.bool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}

	config.Attendance = AttendanceConfig{
		PageSize:      p.int("ATTENDANCE_PAGE_SIZE", 100),
		MaxWindowDays: p.int("ATTENDANCE_MAX_WINDOW_DAYS", 366),
	}

	config.Roster = RosterConfig{
		Concurrency:  p.int("ROSTER_CONCURRENCY", 8),
		StateBackend: getEnv("STAFF_STATE_BACKEND", "memory"),
		StateTTL:     p.duration("STAFF_STATE_TTL", 24*time.Hour),
	}

	config.Reconcile = ReconcileConfig{
		Strategy:       getEnv("RECONCILE_STRATEGY", "best_effort"),
		DeleteMaxTries: p.int("RECONCILE_DELETE_MAX_TRIES", 3),
		InitialBackoff: p.duration("RECONCILE_DELETE_BACKOFF", 200*time.Millisecond),
		SessionTTL:     p.duration("RECONCILE_SESSION_TTL", 30*time.Minute),
	}

	config.Notify = NotifyConfig{
		WorkerCount:     p.int("NOTIFY_WORKERS", 2),
		QueueSize:       p.int("NOTIFY_QUEUE_SIZE", 1000),
		DeliveryTimeout: p.duration("NOTIFY_DELIVERY_TIMEOUT", 2*time.Second),
		SSEBufferSize:   p.int("NOTIFY_SSE_BUFFER", 10),
	}

	config.Jobs = JobsConfig{
		Enabled:                p.bool("JOBS_ENABLED", true),
		DuplicateAuditInterval: p.duration("DUPLICATE_AUDIT_INTERVAL", time.Hour),
		DuplicateAuditWindow:   p.int("DUPLICATE_AUDIT_WINDOW_DAYS", 31),
		SessionSweepInterval:   p.duration("RECONCILE_SWEEP_INTERVAL", 5*time.Minute),
	}

	if err := p.err(); err != nil {
		return nil, err
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
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME is invalid: %w", err)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}
	if c.Roster.StateBackend != "memory" && c.Roster.StateBackend != "redis" {
		return fmt.Errorf("STAFF_STATE_BACKEND must be memory or redis, got %q", c.Roster.StateBackend)
	}
	if c.Reconcile.Strategy != "best_effort" && c.Reconcile.Strategy != "atomic" {
		return fmt.Errorf("RECONCILE_STRATEGY must be best_effort or atomic, got %q", c.Reconcile.Strategy)
	}
	if c.Reconcile.DeleteMaxTries < 1 {
		return fmt.Errorf("RECONCILE_DELETE_MAX_TRIES must be at least 1, got %d", c.Reconcile.DeleteMaxTries)
	}
	if c.Attendance.PageSize <= 0 {
		return fmt.Errorf("ATTENDANCE_PAGE_SIZE must be positive")
	}
	if c.Attendance.MaxWindowDays <= 0 {
		return fmt.Errorf("ATTENDANCE_MAX_WINDOW_DAYS must be positive")
	}
	if c.Jobs.DuplicateAuditWindow <= 0 {
		return fmt.Errorf("DUPLICATE_AUDIT_WINDOW_DAYS must be positive")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
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

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
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

// envParser collects parse errors so Load can report them all at once.
type envParser struct {
	errs []error
}

func (p *envParser) int(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *envParser) bool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *envParser) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *envParser) err() error {
	return errors.Join(p.errs...)
}
