package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/clock"
	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Geo        GeoConfig
	Telemetry  TelemetryConfig
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	Timezone           string
	CORSAllowedOrigins []string
}

// AttendanceConfig holds the working-time rules
type AttendanceConfig struct {
	ScheduledStart     clock.TimeOfDay
	ScheduledEnd       clock.TimeOfDay
	WeekendDays        []time.Weekday
	StatusPollSeconds  int
	StrictTransitions  bool
	MonthlyWorkingDays int
	StaleSessionHours  int
	StaleCheckInterval time.Duration
}

// GeoConfig holds location enrichment settings; everything is optional
type GeoConfig struct {
	OfficeLatitude  *float64
	OfficeLongitude *float64
	GeocoderURL     string
	GeocoderTimeout time.Duration
}

// TelemetryConfig selects the trace exporter: none, stdout or otlp
type TelemetryConfig struct {
	Exporter     string
	OTLPEndpoint string
	ServiceName  string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	} else if err != nil {
		slog.Info("no .env file found, using process environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	autoMigrate, err := strconv.ParseBool(getEnv("DB_AUTO_MIGRATE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        dbPort,
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "wishery_crm"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		AutoMigrate: autoMigrate,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:               appPort,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Timezone:           getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Attendance configuration
	attendance, err := loadAttendance()
	if err != nil {
		return nil, err
	}
	config.Attendance = attendance

	// Location enrichment
	geo, err := loadGeo()
	if err != nil {
		return nil, err
	}
	config.Geo = geo

	config.Telemetry = TelemetryConfig{
		Exporter:     strings.ToLower(getEnv("OTEL_EXPORTER", "none")),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "wishery-crm-attendance"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadAttendance() (AttendanceConfig, error) {
	start, err := clock.ParseTimeOfDay(getEnv("ATTENDANCE_SCHEDULED_START", "09:30"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_SCHEDULED_START: %w", err)
	}
	end, err := clock.ParseTimeOfDay(getEnv("ATTENDANCE_SCHEDULED_END", "18:30"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_SCHEDULED_END: %w", err)
	}
	weekend, err := parseWeekdays(getEnv("ATTENDANCE_WEEKEND_DAYS", "Saturday,Sunday"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_WEEKEND_DAYS: %w", err)
	}
	poll, err := strconv.Atoi(getEnv("ATTENDANCE_STATUS_POLL_SECONDS", "30"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_STATUS_POLL_SECONDS: %w", err)
	}
	strict, err := strconv.ParseBool(getEnv("ATTENDANCE_STRICT_TRANSITIONS", "false"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_STRICT_TRANSITIONS: %w", err)
	}
	workingDays, err := strconv.Atoi(getEnv("MONTHLY_WORKING_DAYS_DEFAULT", "22"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid MONTHLY_WORKING_DAYS_DEFAULT: %w", err)
	}
	staleHours, err := strconv.Atoi(getEnv("STALE_SESSION_HOURS", "16"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid STALE_SESSION_HOURS: %w", err)
	}
	staleInterval, err := time.ParseDuration(getEnv("STALE_SESSION_CHECK_INTERVAL", "1h"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid STALE_SESSION_CHECK_INTERVAL: %w", err)
	}

	return AttendanceConfig{
		ScheduledStart:     start,
		ScheduledEnd:       end,
		WeekendDays:        weekend,
		StatusPollSeconds:  clampPoll(poll),
		StrictTransitions:  strict,
		MonthlyWorkingDays: workingDays,
		StaleSessionHours:  staleHours,
		StaleCheckInterval: staleInterval,
	}, nil
}

func loadGeo() (GeoConfig, error) {
	timeout, err := time.ParseDuration(getEnv("GEOCODER_TIMEOUT", "2s"))
	if err != nil {
		return GeoConfig{}, fmt.Errorf("invalid GEOCODER_TIMEOUT: %w", err)
	}

	cfg := GeoConfig{
		GeocoderURL:     getEnv("GEOCODER_URL", ""),
		GeocoderTimeout: timeout,
	}

	lat, lng := getEnv("OFFICE_LATITUDE", ""), getEnv("OFFICE_LONGITUDE", "")
	if lat != "" || lng != "" {
		latV, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return GeoConfig{}, fmt.Errorf("invalid OFFICE_LATITUDE: %w", err)
		}
		lngV, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return GeoConfig{}, fmt.Errorf("invalid OFFICE_LONGITUDE: %w", err)
		}
		cfg.OfficeLatitude = &latV
		cfg.OfficeLongitude = &lngV
	}

	return cfg, nil
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
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME must be a duration: %w", err)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q is not a known timezone", c.App.Timezone)
	}
	a := c.Attendance
	if a.ScheduledEnd.Hour*60+a.ScheduledEnd.Minute <= a.ScheduledStart.Hour*60+a.ScheduledStart.Minute {
		return fmt.Errorf("ATTENDANCE_SCHEDULED_END must be after ATTENDANCE_SCHEDULED_START")
	}
	if a.MonthlyWorkingDays < 0 || a.MonthlyWorkingDays > 31 {
		return fmt.Errorf("MONTHLY_WORKING_DAYS_DEFAULT must be between 0 and 31")
	}
	if a.StaleSessionHours <= 0 {
		return fmt.Errorf("STALE_SESSION_HOURS must be positive")
	}
	if a.StaleCheckInterval <= 0 {
		return fmt.Errorf("STALE_SESSION_CHECK_INTERVAL must be positive")
	}
	g := c.Geo
	if g.OfficeLatitude != nil && (*g.OfficeLatitude < -90 || *g.OfficeLatitude > 90) {
		return fmt.Errorf("OFFICE_LATITUDE must be between -90 and 90")
	}
	if g.OfficeLongitude != nil && (*g.OfficeLongitude < -180 || *g.OfficeLongitude > 180) {
		return fmt.Errorf("OFFICE_LONGITUDE must be between -180 and 180")
	}
	if g.GeocoderURL != "" {
		if u, err := url.Parse(g.GeocoderURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("GEOCODER_URL must be an absolute URL")
		}
	}
	switch c.Telemetry.Exporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("OTEL_EXPORTER must be one of: none, stdout, otlp")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.Database.User),
		url.QueryEscape(c.Database.Password),
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the single operating timezone.
func (c *Config) Location() *time.Location {
	return clock.LoadLocation(c.App.Timezone)
}

// clampPoll keeps the status poll interval within 5-60 seconds.
func clampPoll(s int) int {
	if s < 5 {
		return 5
	}
	if s > 60 {
		return 60
	}
	return s
}

func parseWeekdays(value string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		names[strings.ToLower(d.String())] = d
		names[strings.ToLower(d.String()[:3])] = d
	}

	var days []time.Weekday
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		d, ok := names[part]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, d)
	}
	return days, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
