package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/config"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/report"
	appHTTP "github.com/iuhaa-wishery/wishery-crm-sub000/internal/handler/http"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/clock"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/cron"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/database"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/geo"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/jwt"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/telemetry"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/repository/postgresql"
	attendanceService "github.com/iuhaa-wishery/wishery-crm-sub000/internal/service/attendance"
	reportService "github.com/iuhaa-wishery/wishery-crm-sub000/internal/service/report"
	"github.com/go-chi/httplog/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const version = "v1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	level := parseLevel(cfg.App.LogLevel)
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.Telemetry.ServiceName),
		slog.String("version", version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  cfg.App.Env,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgresql.EnsureSchema(ctx, db); err != nil {
			return err
		}
		slog.Info("Database schema ensured")
	}

	sessionRepo := postgresql.NewSessionRepository(db)
	breakRepo := postgresql.NewBreakRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)
	userRepo := postgresql.NewUserRepository(db)
	settingRepo := postgresql.NewSettingRepository(db)
	txManager := postgresql.NewTxManager(db)

	loc := cfg.Location()
	clk := clock.NewSystemClock(loc)

	var geocoder geo.Geocoder
	if cfg.Geo.GeocoderURL != "" {
		geocoder = geo.NewHTTPGeocoder(cfg.Geo.GeocoderURL, cfg.Geo.GeocoderTimeout)
	}
	var office *geo.Point
	if cfg.Geo.OfficeLatitude != nil && cfg.Geo.OfficeLongitude != nil {
		office = &geo.Point{Latitude: *cfg.Geo.OfficeLatitude, Longitude: *cfg.Geo.OfficeLongitude}
	}
	enricher := geo.NewEnricher(geocoder, geo.EnricherConfig{
		Office:  office,
		Timeout: cfg.Geo.GeocoderTimeout,
	})

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attendanceSvc := attendanceService.NewAttendanceService(
		txManager,
		sessionRepo,
		breakRepo,
		clk,
		enricher,
		attendanceService.Config{
			StrictTransitions:   cfg.Attendance.StrictTransitions,
			PollIntervalSeconds: cfg.Attendance.StatusPollSeconds,
		},
	)
	aggregator := report.NewAggregator(report.Policy{
		ScheduledStart: cfg.Attendance.ScheduledStart,
		ScheduledEnd:   cfg.Attendance.ScheduledEnd,
		WeekendDays:    cfg.Attendance.WeekendDays,
		Location:       loc,
	})
	reportSvc := reportService.NewReportService(
		sessionRepo,
		leaveRepo,
		userRepo,
		settingRepo,
		aggregator,
		clk,
		reportService.Config{TargetWorkingDays: cfg.Attendance.MonthlyWorkingDays},
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	reportHandler := appHTTP.NewReportHandler(reportSvc)

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		Logger:         logger,
		LogLevel:       level,
	}, JWTService, attendanceHandler, reportHandler)

	scheduler := cron.NewScheduler()
	attendanceJobs := cron.NewAttendanceJobs(
		sessionRepo,
		clk,
		time.Duration(cfg.Attendance.StaleSessionHours)*time.Hour,
		cfg.Attendance.StaleCheckInterval,
	)
	attendanceJobs.RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           otelhttp.NewHandler(router, "http.server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
