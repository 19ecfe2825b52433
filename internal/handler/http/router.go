package http

import (
	"log/slog"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/user"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/handler/http/middleware"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	Logger         *slog.Logger
	LogLevel       slog.Level
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, attendanceHandler AttendanceHandler, reportHandler ReportHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceCreate))
					r.Post("/punch-in", attendanceHandler.PunchIn)
					r.Post("/punch-out", attendanceHandler.PunchOut)
					r.Post("/break-start", attendanceHandler.BreakStart)
					r.Post("/break-end", attendanceHandler.BreakEnd)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
					r.Get("/status", attendanceHandler.Status)
					r.Get("/sessions/{id}/breaks", attendanceHandler.ListBreaks)
				})

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceEdit))
					r.Put("/sessions/{id}", attendanceHandler.EditSession)
					r.Put("/breaks/{id}", attendanceHandler.EditBreak)
				})
			})

			r.Route("/reports/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionReportsViewOwn))
					r.Get("/monthly", reportHandler.GetMonthlyAttendanceReport)
					r.Get("/monthly/export", reportHandler.ExportMonthlyAttendanceReport)
				})

				r.With(middleware.RequirePermission(user.PermissionReportsView)).
					Get("/daily", reportHandler.GetDailyAttendanceReport)
			})
		})
	})
	return r
}
