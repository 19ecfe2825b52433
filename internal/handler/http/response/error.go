package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/attendance"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/report"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/user"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/jwt"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrMissingToken), errors.Is(err, jwt.ErrInvalidClaim):
		Unauthorized(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrInvalidTransition):
		InvalidTransition(w, err.Error())
	case errors.Is(err, attendance.ErrActiveSessionExists):
		Conflict(w, "An attendance session is already open")
	case errors.Is(err, attendance.ErrSessionNotFound):
		NotFound(w, "Attendance session not found")
	case errors.Is(err, attendance.ErrBreakNotFound):
		NotFound(w, "Break interval not found")
	case errors.Is(err, attendance.ErrInvalidTimeRange),
		errors.Is(err, attendance.ErrBreakStillOpen),
		errors.Is(err, attendance.ErrBreakOutsideSpan),
		errors.Is(err, attendance.ErrSessionStillOpen):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, "Not allowed to access this attendance record")

	// Report domain errors
	case errors.Is(err, report.ErrInvalidMonth), errors.Is(err, report.ErrInvalidYear):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, report.ErrReportForbidden):
		Forbidden(w, "Not allowed to view another user's report")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
