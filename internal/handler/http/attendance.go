package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/attendance"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	PunchIn(w http.ResponseWriter, r *http.Request)
	PunchOut(w http.ResponseWriter, r *http.Request)
	BreakStart(w http.ResponseWriter, r *http.Request)
	BreakEnd(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	ListBreaks(w http.ResponseWriter, r *http.Request)
	EditSession(w http.ResponseWriter, r *http.Request)
	EditBreak(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

type actionFunc func(ctx context.Context, req attendance.PunchRequest) (attendance.ActionResponse, error)

// PunchIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) PunchIn(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.attendanceService.PunchIn)
}

// PunchOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) PunchOut(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.attendanceService.PunchOut)
}

// BreakStart implements AttendanceHandler.
func (h *attendanceHandlerImpl) BreakStart(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.attendanceService.StartBreak)
}

// BreakEnd implements AttendanceHandler.
func (h *attendanceHandlerImpl) BreakEnd(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.attendanceService.EndBreak)
}

// action decodes the optional coordinates body and runs one intent. A
// rejected intent still answers 200 with applied=false.
func (h *attendanceHandlerImpl) action(w http.ResponseWriter, r *http.Request, run actionFunc) {
	var req attendance.PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Debug("Failed to decode punch request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := run(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !result.Applied {
		response.SuccessWithMessage(w, "Action not applied", result)
		return
	}
	response.Success(w, result)
}

// Status implements AttendanceHandler.
func (h *attendanceHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetTodayStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListBreaks implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListBreaks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.attendanceService.ListSessionBreaks(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// EditSession implements AttendanceHandler.
func (h *attendanceHandlerImpl) EditSession(w http.ResponseWriter, r *http.Request) {
	var req attendance.EditSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.SessionID = chi.URLParam(r, "id")

	result, err := h.attendanceService.EditSession(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance session updated successfully", result)
}

// EditBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) EditBreak(w http.ResponseWriter, r *http.Request) {
	var req attendance.EditBreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.BreakID = chi.URLParam(r, "id")

	result, err := h.attendanceService.EditBreak(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break interval updated successfully", result)
}
