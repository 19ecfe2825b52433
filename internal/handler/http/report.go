package http

import (
	"net/http"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/report"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/handler/http/response"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler interface {
	// Monthly attendance of one user
	GetMonthlyAttendanceReport(w http.ResponseWriter, r *http.Request)
	ExportMonthlyAttendanceReport(w http.ResponseWriter, r *http.Request)

	// Daily attendance of all users
	GetDailyAttendanceReport(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// monthlyRequest reads user_id, year and month from the query string.
func monthlyRequest(r *http.Request) (report.MonthlyReportRequest, bool) {
	q := r.URL.Query()

	year, month, ok := validator.ParseYearMonth(q.Get("year"), q.Get("month"))
	if !ok {
		return report.MonthlyReportRequest{}, false
	}

	req := report.MonthlyReportRequest{
		Month: int(month),
		Year:  year,
	}
	if userID := q.Get("user_id"); userID != "" {
		req.UserID = &userID
	}
	return req, true
}

// GetMonthlyAttendanceReport handles GET /reports/attendance/monthly
func (h *reportHandlerImpl) GetMonthlyAttendanceReport(w http.ResponseWriter, r *http.Request) {
	req, ok := monthlyRequest(r)
	if !ok {
		response.BadRequest(w, "invalid year or month parameter", nil)
		return
	}

	result, err := h.reportService.GetMonthlyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportMonthlyAttendanceReport handles GET /reports/attendance/monthly/export
func (h *reportHandlerImpl) ExportMonthlyAttendanceReport(w http.ResponseWriter, r *http.Request) {
	req, ok := monthlyRequest(r)
	if !ok {
		response.BadRequest(w, "invalid year or month parameter", nil)
		return
	}

	filename, data, err := h.reportService.ExportMonthlyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, filename, xlsxContentType, data)
}

// GetDailyAttendanceReport handles GET /reports/attendance/daily
func (h *reportHandlerImpl) GetDailyAttendanceReport(w http.ResponseWriter, r *http.Request) {
	req := report.DailyReportRequest{Date: r.URL.Query().Get("date")}

	result, err := h.reportService.GetDailyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
