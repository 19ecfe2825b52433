package report

import "context"

// ReportService defines the interface for attendance report generation
type ReportService interface {
	// GetMonthlyReport builds one user's month; defaults to the caller
	GetMonthlyReport(ctx context.Context, req MonthlyReportRequest) (MonthlyReportResponse, error)

	// GetDailyReport classifies every active user for one date
	GetDailyReport(ctx context.Context, req DailyReportRequest) (DailyReportResponse, error)

	// ExportMonthlyReport renders the monthly report as an XLSX workbook
	ExportMonthlyReport(ctx context.Context, req MonthlyReportRequest) (string, []byte, error)
}
