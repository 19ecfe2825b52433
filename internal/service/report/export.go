package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Attendance"

var exportHeaders = []string{
	"Date", "Day", "Status", "First Punch In", "Last Punch Out",
	"Worked (min)", "Break (min)", "Late (min)", "Early Leave (min)", "Leave",
}

// ExportMonthlyReport implements report.ReportService.
func (s *ReportServiceImpl) ExportMonthlyReport(ctx context.Context, req report.MonthlyReportRequest) (string, []byte, error) {
	resp, subject, err := s.monthly(ctx, req)
	if err != nil {
		return "", nil, err
	}

	data, err := renderMonthlyWorkbook(resp)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", report.ErrReportGenerationFailed, err)
	}

	filename := fmt.Sprintf("attendance_%s_%04d_%02d.xlsx", fileSafe(subject.FullName), resp.PeriodYear, resp.PeriodMonth)
	return filename, data, nil
}

func renderMonthlyWorkbook(resp report.MonthlyReportResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	f.SetCellValue(exportSheet, "A1", "MONTHLY ATTENDANCE REPORT")
	f.SetCellStyle(exportSheet, "A1", "A1", titleStyle)
	f.SetCellValue(exportSheet, "A2", "Name:")
	f.SetCellValue(exportSheet, "B2", resp.UserName)
	f.SetCellValue(exportSheet, "A3", "Period:")
	f.SetCellValue(exportSheet, "B3", fmt.Sprintf("%s to %s", resp.PeriodStart, resp.PeriodEnd))

	const headerRow = 5
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(exportSheet, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), headerRow)
	f.SetCellStyle(exportSheet, "A5", lastHeader, headerStyle)

	row := headerRow + 1
	for _, d := range resp.Days {
		values := []interface{}{
			d.Date,
			d.DayOfWeek,
			string(d.Status),
			deref(d.FirstPunchIn),
			deref(d.LastPunchOut),
			d.TotalWorkedMinutes,
			d.TotalBreakMinutes,
			d.LateMinutes,
			d.EarlyLeaveMinutes,
			deref(d.LeaveType),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
		row++
	}

	row++
	summary := [][]interface{}{
		{"Present days", resp.Summary.PresentDays},
		{"Absent days", resp.Summary.AbsentDays},
		{"Leave days", resp.Summary.LeaveDays},
		{"Half days", resp.Summary.HalfDays},
		{"Off days", resp.Summary.OffDays},
		{"Late days", resp.Summary.LateDays},
		{"Total late minutes", resp.Summary.TotalLateMinutes},
		{"Early leave days", resp.Summary.EarlyLeaveDays},
		{"Total worked minutes", resp.Summary.TotalWorkedMinutes},
		{"Working days", resp.Summary.WorkingDays},
		{"Target working days", resp.Summary.TargetWorkingDays},
	}
	f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), "Summary")
	f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), titleStyle)
	row++
	for _, line := range summary {
		f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), line[0])
		f.SetCellValue(exportSheet, fmt.Sprintf("B%d", row), line[1])
		row++
	}

	f.SetColWidth(exportSheet, "A", "A", 22)
	f.SetColWidth(exportSheet, "B", "C", 12)
	f.SetColWidth(exportSheet, "D", "E", 27)
	f.SetColWidth(exportSheet, "F", "I", 16)
	f.SetColWidth(exportSheet, "J", "J", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// fileSafe lowercases name and keeps only [a-z0-9_].
func fileSafe(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
