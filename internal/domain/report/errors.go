package report

import "errors"

var (
	ErrInvalidMonth           = errors.New("month must be between 1 and 12")
	ErrInvalidYear            = errors.New("year must be a valid year")
	ErrReportForbidden        = errors.New("not allowed to view another user's report")
	ErrReportGenerationFailed = errors.New("failed to generate report")
)
