package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/attendance"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/leave"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/report"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/setting"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/user"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/clock"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/jwt"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	// TargetWorkingDays is used when the monthly_working_days setting is absent.
	TargetWorkingDays int
}

type ReportServiceImpl struct {
	attendance.SessionRepository
	leave.LeaveRepository
	user.UserRepository
	setting.SettingRepository
	aggregator *report.Aggregator
	clock      clock.Clock
	config     Config
}

func NewReportService(
	sessionRepository attendance.SessionRepository,
	leaveRepository leave.LeaveRepository,
	userRepository user.UserRepository,
	settingRepository setting.SettingRepository,
	aggregator *report.Aggregator,
	clk clock.Clock,
	config Config,
) report.ReportService {
	return &ReportServiceImpl{
		SessionRepository: sessionRepository,
		LeaveRepository:   leaveRepository,
		UserRepository:    userRepository,
		SettingRepository: settingRepository,
		aggregator:        aggregator,
		clock:             clk,
		config:            config,
	}
}

// GetMonthlyReport implements report.ReportService.
func (s *ReportServiceImpl) GetMonthlyReport(ctx context.Context, req report.MonthlyReportRequest) (report.MonthlyReportResponse, error) {
	resp, _, err := s.monthly(ctx, req)
	return resp, err
}

// monthly builds the report and also returns the subject user for export.
func (s *ReportServiceImpl) monthly(ctx context.Context, req report.MonthlyReportRequest) (report.MonthlyReportResponse, user.User, error) {
	if err := req.Validate(); err != nil {
		return report.MonthlyReportResponse{}, user.User{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return report.MonthlyReportResponse{}, user.User{}, err
	}

	userID := actor.UserID
	if req.UserID != nil && *req.UserID != actor.UserID {
		if !actor.Can(user.PermissionReportsView) {
			return report.MonthlyReportResponse{}, user.User{}, report.ErrReportForbidden
		}
		userID = *req.UserID
	}

	month := time.Month(req.Month)
	first, last := clock.MonthRange(req.Year, month)

	var (
		subject  user.User
		sessions []attendance.Session
		leaves   []leave.ApprovedLeave
		target   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.UserRepository.GetByID(gctx, userID)
		if err != nil {
			return err
		}
		subject = u
		return nil
	})
	g.Go(func() error {
		var err error
		sessions, err = s.SessionRepository.ListByUserAndRange(gctx, userID, first, last)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		leaves, err = s.LeaveRepository.ListApprovedInRange(gctx, userID, first, last)
		if err != nil {
			return fmt.Errorf("failed to list approved leaves: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		target, err = s.targetWorkingDays(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.MonthlyReportResponse{}, user.User{}, err
	}

	now := s.clock.Now()
	loc := s.clock.Location()
	since := subject.CreatedAt.In(loc)

	agg := s.aggregator.Month(report.MonthInput{
		UserID:            userID,
		Year:              req.Year,
		Month:             month,
		Sessions:          report.IndexSessions(sessions),
		Leaves:            report.IndexLeaves(leaves, first, last),
		Today:             clock.DateOf(now),
		Since:             &since,
		TargetWorkingDays: target,
	})

	resp := report.MonthlyReportResponse{
		UserID:      subject.ID,
		UserName:    subject.FullName,
		PeriodMonth: req.Month,
		PeriodYear:  req.Year,
		PeriodStart: first.Format("2006-01-02"),
		PeriodEnd:   last.Format("2006-01-02"),
		GeneratedAt: now.Format(time.RFC3339),
		Summary:     report.NewSummaryResponse(agg.Summary),
		Days:        make([]report.DayResponse, 0, len(agg.Days)),
	}
	for _, d := range agg.Days {
		resp.Days = append(resp.Days, report.NewDayResponse(d, loc))
	}

	return resp, subject, nil
}

// targetWorkingDays reads the monthly_working_days setting, falling back to config.
func (s *ReportServiceImpl) targetWorkingDays(ctx context.Context) (int, error) {
	if s.SettingRepository == nil {
		return s.config.TargetWorkingDays, nil
	}
	n, err := s.SettingRepository.GetInt(ctx, setting.KeyMonthlyWorkingDays)
	if err != nil {
		if errors.Is(err, setting.ErrSettingNotFound) {
			return s.config.TargetWorkingDays, nil
		}
		return 0, fmt.Errorf("failed to read working days setting: %w", err)
	}
	return n, nil
}

// GetDailyReport implements report.ReportService.
func (s *ReportServiceImpl) GetDailyReport(ctx context.Context, req report.DailyReportRequest) (report.DailyReportResponse, error) {
	if err := req.Validate(); err != nil {
		return report.DailyReportResponse{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return report.DailyReportResponse{}, err
	}
	if !actor.Can(user.PermissionReportsView) {
		return report.DailyReportResponse{}, user.ErrManagerAccessRequired
	}

	date := req.ParsedDate()

	var (
		users    []user.User
		sessions []attendance.Session
		leaves   []leave.ApprovedLeave
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.UserRepository.ListActive(gctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sessions, err = s.SessionRepository.ListByDate(gctx, date)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		leaves, err = s.LeaveRepository.ListApprovedOnDate(gctx, date)
		if err != nil {
			return fmt.Errorf("failed to list approved leaves: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return report.DailyReportResponse{}, err
	}

	now := s.clock.Now()
	loc := s.clock.Location()
	sessionIndex := report.IndexSessions(sessions)
	leaveIndex := report.IndexLeaves(leaves, date, date)

	resp := report.DailyReportResponse{
		Date:        date.Format("2006-01-02"),
		DayOfWeek:   date.Weekday().String(),
		GeneratedAt: now.Format(time.RFC3339),
		Rows:        make([]report.DailyReportEntry, 0, len(users)),
	}

	for _, u := range users {
		since := u.CreatedAt.In(loc)
		day := s.aggregator.Day(report.DayInput{
			UserID:   u.ID,
			Date:     date,
			Sessions: sessionIndex.Get(u.ID, date),
			Leave:    leaveIndex.Get(u.ID, date),
			Today:    clock.DateOf(now),
			Since:    &since,
		})
		resp.Summary.Add(day)
		resp.Rows = append(resp.Rows, report.DailyReportEntry{
			UserID:      u.ID,
			UserName:    u.FullName,
			Role:        string(u.Role),
			DayResponse: report.NewDayResponse(day, loc),
		})
	}

	return resp, nil
}
