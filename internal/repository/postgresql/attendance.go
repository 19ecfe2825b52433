package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/attendance"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const sessionColumns = `
	id, user_id, date, punch_in, punch_out, status,
	total_worked_minutes, break_start, total_break_minutes,
	latitude, longitude, location_label, office_distance_m,
	punch_out_latitude, punch_out_longitude,
	created_at, updated_at
`

// uqOpenSession is the partial unique index allowing one open session per user.
const uqOpenSession = "uq_attendance_sessions_open_per_user"

type sessionRepository struct {
	db *database.DB
}

func scanSession(row pgx.Row) (attendance.Session, error) {
	var s attendance.Session
	err := row.Scan(
		&s.ID, &s.UserID, &s.Date, &s.PunchIn, &s.PunchOut, &s.Status,
		&s.TotalWorkedMinutes, &s.BreakStart, &s.TotalBreakMinutes,
		&s.Latitude, &s.Longitude, &s.LocationLabel, &s.OfficeDistanceM,
		&s.PunchOutLatitude, &s.PunchOutLongitude,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err == nil && !s.Status.IsValid() {
		return s, fmt.Errorf("session %s has unknown status %q", s.ID, s.Status)
	}
	return s, err
}

func collectSessions(rows pgx.Rows) ([]attendance.Session, error) {
	defer rows.Close()

	sessions := make([]attendance.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance sessions: %w", err)
	}
	return sessions, nil
}

// Create implements attendance.SessionRepository.
func (r *sessionRepository) Create(ctx context.Context, s attendance.Session) (attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Session{}, fmt.Errorf("failed to generate session id: %w", err)
	}
	s.ID = id.String()

	query := `
		INSERT INTO attendance_sessions (
			id, user_id, date, punch_in, status, total_break_minutes,
			latitude, longitude, location_label, office_distance_m
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		s.ID,
		s.UserID,
		s.Date,
		s.PunchIn,
		s.Status,
		s.TotalBreakMinutes,
		s.Latitude,
		s.Longitude,
		s.LocationLabel,
		s.OfficeDistanceM,
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == uqOpenSession { // unique_violation
			return attendance.Session{}, attendance.ErrActiveSessionExists
		}
		return attendance.Session{}, fmt.Errorf("failed to create attendance session: %w", err)
	}

	return s, nil
}

// GetByID implements attendance.SessionRepository.
func (r *sessionRepository) GetByID(ctx context.Context, id string) (attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE id = $1`

	s, err := scanSession(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Session{}, attendance.ErrSessionNotFound
		}
		return attendance.Session{}, fmt.Errorf("failed to get attendance session: %w", err)
	}

	return s, nil
}

// LockUser implements attendance.SessionRepository.
// Must be called inside a transaction; the lock is released on commit or rollback.
func (r *sessionRepository) LockUser(ctx context.Context, userID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return fmt.Errorf("failed to lock user attendance: %w", err)
	}
	return nil
}

// GetActiveForUpdate implements attendance.SessionRepository.
func (r *sessionRepository) GetActiveForUpdate(ctx context.Context, userID string) (*attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions
		WHERE user_id = $1
		  AND status <> 'punched_out'
		ORDER BY punch_in DESC
		LIMIT 1
		FOR UPDATE
	`

	s, err := scanSession(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active attendance session: %w", err)
	}

	return &s, nil
}

// Update implements attendance.SessionRepository.
func (r *sessionRepository) Update(ctx context.Context, s attendance.Session) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_sessions SET
			date = $2,
			punch_in = $3,
			punch_out = $4,
			status = $5,
			total_worked_minutes = $6,
			break_start = $7,
			total_break_minutes = $8,
			punch_out_latitude = $9,
			punch_out_longitude = $10,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		s.ID,
		s.Date,
		s.PunchIn,
		s.PunchOut,
		s.Status,
		s.TotalWorkedMinutes,
		s.BreakStart,
		s.TotalBreakMinutes,
		s.PunchOutLatitude,
		s.PunchOutLongitude,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrSessionNotFound
	}

	return nil
}

// ListByUserAndDate implements attendance.SessionRepository.
func (r *sessionRepository) ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions
		WHERE user_id = $1 AND date = $2
		ORDER BY punch_in ASC
	`

	rows, err := q.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance sessions: %w", err)
	}
	return collectSessions(rows)
}

// ListByUserAndRange implements attendance.SessionRepository.
func (r *sessionRepository) ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC, punch_in ASC
	`

	rows, err := q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance sessions in range: %w", err)
	}
	return collectSessions(rows)
}

// ListByDate implements attendance.SessionRepository.
func (r *sessionRepository) ListByDate(ctx context.Context, date time.Time) ([]attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions
		WHERE date = $1
		ORDER BY user_id ASC, punch_in ASC
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance sessions by date: %w", err)
	}
	return collectSessions(rows)
}

// ListOpenStartedBefore implements attendance.SessionRepository.
func (r *sessionRepository) ListOpenStartedBefore(ctx context.Context, t time.Time) ([]attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions
		WHERE status <> 'punched_out' AND punch_in < $1
		ORDER BY punch_in ASC
	`

	rows, err := q.Query(ctx, query, t)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale attendance sessions: %w", err)
	}
	return collectSessions(rows)
}

func NewSessionRepository(db *database.DB) attendance.SessionRepository {
	return &sessionRepository{db: db}
}

const breakColumns = `id, session_id, user_id, start_time, end_time, total_minutes, created_at, updated_at`

type breakRepository struct {
	db *database.DB
}

func scanBreak(row pgx.Row) (attendance.BreakInterval, error) {
	var b attendance.BreakInterval
	err := row.Scan(&b.ID, &b.SessionID, &b.UserID, &b.StartTime, &b.EndTime, &b.TotalMinutes, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// Create implements attendance.BreakRepository.
func (r *breakRepository) Create(ctx context.Context, b attendance.BreakInterval) (attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.BreakInterval{}, fmt.Errorf("failed to generate break id: %w", err)
	}
	b.ID = id.String()

	query := `
		INSERT INTO break_intervals (id, session_id, user_id, start_time, end_time, total_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query, b.ID, b.SessionID, b.UserID, b.StartTime, b.EndTime, b.TotalMinutes).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return attendance.BreakInterval{}, fmt.Errorf("failed to create break interval: %w", err)
	}

	return b, nil
}

// GetByID implements attendance.BreakRepository.
func (r *breakRepository) GetByID(ctx context.Context, id string) (attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	b, err := scanBreak(q.QueryRow(ctx, `SELECT `+breakColumns+` FROM break_intervals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.BreakInterval{}, attendance.ErrBreakNotFound
		}
		return attendance.BreakInterval{}, fmt.Errorf("failed to get break interval: %w", err)
	}

	return b, nil
}

// GetOpenBySession implements attendance.BreakRepository.
func (r *breakRepository) GetOpenBySession(ctx context.Context, sessionID string) (*attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + breakColumns + `
		FROM break_intervals
		WHERE session_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1
	`

	b, err := scanBreak(q.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open break interval: %w", err)
	}

	return &b, nil
}

// Update implements attendance.BreakRepository.
func (r *breakRepository) Update(ctx context.Context, b attendance.BreakInterval) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE break_intervals SET
			start_time = $2,
			end_time = $3,
			total_minutes = $4,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, b.ID, b.StartTime, b.EndTime, b.TotalMinutes)
	if err != nil {
		return fmt.Errorf("failed to update break interval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrBreakNotFound
	}

	return nil
}

// ListBySession implements attendance.BreakRepository.
func (r *breakRepository) ListBySession(ctx context.Context, sessionID string) ([]attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+breakColumns+` FROM break_intervals WHERE session_id = $1 ORDER BY start_time ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list break intervals: %w", err)
	}
	defer rows.Close()

	breaks := make([]attendance.BreakInterval, 0)
	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan break interval: %w", err)
		}
		breaks = append(breaks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate break intervals: %w", err)
	}

	return breaks, nil
}

func NewBreakRepository(db *database.DB) attendance.BreakRepository {
	return &breakRepository{db: db}
}
