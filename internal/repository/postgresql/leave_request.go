package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/leave"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRepositoryImpl struct {
	db *database.DB
}

const approvedLeaveSelect = `
	SELECT lr.id, lr.user_id, lr.start_date, lr.end_date, lr.duration_type, COALESCE(lt.name, '')
	FROM leave_requests lr
	LEFT JOIN leave_types lt ON lt.id = lr.leave_type_id
	WHERE lr.status = 'approved'
`

func collectLeaves(rows pgx.Rows) ([]leave.ApprovedLeave, error) {
	defer rows.Close()

	leaves := make([]leave.ApprovedLeave, 0)
	for rows.Next() {
		var l leave.ApprovedLeave
		if err := rows.Scan(&l.ID, &l.UserID, &l.StartDate, &l.EndDate, &l.DurationType, &l.LeaveTypeName); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		leaves = append(leaves, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}
	return leaves, nil
}

// ListApprovedInRange implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) ListApprovedInRange(ctx context.Context, userID string, from, to time.Time) ([]leave.ApprovedLeave, error) {
	q := GetQuerier(ctx, r.db)

	query := approvedLeaveSelect + `
		  AND lr.user_id = $1
		  AND lr.start_date <= $3
		  AND lr.end_date >= $2
		ORDER BY lr.start_date ASC
	`

	rows, err := q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leaves: %w", err)
	}
	return collectLeaves(rows)
}

// ListApprovedOnDate implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) ListApprovedOnDate(ctx context.Context, date time.Time) ([]leave.ApprovedLeave, error) {
	q := GetQuerier(ctx, r.db)

	query := approvedLeaveSelect + `
		  AND lr.start_date <= $1
		  AND lr.end_date >= $1
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leaves on date: %w", err)
	}
	return collectLeaves(rows)
}

func NewLeaveRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRepositoryImpl{db: db}
}
