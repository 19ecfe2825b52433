package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/attendance"
)

// memStore backs the in-memory repositories. writes counts every mutation.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]attendance.Session
	breaks   map[string]attendance.BreakInterval
	writes   int
}

func newMemStore() *memStore {
	return &memStore{
		sessions: map[string]attendance.Session{},
		breaks:   map[string]attendance.BreakInterval{},
	}
}

// snapshot copies the stored rows for before/after comparisons.
func (m *memStore) snapshot() (map[string]attendance.Session, map[string]attendance.BreakInterval, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := make(map[string]attendance.Session, len(m.sessions))
	for k, v := range m.sessions {
		s[k] = v
	}
	b := make(map[string]attendance.BreakInterval, len(m.breaks))
	for k, v := range m.breaks {
		b[k] = v
	}
	return s, b, m.writes
}

type memSessions struct{ *memStore }

func (m memSessions) Create(ctx context.Context, s attendance.Session) (attendance.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sessions {
		if existing.UserID == s.UserID && existing.IsOpen() {
			return attendance.Session{}, attendance.ErrActiveSessionExists
		}
	}
	s.ID = uuid.Must(uuid.NewV7()).String()
	s.CreatedAt = s.PunchIn
	s.UpdatedAt = s.PunchIn
	m.sessions[s.ID] = s
	m.writes++
	return s, nil
}

func (m memSessions) GetByID(ctx context.Context, id string) (attendance.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return attendance.Session{}, attendance.ErrSessionNotFound
	}
	return s, nil
}

func (m memSessions) LockUser(ctx context.Context, userID string) error { return nil }

func (m memSessions) GetActiveForUpdate(ctx context.Context, userID string) (*attendance.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsOpen() {
			return &s, nil
		}
	}
	return nil, nil
}

func (m memSessions) Update(ctx context.Context, s attendance.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return attendance.ErrSessionNotFound
	}
	m.sessions[s.ID] = s
	m.writes++
	return nil
}

func (m memSessions) list(keep func(attendance.Session) bool) []attendance.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.Session
	for _, s := range m.sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PunchIn.Before(out[j].PunchIn) })
	return out
}

func (m memSessions) ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]attendance.Session, error) {
	return m.list(func(s attendance.Session) bool { return s.UserID == userID && s.Date.Equal(date) }), nil
}

func (m memSessions) ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]attendance.Session, error) {
	return m.list(func(s attendance.Session) bool {
		return s.UserID == userID && !s.Date.Before(from) && !s.Date.After(to)
	}), nil
}

func (m memSessions) ListByDate(ctx context.Context, date time.Time) ([]attendance.Session, error) {
	return m.list(func(s attendance.Session) bool { return s.Date.Equal(date) }), nil
}

func (m memSessions) ListOpenStartedBefore(ctx context.Context, t time.Time) ([]attendance.Session, error) {
	return m.list(func(s attendance.Session) bool { return s.IsOpen() && s.PunchIn.Before(t) }), nil
}

type memBreaks struct{ *memStore }

func (m memBreaks) Create(ctx context.Context, b attendance.BreakInterval) (attendance.BreakInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.Must(uuid.NewV7()).String()
	b.CreatedAt = b.StartTime
	b.UpdatedAt = b.StartTime
	m.breaks[b.ID] = b
	m.writes++
	return b, nil
}

func (m memBreaks) GetByID(ctx context.Context, id string) (attendance.BreakInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.breaks[id]
	if !ok {
		return attendance.BreakInterval{}, attendance.ErrBreakNotFound
	}
	return b, nil
}

func (m memBreaks) GetOpenBySession(ctx context.Context, sessionID string) (*attendance.BreakInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.breaks {
		if b.SessionID == sessionID && b.IsOpen() {
			return &b, nil
		}
	}
	return nil, nil
}

func (m memBreaks) Update(ctx context.Context, b attendance.BreakInterval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.breaks[b.ID]; !ok {
		return attendance.ErrBreakNotFound
	}
	m.breaks[b.ID] = b
	m.writes++
	return nil
}

func (m memBreaks) ListBySession(ctx context.Context, sessionID string) ([]attendance.BreakInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attendance.BreakInterval
	for _, b := range m.breaks {
		if b.SessionID == sessionID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// serialTx runs one transaction at a time, standing in for the per-user lock.
type serialTx struct{ mu sync.Mutex }

func (s *serialTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

// blindSessions never sees an active session, so only the store's uniqueness
// check can stop a second punch-in.
type blindSessions struct{ memSessions }

func (blindSessions) GetActiveForUpdate(ctx context.Context, userID string) (*attendance.Session, error) {
	return nil, nil
}
