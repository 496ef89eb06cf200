package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ekene/classpulse/internal/app/models"
)

// In-process fallback stores. They mirror the predicate semantics of the
// Postgres repositories so the services never know which backend served a
// call. Uniqueness of the (sessionCode, studentId) pair is NOT enforced here;
// the check-in processor's dedupe step, serialized per key, preserves it.

func ownerMatches(owner LecturerRef, lecturerID *int64, lecturer string) bool {
	if owner.ID != nil && lecturerID != nil && *owner.ID == *lecturerID {
		return true
	}
	return owner.Name != "" && owner.Name == lecturer
}

// MemorySessionStore is the process-local session fallback.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions []*models.AttendanceSession
	nextID   int64
}

// NewMemorySessionStore creates an empty fallback session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{nextID: 1}
}

// Create inserts a new session
func (m *MemorySessionStore) Create(ctx context.Context, session *models.AttendanceSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.SessionCode == session.SessionCode {
			return ErrDuplicateSession
		}
	}
	session.ID = m.nextID
	m.nextID++
	clone := *session
	m.sessions = append(m.sessions, &clone)
	return nil
}

// FindByCode retrieves a session by its code
func (m *MemorySessionStore) FindByCode(ctx context.Context, code string) (*models.AttendanceSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.SessionCode == code {
			clone := *s
			return &clone, nil
		}
	}
	return nil, nil
}

// FindActiveByLecturer retrieves the lecturer's unexpired session, if any
func (m *MemorySessionStore) FindActiveByLecturer(ctx context.Context, owner LecturerRef, now time.Time) (*models.AttendanceSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var active *models.AttendanceSession
	for _, s := range m.sessions {
		if !ownerMatches(owner, s.LecturerID, s.Lecturer) || s.IsExpired(now) {
			continue
		}
		if active == nil || s.ExpiresAt.After(active.ExpiresAt) {
			active = s
		}
	}
	if active == nil {
		return nil, nil
	}
	clone := *active
	return &clone, nil
}

// DeleteExpiredByLecturer removes the lecturer's sessions past expiry
func (m *MemorySessionStore) DeleteExpiredByLecturer(ctx context.Context, owner LecturerRef, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.AttendanceSession
	var deleted int64
	for _, s := range m.sessions {
		if ownerMatches(owner, s.LecturerID, s.Lecturer) && s.IsExpired(now) {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	m.sessions = kept
	return deleted, nil
}

// DeleteAllExpired removes every session past expiry regardless of owner
func (m *MemorySessionStore) DeleteAllExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.AttendanceSession
	var deleted int64
	for _, s := range m.sessions {
		if s.IsExpired(now) {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	m.sessions = kept
	return deleted, nil
}

// DeleteByLecturer removes the lecturer's sessions matching the filter
func (m *MemorySessionStore) DeleteByLecturer(ctx context.Context, owner LecturerRef, filter SessionFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.AttendanceSession
	var deleted int64
	for _, s := range m.sessions {
		match := ownerMatches(owner, s.LecturerID, s.Lecturer)
		if match && filter.SessionCode != "" && s.SessionCode != filter.SessionCode {
			match = false
		}
		if match && filter.CourseCode != "" && s.CourseCode != filter.CourseCode {
			match = false
		}
		if match {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	m.sessions = kept
	return deleted, nil
}

// ListRecentByLecturer retrieves the lecturer's most recent sessions
func (m *MemorySessionStore) ListRecentByLecturer(ctx context.Context, owner LecturerRef, limit int) ([]*models.AttendanceSession, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.AttendanceSession
	for _, s := range m.sessions {
		if ownerMatches(owner, s.LecturerID, s.Lecturer) {
			clone := *s
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].IssuedAt.After(result[j].IssuedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MemoryCheckInStore is the process-local check-in log fallback.
type MemoryCheckInStore struct {
	mu   sync.Mutex
	logs []*models.CheckInLog
}

// NewMemoryCheckInStore creates an empty fallback check-in store.
func NewMemoryCheckInStore() *MemoryCheckInStore {
	return &MemoryCheckInStore{}
}

// Create appends a check-in entry
func (m *MemoryCheckInStore) Create(ctx context.Context, log *models.CheckInLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *log
	m.logs = append(m.logs, &clone)
	return nil
}

// FindBySessionAndStudent retrieves the entry for a (session, student) pair
func (m *MemoryCheckInStore) FindBySessionAndStudent(ctx context.Context, sessionCode string, studentID int64) (*models.CheckInLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.SessionCode == sessionCode && l.StudentID == studentID {
			clone := *l
			return &clone, nil
		}
	}
	return nil, nil
}

// ListByLecturer retrieves the lecturer's check-in records, newest first
func (m *MemoryCheckInStore) ListByLecturer(ctx context.Context, owner LecturerRef, filter CheckInFilter) ([]*models.CheckInLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.CheckInLog
	for _, l := range m.logs {
		if !ownerMatches(owner, l.LecturerID, l.Lecturer) {
			continue
		}
		if filter.SessionCode != "" && l.SessionCode != filter.SessionCode {
			continue
		}
		if filter.CourseCode != "" && l.CourseCode != filter.CourseCode {
			continue
		}
		clone := *l
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteByLecturer removes the lecturer's check-in records matching the filter
func (m *MemoryCheckInStore) DeleteByLecturer(ctx context.Context, owner LecturerRef, filter CheckInFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.CheckInLog
	var deleted int64
	for _, l := range m.logs {
		match := ownerMatches(owner, l.LecturerID, l.Lecturer)
		if match && filter.SessionCode != "" && l.SessionCode != filter.SessionCode {
			match = false
		}
		if match && filter.CourseCode != "" && l.CourseCode != filter.CourseCode {
			match = false
		}
		if match {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	m.logs = kept
	return deleted, nil
}

// MemoryNotificationStore is a process-local notification log, used by tests
// and by the in-memory queue mode.
type MemoryNotificationStore struct {
	mu            sync.Mutex
	notifications []*models.Notification
}

// NewMemoryNotificationStore creates an empty notification store.
func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{}
}

// Create appends a notification
func (m *MemoryNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *n
	m.notifications = append(m.notifications, &clone)
	return nil
}

// ListByUser retrieves a user's notifications, newest first
func (m *MemoryNotificationStore) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			clone := *n
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountUnread returns the number of unread notifications for a user
func (m *MemoryNotificationStore) CountUnread(ctx context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flags a notification as read, scoped to its owner
func (m *MemoryNotificationStore) MarkRead(ctx context.Context, id string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return ErrNotificationOwner
}
