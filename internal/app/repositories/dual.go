package repositories

import (
	"context"
	"time"

	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/pkg/metrics"
)

// OnlineFunc reports whether the persistent backend is currently reachable.
// The dual stores call it on every operation and never cache the answer, so a
// connectivity change takes effect on the next call. A session created while
// offline becomes invisible once the persistent backend returns; that is an
// accepted limitation of the fallback mode.
type OnlineFunc func() bool

// DualSessionStore routes each call to the persistent store or the in-process
// fallback depending on current connectivity.
type DualSessionStore struct {
	primary  SessionStore
	fallback SessionStore
	online   OnlineFunc
}

// NewDualSessionStore creates a connectivity-switched session store.
func NewDualSessionStore(primary, fallback SessionStore, online OnlineFunc) *DualSessionStore {
	return &DualSessionStore{primary: primary, fallback: fallback, online: online}
}

func (d *DualSessionStore) pick() SessionStore {
	if d.online() {
		return d.primary
	}
	metrics.FallbackOperations.Inc()
	return d.fallback
}

func (d *DualSessionStore) Create(ctx context.Context, session *models.AttendanceSession) error {
	return d.pick().Create(ctx, session)
}

func (d *DualSessionStore) FindByCode(ctx context.Context, code string) (*models.AttendanceSession, error) {
	return d.pick().FindByCode(ctx, code)
}

func (d *DualSessionStore) FindActiveByLecturer(ctx context.Context, owner LecturerRef, now time.Time) (*models.AttendanceSession, error) {
	return d.pick().FindActiveByLecturer(ctx, owner, now)
}

func (d *DualSessionStore) DeleteExpiredByLecturer(ctx context.Context, owner LecturerRef, now time.Time) (int64, error) {
	return d.pick().DeleteExpiredByLecturer(ctx, owner, now)
}

func (d *DualSessionStore) DeleteAllExpired(ctx context.Context, now time.Time) (int64, error) {
	return d.pick().DeleteAllExpired(ctx, now)
}

func (d *DualSessionStore) DeleteByLecturer(ctx context.Context, owner LecturerRef, filter SessionFilter) (int64, error) {
	return d.pick().DeleteByLecturer(ctx, owner, filter)
}

func (d *DualSessionStore) ListRecentByLecturer(ctx context.Context, owner LecturerRef, limit int) ([]*models.AttendanceSession, error) {
	return d.pick().ListRecentByLecturer(ctx, owner, limit)
}

// DualCheckInStore routes each call to the persistent store or the in-process
// fallback depending on current connectivity.
type DualCheckInStore struct {
	primary  CheckInStore
	fallback CheckInStore
	online   OnlineFunc
}

// NewDualCheckInStore creates a connectivity-switched check-in store.
func NewDualCheckInStore(primary, fallback CheckInStore, online OnlineFunc) *DualCheckInStore {
	return &DualCheckInStore{primary: primary, fallback: fallback, online: online}
}

func (d *DualCheckInStore) pick() CheckInStore {
	if d.online() {
		return d.primary
	}
	metrics.FallbackOperations.Inc()
	return d.fallback
}

func (d *DualCheckInStore) Create(ctx context.Context, log *models.CheckInLog) error {
	return d.pick().Create(ctx, log)
}

func (d *DualCheckInStore) FindBySessionAndStudent(ctx context.Context, sessionCode string, studentID int64) (*models.CheckInLog, error) {
	return d.pick().FindBySessionAndStudent(ctx, sessionCode, studentID)
}

func (d *DualCheckInStore) ListByLecturer(ctx context.Context, owner LecturerRef, filter CheckInFilter) ([]*models.CheckInLog, error) {
	return d.pick().ListByLecturer(ctx, owner, filter)
}

func (d *DualCheckInStore) DeleteByLecturer(ctx context.Context, owner LecturerRef, filter CheckInFilter) (int64, error) {
	return d.pick().DeleteByLecturer(ctx, owner, filter)
}
