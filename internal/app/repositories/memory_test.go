package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/ekene/classpulse/internal/app/models"
)

func int64Ptr(v int64) *int64 { return &v }

func newSession(code string, lecturerID *int64, lecturer, course string, issued time.Time, duration time.Duration) *models.AttendanceSession {
	return &models.AttendanceSession{
		SessionCode: code,
		CourseCode:  course,
		CourseName:  course + " name",
		Lecturer:    lecturer,
		LecturerID:  lecturerID,
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(duration),
	}
}

func TestMemorySessionStoreActiveLookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	expired := newSession("AAAAAA-AAAAAA", int64Ptr(7), "Dr. Obi", "CSC301", now.Add(-2*time.Hour), time.Hour)
	active := newSession("BBBBBB-BBBBBB", int64Ptr(7), "Dr. Obi", "CSC301", now.Add(-5*time.Minute), 30*time.Minute)
	other := newSession("CCCCCC-CCCCCC", int64Ptr(9), "Dr. Musa", "MTH101", now, 30*time.Minute)
	for _, s := range []*models.AttendanceSession{expired, active, other} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create(%s) error = %v", s.SessionCode, err)
		}
	}

	owner := LecturerRef{ID: int64Ptr(7), Name: "Dr. Obi"}
	got, err := store.FindActiveByLecturer(ctx, owner, now)
	if err != nil {
		t.Fatalf("FindActiveByLecturer() error = %v", err)
	}
	if got == nil || got.SessionCode != "BBBBBB-BBBBBB" {
		t.Fatalf("FindActiveByLecturer() = %+v, want BBBBBB-BBBBBB", got)
	}

	// A session is expired exactly at its boundary instant.
	boundary, err := store.FindActiveByLecturer(ctx, owner, active.ExpiresAt)
	if err != nil {
		t.Fatalf("FindActiveByLecturer(boundary) error = %v", err)
	}
	if boundary != nil {
		t.Errorf("FindActiveByLecturer at expiry instant = %+v, want nil", boundary)
	}
}

func TestMemorySessionStoreNameFallbackOwnership(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// Legacy session: no lecturer id, only a display name.
	legacy := newSession("AAAAAA-AAAAAA", nil, "Dr. Obi", "CSC301", now, 30*time.Minute)
	if err := store.Create(ctx, legacy); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.FindActiveByLecturer(ctx, LecturerRef{ID: int64Ptr(7), Name: "Dr. Obi"}, now)
	if err != nil {
		t.Fatalf("FindActiveByLecturer() error = %v", err)
	}
	if got == nil {
		t.Fatal("legacy session not matched by name")
	}
}

func TestMemorySessionStoreDeleteExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	owner := LecturerRef{ID: int64Ptr(7), Name: "Dr. Obi"}

	_ = store.Create(ctx, newSession("AAAAAA-AAAAAA", int64Ptr(7), "Dr. Obi", "CSC301", now.Add(-2*time.Hour), time.Hour))
	_ = store.Create(ctx, newSession("BBBBBB-BBBBBB", int64Ptr(7), "Dr. Obi", "CSC301", now, 30*time.Minute))
	_ = store.Create(ctx, newSession("CCCCCC-CCCCCC", int64Ptr(9), "Dr. Musa", "MTH101", now.Add(-2*time.Hour), time.Hour))

	deleted, err := store.DeleteExpiredByLecturer(ctx, owner, now)
	if err != nil {
		t.Fatalf("DeleteExpiredByLecturer() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	// The other lecturer's expired session is untouched.
	musa, _ := store.FindByCode(ctx, "CCCCCC-CCCCCC")
	if musa == nil {
		t.Error("another lecturer's session was swept")
	}
	mine, _ := store.FindByCode(ctx, "BBBBBB-BBBBBB")
	if mine == nil {
		t.Error("active session was swept")
	}
}

func TestMemorySessionStoreDuplicateCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	now := time.Now()

	if err := store.Create(ctx, newSession("AAAAAA-AAAAAA", nil, "Dr. Obi", "CSC301", now, time.Minute)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Create(ctx, newSession("AAAAAA-AAAAAA", nil, "Dr. Obi", "CSC301", now, time.Minute)); err != ErrDuplicateSession {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicateSession", err)
	}
}

func TestMemorySessionStoreDeleteByFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	now := time.Now()
	owner := LecturerRef{ID: int64Ptr(7), Name: "Dr. Obi"}

	_ = store.Create(ctx, newSession("AAAAAA-AAAAAA", int64Ptr(7), "Dr. Obi", "CSC301", now, time.Minute))
	_ = store.Create(ctx, newSession("BBBBBB-BBBBBB", int64Ptr(7), "Dr. Obi", "MTH101", now, time.Minute))

	deleted, err := store.DeleteByLecturer(ctx, owner, SessionFilter{CourseCode: "CSC301"})
	if err != nil {
		t.Fatalf("DeleteByLecturer() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if s, _ := store.FindByCode(ctx, "BBBBBB-BBBBBB"); s == nil {
		t.Error("session outside filter was deleted")
	}
}

func TestMemoryCheckInStoreLookupAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCheckInStore()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	first := &models.CheckInLog{
		SessionCode: "AAAAAA-AAAAAA",
		StudentID:   100,
		StudentName: "Chidi Okafor",
		CourseCode:  "CSC301",
		Lecturer:    "Dr. Obi",
		LecturerID:  int64Ptr(7),
		Method:      models.MethodQRScan,
		Timestamp:   now,
	}
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ID == "" {
		t.Error("Create() did not assign an id")
	}

	got, err := store.FindBySessionAndStudent(ctx, "AAAAAA-AAAAAA", 100)
	if err != nil {
		t.Fatalf("FindBySessionAndStudent() error = %v", err)
	}
	if got == nil || got.StudentName != "Chidi Okafor" {
		t.Fatalf("FindBySessionAndStudent() = %+v", got)
	}

	missing, err := store.FindBySessionAndStudent(ctx, "AAAAAA-AAAAAA", 101)
	if err != nil || missing != nil {
		t.Errorf("FindBySessionAndStudent(missing) = %+v, %v; want nil, nil", missing, err)
	}

	owner := LecturerRef{ID: int64Ptr(7), Name: "Dr. Obi"}
	deleted, err := store.DeleteByLecturer(ctx, owner, CheckInFilter{SessionCode: "AAAAAA-AAAAAA"})
	if err != nil {
		t.Fatalf("DeleteByLecturer() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestMemoryCheckInStoreListOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCheckInStore()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	owner := LecturerRef{ID: int64Ptr(7), Name: "Dr. Obi"}

	for i := 0; i < 3; i++ {
		_ = store.Create(ctx, &models.CheckInLog{
			SessionCode: "AAAAAA-AAAAAA",
			StudentID:   int64(100 + i),
			CourseCode:  "CSC301",
			Lecturer:    "Dr. Obi",
			LecturerID:  int64Ptr(7),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	_ = store.Create(ctx, &models.CheckInLog{
		SessionCode: "BBBBBB-BBBBBB",
		StudentID:   200,
		CourseCode:  "MTH101",
		Lecturer:    "Dr. Obi",
		LecturerID:  int64Ptr(7),
		Timestamp:   base.Add(time.Hour),
	})

	logs, err := store.ListByLecturer(ctx, owner, CheckInFilter{CourseCode: "CSC301"})
	if err != nil {
		t.Fatalf("ListByLecturer() error = %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("len(logs) = %d, want 3", len(logs))
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].Timestamp.After(logs[i-1].Timestamp) {
			t.Errorf("logs not sorted newest first: %v before %v", logs[i-1].Timestamp, logs[i].Timestamp)
		}
	}

	limited, _ := store.ListByLecturer(ctx, owner, CheckInFilter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("len(limited) = %d, want 2", len(limited))
	}
}

func TestDualStoreSwitchesPerCall(t *testing.T) {
	ctx := context.Background()
	primary := NewMemorySessionStore()
	fallback := NewMemorySessionStore()
	online := true
	dual := NewDualSessionStore(primary, fallback, func() bool { return online })
	now := time.Now()

	if err := dual.Create(ctx, newSession("AAAAAA-AAAAAA", nil, "Dr. Obi", "CSC301", now, time.Minute)); err != nil {
		t.Fatalf("Create(online) error = %v", err)
	}

	online = false
	if err := dual.Create(ctx, newSession("BBBBBB-BBBBBB", nil, "Dr. Obi", "CSC301", now, time.Minute)); err != nil {
		t.Fatalf("Create(offline) error = %v", err)
	}

	// Offline session is invisible to the primary store.
	if s, _ := primary.FindByCode(ctx, "BBBBBB-BBBBBB"); s != nil {
		t.Error("offline write landed in primary store")
	}
	if s, _ := fallback.FindByCode(ctx, "BBBBBB-BBBBBB"); s == nil {
		t.Error("offline write missing from fallback store")
	}

	// Connectivity restored: the fallback session is no longer served.
	online = true
	if s, _ := dual.FindByCode(ctx, "BBBBBB-BBBBBB"); s != nil {
		t.Error("fallback session visible after reconnection")
	}
	if s, _ := dual.FindByCode(ctx, "AAAAAA-AAAAAA"); s == nil {
		t.Error("primary session missing after reconnection")
	}
}
