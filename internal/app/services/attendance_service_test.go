package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/app/models/dto"
	"github.com/ekene/classpulse/internal/app/repositories"
	"github.com/ekene/classpulse/internal/pkg/apperrors"
	"github.com/ekene/classpulse/internal/pkg/qr"
)

type mockUsers struct {
	mu    sync.Mutex
	users []*models.User
}

func (m *mockUsers) FindByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockUsers) FindLecturerByName(ctx context.Context, name string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Name == name && u.Role == models.RoleLecturer {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockUsers) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = int64(len(m.users) + 1)
	clone := *user
	m.users = append(m.users, &clone)
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (n *recordingNotifier) NotifyCheckIn(ctx context.Context, lecturerID int64, log *models.CheckInLog) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, lecturerID)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type fixture struct {
	svc      *attendanceService
	sessions *repositories.MemorySessionStore
	checkins *repositories.MemoryCheckInStore
	users    *mockUsers
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: repositories.NewMemorySessionStore(),
		checkins: repositories.NewMemoryCheckInStore(),
		users:    &mockUsers{},
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	svc := NewAttendanceService(f.sessions, f.checkins, f.users, f.notifier,
		AttendanceConfig{DefaultDuration: 30 * time.Minute, MaxDuration: 4 * time.Hour},
		zerolog.Nop())
	f.svc = svc.(*attendanceService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

var lecturerObi = Identity{ID: 7, Name: "Dr. Obi", Role: models.RoleLecturer}

func studentIdentity(id int64, name string) Identity {
	return Identity{ID: id, Name: name, Role: models.RoleStudent}
}

func generateRequest() dto.GenerateSessionRequest {
	return dto.GenerateSessionRequest{CourseCode: "CSC301", CourseName: "Operating Systems"}
}

func TestGenerateSessionIssuesCodeAndQR(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}
	if !resp.Success || resp.Session == nil || resp.QRCode == nil {
		t.Fatalf("GenerateSession() = %+v, want session and qrCode", resp)
	}
	if resp.Session.Lecturer != "Dr. Obi" {
		t.Errorf("lecturer = %q, want authenticated name", resp.Session.Lecturer)
	}
	if got, want := resp.Session.ExpiresAt, f.now.Add(30*time.Minute); !got.Equal(want) {
		t.Errorf("expiresAt = %v, want %v (default duration)", got, want)
	}
	if !strings.HasPrefix(resp.QRCode.DataURL, "data:image/png;base64,") {
		t.Errorf("qr data url prefix missing: %.40s", resp.QRCode.DataURL)
	}

	// The QR payload embeds the same session the store holds.
	payload, err := qr.DecodePayload(mustPayloadText(t, resp.Session.SessionCode, f))
	if err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if payload.SessionCode != resp.Session.SessionCode {
		t.Errorf("payload code = %q, want %q", payload.SessionCode, resp.Session.SessionCode)
	}
}

// mustPayloadText reconstructs the QR payload text for a stored session the
// way a scanner app would hand it back.
func mustPayloadText(t *testing.T, code string, f *fixture) string {
	t.Helper()
	session, err := f.sessions.FindByCode(context.Background(), code)
	if err != nil || session == nil {
		t.Fatalf("FindByCode(%s) = %v, %v", code, session, err)
	}
	body, err := json.Marshal(qr.Payload{
		SessionCode: session.SessionCode,
		CourseCode:  session.CourseCode,
		CourseName:  session.CourseName,
		Lecturer:    session.Lecturer,
		IssuedAt:    session.IssuedAt,
		ExpiresAt:   session.ExpiresAt,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return string(body)
}

func TestGenerateSessionConflictWhileActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	if err != nil {
		t.Fatalf("first GenerateSession() error = %v", err)
	}

	f.advance(29 * time.Minute)
	_, err = f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	if !errors.Is(err, apperrors.ErrActiveSessionExists) {
		t.Fatalf("second GenerateSession() error = %v, want ErrActiveSessionExists", err)
	}

	details := apperrors.Details(err)
	if details == nil {
		t.Fatal("conflict error carries no details")
	}
	if details["sessionCode"] != first.Session.SessionCode {
		t.Errorf("details sessionCode = %v, want %v", details["sessionCode"], first.Session.SessionCode)
	}
	if remaining, ok := details["remainingSeconds"].(int); !ok || remaining != 60 {
		t.Errorf("details remainingSeconds = %v, want 60", details["remainingSeconds"])
	}
}

func TestGenerateSessionSweepsExpiredThenSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	if err != nil {
		t.Fatalf("first GenerateSession() error = %v", err)
	}

	f.advance(31 * time.Minute)
	second, err := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	if err != nil {
		t.Fatalf("GenerateSession() after expiry error = %v", err)
	}
	if second.Session.SessionCode == first.Session.SessionCode {
		t.Error("new session reused the old code")
	}

	// The expired session was deleted, not merely ignored.
	if old, _ := f.sessions.FindByCode(ctx, first.Session.SessionCode); old != nil {
		t.Error("expired session still present after sweep")
	}
}

func TestGenerateSessionExactExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.GenerateSession(ctx, lecturerObi, generateRequest()); err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}

	// At the expiry instant itself the old session no longer blocks.
	f.advance(30 * time.Minute)
	if _, err := f.svc.GenerateSession(ctx, lecturerObi, generateRequest()); err != nil {
		t.Fatalf("GenerateSession() at expiry instant error = %v", err)
	}
}

func TestGenerateSessionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.GenerateSessionRequest
	}{
		{"missing course code", dto.GenerateSessionRequest{CourseName: "Operating Systems"}},
		{"missing course name", dto.GenerateSessionRequest{CourseCode: "CSC301"}},
		{"duration above cap", dto.GenerateSessionRequest{CourseCode: "CSC301", CourseName: "OS", DurationMinutes: 999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.GenerateSession(ctx, lecturerObi, tt.req); !errors.Is(err, apperrors.ErrValidationFailed) {
				t.Errorf("GenerateSession() error = %v, want validation failure", err)
			}
		})
	}
}

func TestCheckInHappyPathNotifiesLecturer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}

	f.advance(5 * time.Minute)
	resp, err := f.svc.CheckIn(ctx, studentIdentity(100, "Chidi Okafor"),
		dto.CheckInRequest{SessionCode: issued.Session.SessionCode}, models.MethodManualCode)
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if !resp.Success || resp.AlreadyCheckedIn {
		t.Fatalf("CheckIn() = %+v, want fresh success", resp)
	}
	if resp.Log.StudentID != 100 || resp.Log.Method != models.MethodManualCode {
		t.Errorf("log = %+v", resp.Log)
	}
	if !resp.Log.Timestamp.Equal(f.now) {
		t.Errorf("timestamp = %v, want %v", resp.Log.Timestamp, f.now)
	}
	if resp.Session.CourseCode != "CSC301" {
		t.Errorf("session snapshot = %+v", resp.Session)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifier calls = %d, want 1", f.notifier.count())
	}
}

func TestCheckInIdempotentPerStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, _ := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	req := dto.CheckInRequest{SessionCode: issued.Session.SessionCode}
	student := studentIdentity(100, "Chidi Okafor")

	first, err := f.svc.CheckIn(ctx, student, req, models.MethodQRScan)
	if err != nil {
		t.Fatalf("first CheckIn() error = %v", err)
	}

	f.advance(3 * time.Minute)
	second, err := f.svc.CheckIn(ctx, student, req, models.MethodQRScan)
	if err != nil {
		t.Fatalf("second CheckIn() error = %v", err)
	}
	if !second.Success || !second.AlreadyCheckedIn {
		t.Fatalf("second CheckIn() = %+v, want alreadyCheckedIn success", second)
	}
	// The original entry is returned untouched, original timestamp included.
	if !second.Log.Timestamp.Equal(first.Log.Timestamp) {
		t.Errorf("repeat timestamp = %v, want original %v", second.Log.Timestamp, first.Log.Timestamp)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifier calls = %d, want 1 (no repeat notification)", f.notifier.count())
	}

	// A different student records independently.
	third, err := f.svc.CheckIn(ctx, studentIdentity(101, "Amina Bello"), req, models.MethodQRScan)
	if err != nil {
		t.Fatalf("third CheckIn() error = %v", err)
	}
	if third.AlreadyCheckedIn {
		t.Error("distinct student flagged as duplicate")
	}
}

func TestCheckInRejectsExpiredAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, _ := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	student := studentIdentity(100, "Chidi Okafor")

	_, err := f.svc.CheckIn(ctx, student, dto.CheckInRequest{SessionCode: "ZZZZZZ-ZZZZZZ"}, models.MethodManualCode)
	if !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Errorf("unknown code error = %v, want ErrSessionNotFound", err)
	}

	// Exactly at the boundary the session is already expired.
	f.advance(30 * time.Minute)
	_, err = f.svc.CheckIn(ctx, student, dto.CheckInRequest{SessionCode: issued.Session.SessionCode}, models.MethodManualCode)
	if !errors.Is(err, apperrors.ErrSessionExpired) {
		t.Fatalf("boundary check-in error = %v, want ErrSessionExpired", err)
	}
	if details := apperrors.Details(err); details == nil || details["expiresAt"] == nil {
		t.Error("expired error missing expiresAt detail")
	}
	if f.notifier.count() != 0 {
		t.Error("rejected check-in triggered a notification")
	}
}

func TestCheckInViaQRPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, _ := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	text := mustPayloadText(t, issued.Session.SessionCode, f)

	resp, err := f.svc.CheckIn(ctx, studentIdentity(100, "Chidi Okafor"),
		dto.CheckInRequest{QRCode: text}, models.MethodQRScan)
	if err != nil {
		t.Fatalf("CheckIn(qr) error = %v", err)
	}
	if resp.Log.SessionCode != issued.Session.SessionCode {
		t.Errorf("log sessionCode = %q, want %q", resp.Log.SessionCode, issued.Session.SessionCode)
	}

	if _, err := f.svc.CheckIn(ctx, studentIdentity(101, "Amina Bello"),
		dto.CheckInRequest{QRCode: "not json"}, models.MethodQRScan); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("CheckIn(garbage qr) error = %v, want validation failure", err)
	}
}

func TestCheckInLecturerNameFallbackAttribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.users.Create(ctx, &models.User{Name: "Dr. Obi", Email: "obi@example.edu", Role: models.RoleLecturer, IsActive: true})

	// Session issued by an admin for a named lecturer carries no owner id.
	admin := Identity{ID: 99, Name: "Registry Admin", Role: models.RoleAdmin}
	issued, err := f.svc.GenerateSession(ctx, admin, dto.GenerateSessionRequest{
		CourseCode: "CSC301", CourseName: "Operating Systems", Lecturer: "Dr. Obi",
	})
	if err != nil {
		t.Fatalf("GenerateSession() error = %v", err)
	}
	if issued.Session.LecturerID != nil {
		t.Fatalf("admin-issued session carries owner id %d", *issued.Session.LecturerID)
	}

	resp, err := f.svc.CheckIn(ctx, studentIdentity(100, "Chidi Okafor"),
		dto.CheckInRequest{SessionCode: issued.Session.SessionCode}, models.MethodManualCode)
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if resp.Log.LecturerID == nil || *resp.Log.LecturerID != 1 {
		t.Errorf("log lecturerId = %v, want resolved id 1", resp.Log.LecturerID)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifier calls = %d, want 1", f.notifier.count())
	}
}

func TestCheckInUnresolvedLecturerDegradesGracefully(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := Identity{ID: 99, Name: "Registry Admin", Role: models.RoleAdmin}
	issued, _ := f.svc.GenerateSession(ctx, admin, dto.GenerateSessionRequest{
		CourseCode: "CSC301", CourseName: "Operating Systems", Lecturer: "Dr. Nobody",
	})

	resp, err := f.svc.CheckIn(ctx, studentIdentity(100, "Chidi Okafor"),
		dto.CheckInRequest{SessionCode: issued.Session.SessionCode}, models.MethodManualCode)
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if resp.Log.LecturerID != nil {
		t.Errorf("log lecturerId = %v, want nil for unknown lecturer", resp.Log.LecturerID)
	}
	if f.notifier.count() != 0 {
		t.Error("notification fired without a resolved lecturer")
	}
}

func TestCheckInSucceedsWhenNotifierFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifier.err = errors.New("queue unavailable")

	issued, _ := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	resp, err := f.svc.CheckIn(ctx, studentIdentity(100, "Chidi Okafor"),
		dto.CheckInRequest{SessionCode: issued.Session.SessionCode}, models.MethodManualCode)
	if err != nil {
		t.Fatalf("CheckIn() error = %v, notification failures must not surface", err)
	}
	if !resp.Success {
		t.Errorf("CheckIn() = %+v, want success despite notifier error", resp)
	}
}

func TestValidateSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, _ := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())

	resp, err := f.svc.ValidateSession(ctx, issued.Session.SessionCode)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if !resp.Valid || resp.Session.IsExpired {
		t.Errorf("ValidateSession() = %+v, want valid", resp)
	}

	f.advance(30 * time.Minute)
	resp, err = f.svc.ValidateSession(ctx, issued.Session.SessionCode)
	if err != nil {
		t.Fatalf("ValidateSession(expired) error = %v", err)
	}
	if resp.Valid || !resp.Session.IsExpired || resp.Session.RemainingSeconds != 0 {
		t.Errorf("ValidateSession(expired) = %+v, want invalid with zero remaining", resp.Session)
	}

	if _, err := f.svc.ValidateSession(ctx, "ZZZZZZ-ZZZZZZ"); !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Errorf("ValidateSession(unknown) error = %v, want ErrSessionNotFound", err)
	}
}

func TestLecturerDashboardAccessAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.users.Create(ctx, &models.User{Name: "Dr. Obi", Email: "obi@example.edu", Role: models.RoleLecturer, IsActive: true})
	obi := Identity{ID: 1, Name: "Dr. Obi", Role: models.RoleLecturer}

	issued, _ := f.svc.GenerateSession(ctx, obi, generateRequest())
	for i, name := range []string{"Chidi Okafor", "Amina Bello"} {
		if _, err := f.svc.CheckIn(ctx, studentIdentity(int64(100+i), name),
			dto.CheckInRequest{SessionCode: issued.Session.SessionCode}, models.MethodQRScan); err != nil {
			t.Fatalf("CheckIn(%s) error = %v", name, err)
		}
	}

	resp, err := f.svc.LecturerDashboard(ctx, obi, 1, DashboardFilter{})
	if err != nil {
		t.Fatalf("LecturerDashboard() error = %v", err)
	}
	if resp.Stats.TotalCheckIns != 2 || resp.Stats.UniqueStudents != 2 || resp.Stats.SessionsHeld != 1 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if resp.CurrentSession == nil {
		t.Error("active session missing from dashboard")
	}
	if len(resp.RecentSessions) != 1 {
		t.Errorf("recentSessions = %d, want 1", len(resp.RecentSessions))
	}

	// Another lecturer may not read this dashboard; an admin may.
	other := Identity{ID: 2, Name: "Dr. Musa", Role: models.RoleLecturer}
	if _, err := f.svc.LecturerDashboard(ctx, other, 1, DashboardFilter{}); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("cross-lecturer dashboard error = %v, want ErrPermissionDenied", err)
	}
	admin := Identity{ID: 99, Name: "Registry Admin", Role: models.RoleAdmin}
	if _, err := f.svc.LecturerDashboard(ctx, admin, 1, DashboardFilter{}); err != nil {
		t.Errorf("admin dashboard error = %v", err)
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, _ := f.svc.GenerateSession(ctx, lecturerObi, generateRequest())
	_, _ = f.svc.CheckIn(ctx, studentIdentity(100, "Chidi Okafor"),
		dto.CheckInRequest{SessionCode: issued.Session.SessionCode}, models.MethodManualCode)

	if _, err := f.svc.Reset(ctx, lecturerObi, dto.ResetRequest{}); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("Reset without confirmation error = %v, want validation failure", err)
	}
	if s, _ := f.sessions.FindByCode(ctx, issued.Session.SessionCode); s == nil {
		t.Fatal("unconfirmed reset deleted data")
	}

	resp, err := f.svc.Reset(ctx, lecturerObi, dto.ResetRequest{ConfirmReset: true})
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if resp.Deleted.Sessions != 1 || resp.Deleted.Logs != 1 {
		t.Errorf("deleted = %+v, want 1 session and 1 log", resp.Deleted)
	}
	if s, _ := f.sessions.FindByCode(ctx, issued.Session.SessionCode); s != nil {
		t.Error("session survived confirmed reset")
	}
}

func TestStoreNotifierAppendsRow(t *testing.T) {
	ctx := context.Background()

	store := repositories.NewMemoryNotificationStore()
	direct := NewStoreNotifier(store)

	entry := &models.CheckInLog{
		SessionCode: "AAAAAA-AAAAAA",
		StudentName: "Chidi Okafor",
		CourseCode:  "CSC301",
		CourseName:  "Operating Systems",
		Timestamp:   time.Now(),
	}
	if err := direct.NotifyCheckIn(ctx, 7, entry); err != nil {
		t.Fatalf("NotifyCheckIn() error = %v", err)
	}

	rows, err := store.ListByUser(ctx, 7, 0)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Type != models.NotificationCheckIn {
		t.Errorf("type = %q, want %q", rows[0].Type, models.NotificationCheckIn)
	}
	if !strings.Contains(rows[0].Message, "Chidi Okafor") {
		t.Errorf("message = %q, want student name included", rows[0].Message)
	}
}
