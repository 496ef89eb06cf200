package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/app/models/dto"
	"github.com/ekene/classpulse/internal/app/repositories"
	"github.com/ekene/classpulse/internal/pkg/apperrors"
	"github.com/ekene/classpulse/internal/pkg/keyedmutex"
	"github.com/ekene/classpulse/internal/pkg/metrics"
	"github.com/ekene/classpulse/internal/pkg/qr"
	"github.com/ekene/classpulse/internal/pkg/sessioncode"
)

// AttendanceConfig tunes the session lifecycle.
type AttendanceConfig struct {
	DefaultDuration time.Duration
	MaxDuration     time.Duration
}

type attendanceService struct {
	sessions repositories.SessionStore
	checkins repositories.CheckInStore
	users    repositories.UserDirectory
	notifier Notifier
	locks    *keyedmutex.KeyedMutex
	cfg      AttendanceConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAttendanceService creates the attendance service. The stores are the
// only shared mutable state; all mutation goes through them.
func NewAttendanceService(
	sessions repositories.SessionStore,
	checkins repositories.CheckInStore,
	users repositories.UserDirectory,
	notifier Notifier,
	cfg AttendanceConfig,
	lgr zerolog.Logger,
) AttendanceService {
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 30 * time.Minute
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 4 * time.Hour
	}
	return &attendanceService{
		sessions: sessions,
		checkins: checkins,
		users:    users,
		notifier: notifier,
		locks:    keyedmutex.New(),
		cfg:      cfg,
		logger:   lgr,
		now:      time.Now,
	}
}

// ownerRef builds the owner predicate for the acting lecturer. The id is
// included only for real users; admin-issued sessions for a named lecturer
// are matched by name.
func (s *attendanceService) ownerRef(actor Identity, lecturerName string) repositories.LecturerRef {
	ref := repositories.LecturerRef{Name: lecturerName}
	if actor.ID > 0 && (lecturerName == actor.Name || !actor.IsAdmin()) {
		id := actor.ID
		ref.ID = &id
	}
	return ref
}

// GenerateSession sweeps the caller's expired sessions, rejects when an
// active one remains, then issues a fresh code with its QR payload.
func (s *attendanceService) GenerateSession(ctx context.Context, actor Identity, req dto.GenerateSessionRequest) (*dto.GenerateSessionResponse, error) {
	courseCode := strings.TrimSpace(req.CourseCode)
	courseName := strings.TrimSpace(req.CourseName)
	if courseCode == "" {
		return nil, apperrors.NewValidationError("courseCode", "courseCode is required")
	}
	if courseName == "" {
		return nil, apperrors.NewValidationError("courseName", "courseName is required")
	}

	lecturerName := strings.TrimSpace(req.Lecturer)
	if lecturerName == "" {
		lecturerName = actor.Name
	}
	if lecturerName == "" {
		return nil, apperrors.NewValidationError("lecturer", "lecturer is required")
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = s.cfg.DefaultDuration
	}
	if duration > s.cfg.MaxDuration {
		return nil, apperrors.NewValidationError("durationMinutes",
			fmt.Sprintf("durationMinutes may not exceed %d", int(s.cfg.MaxDuration.Minutes())))
	}

	owner := s.ownerRef(actor, lecturerName)

	// Serialize the sweep/check/create sequence per lecturer so two
	// concurrent generate calls cannot both pass the active-session check.
	lockKey := fmt.Sprintf("generate:%d:%s", actor.ID, lecturerName)
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	now := s.now()

	swept, err := s.sessions.DeleteExpiredByLecturer(ctx, owner, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep expired sessions: %w", err)
	}
	if swept > 0 {
		s.logger.Debug().Int64("count", swept).Str("lecturer", lecturerName).Msg("Swept expired sessions")
	}

	existing, err := s.sessions.FindActiveByLecturer(ctx, owner, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check for active session: %w", err)
	}
	if existing != nil {
		metrics.SessionConflicts.Inc()
		return nil, apperrors.NewCustomError(apperrors.ErrActiveSessionExists,
			"An active attendance session already exists for this lecturer").
			WithDetails(map[string]interface{}{
				"sessionCode":      existing.SessionCode,
				"remainingSeconds": existing.RemainingSeconds(now),
				"expiresAt":        existing.ExpiresAt,
			})
	}

	session := &models.AttendanceSession{
		CourseCode: courseCode,
		CourseName: courseName,
		Lecturer:   lecturerName,
		LecturerID: owner.ID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(duration),
	}

	// Collisions are negligible in a 32^12 code space; one defensive retry
	// keeps a lost coin flip from surfacing as a 500.
	for attempt := 0; attempt < 2; attempt++ {
		code, err := sessioncode.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session code: %w", err)
		}
		session.SessionCode = code
		err = s.sessions.Create(ctx, session)
		if err == nil {
			break
		}
		if errors.Is(err, repositories.ErrDuplicateSession) && attempt == 0 {
			continue
		}
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	dataURL, err := qr.Encode(qr.Payload{
		SessionCode: session.SessionCode,
		CourseCode:  session.CourseCode,
		CourseName:  session.CourseName,
		Lecturer:    session.Lecturer,
		IssuedAt:    session.IssuedAt,
		ExpiresAt:   session.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR image: %w", err)
	}

	metrics.SessionsIssued.Inc()
	s.logger.Info().
		Str("sessionCode", session.SessionCode).
		Str("courseCode", session.CourseCode).
		Str("lecturer", session.Lecturer).
		Time("expiresAt", session.ExpiresAt).
		Msg("Attendance session issued")

	return &dto.GenerateSessionResponse{
		Success: true,
		Message: "Attendance session generated",
		Session: dto.NewSessionInfo(session, now),
		QRCode:  &dto.QRCodeInfo{DataURL: dataURL},
	}, nil
}

// ActiveSession is the read-only poll mirror of the generate-time check. It
// deliberately performs no sweep; sweeping belongs to creation time only.
func (s *attendanceService) ActiveSession(ctx context.Context, actor Identity) (*dto.ActiveSessionResponse, error) {
	now := s.now()
	owner := s.ownerRef(actor, actor.Name)

	session, err := s.sessions.FindActiveByLecturer(ctx, owner, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query active session: %w", err)
	}

	resp := &dto.ActiveSessionResponse{Success: true, HasActiveSession: session != nil}
	if session != nil {
		resp.Session = dto.NewSessionInfo(session, now)
	}
	return resp, nil
}

// resolveSessionCode extracts the code from either the scanned QR payload
// text or the typed code field.
func resolveSessionCode(req dto.CheckInRequest) (string, error) {
	if req.QRCode != "" {
		payload, err := qr.DecodePayload(req.QRCode)
		if err != nil {
			return "", apperrors.NewValidationError("qrCode", "qrCode does not contain a valid session payload")
		}
		return payload.SessionCode, nil
	}
	code := strings.TrimSpace(req.SessionCode)
	if code == "" {
		return "", apperrors.NewValidationError("sessionCode", "sessionCode is required")
	}
	return code, nil
}

// resolveLecturer finds the owner id for a session: the stored id when
// present, otherwise a name lookup in the user directory. Attribution
// degrades to nil rather than blocking the student's check-in.
func (s *attendanceService) resolveLecturer(ctx context.Context, session *models.AttendanceSession) *int64 {
	if session.LecturerID != nil {
		return session.LecturerID
	}
	lecturer, err := s.users.FindLecturerByName(ctx, session.Lecturer)
	if err != nil {
		s.logger.Warn().Err(err).Str("lecturer", session.Lecturer).Msg("Lecturer name lookup failed")
		return nil
	}
	if lecturer == nil {
		return nil
	}
	return &lecturer.ID
}

// CheckIn validates an attempt against an active session, records it exactly
// once per (session, student), and fires the best-effort lecturer
// notification on a fresh write.
func (s *attendanceService) CheckIn(ctx context.Context, actor Identity, req dto.CheckInRequest, method models.CheckInMethod) (*dto.CheckInResponse, error) {
	code, err := resolveSessionCode(req)
	if err != nil {
		return nil, err
	}

	// The authenticated id wins; the body value is a fallback for admins
	// acting on a student's behalf.
	studentID := actor.ID
	if actor.IsAdmin() && req.StudentID > 0 {
		studentID = req.StudentID
	}
	if studentID <= 0 {
		studentID = req.StudentID
	}
	if studentID <= 0 {
		return nil, apperrors.NewValidationError("studentId", "studentId is required")
	}

	// Serialize per (session, student) so two concurrent attempts cannot
	// both pass the dedupe lookup. The unique index on the persistent
	// backend remains the cross-process backstop.
	lockKey := fmt.Sprintf("checkin:%s:%d", code, studentID)
	s.locks.Lock(lockKey)
	defer s.locks.Unlock(lockKey)

	now := s.now()

	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrSessionNotFound, "No attendance session found for this code")
	}

	if session.IsExpired(now) {
		metrics.ExpiredCheckIns.Inc()
		return nil, apperrors.NewCustomError(apperrors.ErrSessionExpired, "This attendance session has expired").
			WithDetails(map[string]interface{}{"expiresAt": session.ExpiresAt})
	}

	lecturerID := s.resolveLecturer(ctx, session)

	snapshot := &dto.SessionSnapshot{
		CourseCode: session.CourseCode,
		CourseName: session.CourseName,
		Lecturer:   session.Lecturer,
	}

	existing, err := s.checkins.FindBySessionAndStudent(ctx, code, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing check-in: %w", err)
	}
	if existing != nil {
		metrics.DuplicateCheckIns.Inc()
		return &dto.CheckInResponse{
			Success:          true,
			Message:          "Already checked in to this session",
			AlreadyCheckedIn: true,
			Log:              existing,
			Session:          snapshot,
		}, nil
	}

	entry := &models.CheckInLog{
		SessionCode: code,
		StudentID:   studentID,
		StudentName: actor.Name,
		CourseCode:  session.CourseCode,
		CourseName:  session.CourseName,
		Lecturer:    session.Lecturer,
		LecturerID:  lecturerID,
		Method:      method,
		Timestamp:   now,
	}

	// Profile fields are a courtesy snapshot; a missing profile never
	// blocks the check-in.
	if student, err := s.users.FindByID(ctx, studentID); err == nil && student != nil {
		if entry.StudentName == "" || studentID != actor.ID {
			entry.StudentName = student.Name
		}
		entry.Centre = student.Centre
		entry.Location = student.Location
	}

	if err := s.checkins.Create(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrDuplicateCheckIn) {
			// Lost the race across processes; serve the first writer's entry.
			metrics.DuplicateCheckIns.Inc()
			winner, findErr := s.checkins.FindBySessionAndStudent(ctx, code, studentID)
			if findErr != nil || winner == nil {
				return nil, fmt.Errorf("failed to load existing check-in: %w", findErr)
			}
			return &dto.CheckInResponse{
				Success:          true,
				Message:          "Already checked in to this session",
				AlreadyCheckedIn: true,
				Log:              winner,
				Session:          snapshot,
			}, nil
		}
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}

	metrics.CheckIns.WithLabelValues(string(method)).Inc()

	if lecturerID != nil {
		if err := s.notifier.NotifyCheckIn(ctx, *lecturerID, entry); err != nil {
			metrics.NotificationFailures.Inc()
			s.logger.Warn().Err(err).
				Int64("lecturerId", *lecturerID).
				Str("sessionCode", code).
				Msg("Check-in notification dropped")
		} else {
			metrics.NotificationsSent.Inc()
		}
	}

	s.logger.Info().
		Str("sessionCode", code).
		Int64("studentId", studentID).
		Str("method", string(method)).
		Msg("Check-in recorded")

	return &dto.CheckInResponse{
		Success: true,
		Message: "Check-in recorded",
		Log:     entry,
		Session: snapshot,
	}, nil
}

// ValidateSession is the public code-validation lookup.
func (s *attendanceService) ValidateSession(ctx context.Context, code string) (*dto.ValidateSessionResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewValidationError("code", "session code is required")
	}

	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrSessionNotFound, "No attendance session found for this code")
	}

	now := s.now()
	return &dto.ValidateSessionResponse{
		Success: true,
		Valid:   !session.IsExpired(now),
		Session: &dto.SessionStatusInfo{
			SessionCode:      session.SessionCode,
			CourseCode:       session.CourseCode,
			CourseName:       session.CourseName,
			Lecturer:         session.Lecturer,
			IssuedAt:         session.IssuedAt,
			ExpiresAt:        session.ExpiresAt,
			IsExpired:        session.IsExpired(now),
			RemainingSeconds: session.RemainingSeconds(now),
		},
	}, nil
}

// LecturerDashboard aggregates the session store and check-in log for one
// lecturer. Lecturers may only query themselves; admins may query anyone.
func (s *attendanceService) LecturerDashboard(ctx context.Context, actor Identity, lecturerID int64, filter DashboardFilter) (*dto.DashboardResponse, error) {
	if !actor.IsAdmin() && actor.ID != lecturerID {
		return nil, apperrors.NewForbiddenError("You may only view your own attendance dashboard")
	}

	lecturerName := actor.Name
	if lecturer, err := s.users.FindByID(ctx, lecturerID); err == nil && lecturer != nil {
		lecturerName = lecturer.Name
	} else if actor.ID != lecturerID {
		return nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, "Lecturer not found")
	}

	id := lecturerID
	owner := repositories.LecturerRef{ID: &id, Name: lecturerName}
	now := s.now()

	current, err := s.sessions.FindActiveByLecturer(ctx, owner, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query active session: %w", err)
	}

	records, err := s.checkins.ListByLecturer(ctx, owner, repositories.CheckInFilter{
		SessionCode: filter.SessionCode,
		CourseCode:  filter.CourseCode,
		Limit:       filter.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}

	recent, err := s.sessions.ListRecentByLecturer(ctx, owner, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent sessions: %w", err)
	}

	students := make(map[int64]struct{}, len(records))
	sessionsSeen := make(map[string]struct{})
	for _, r := range records {
		students[r.StudentID] = struct{}{}
		sessionsSeen[r.SessionCode] = struct{}{}
	}

	recentInfos := make([]*dto.SessionInfo, 0, len(recent))
	for _, sess := range recent {
		recentInfos = append(recentInfos, dto.NewSessionInfo(sess, now))
	}

	resp := &dto.DashboardResponse{
		Success:        true,
		Lecturer:       dto.LecturerInfo{ID: lecturerID, Name: lecturerName},
		Records:        records,
		RecentSessions: recentInfos,
		Stats: dto.DashboardStats{
			TotalCheckIns:  len(records),
			UniqueStudents: len(students),
			SessionsHeld:   len(sessionsSeen),
		},
	}
	if current != nil {
		resp.CurrentSession = dto.NewSessionInfo(current, now)
	}
	if resp.Records == nil {
		resp.Records = []*models.CheckInLog{}
	}
	return resp, nil
}

// Reset deletes the caller's sessions and logs matching the filter. It
// refuses to act without an explicit confirmation flag.
func (s *attendanceService) Reset(ctx context.Context, actor Identity, req dto.ResetRequest) (*dto.ResetResponse, error) {
	if !req.ConfirmReset {
		return nil, apperrors.NewValidationError("confirmReset", "confirmReset must be true to delete attendance data")
	}

	owner := s.ownerRef(actor, actor.Name)

	sessionsDeleted, err := s.sessions.DeleteByLecturer(ctx, owner, repositories.SessionFilter{
		SessionCode: req.SessionCode,
		CourseCode:  req.CourseCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete sessions: %w", err)
	}

	logsDeleted, err := s.checkins.DeleteByLecturer(ctx, owner, repositories.CheckInFilter{
		SessionCode: req.SessionCode,
		CourseCode:  req.CourseCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete check-ins: %w", err)
	}

	s.logger.Info().
		Int64("sessions", sessionsDeleted).
		Int64("logs", logsDeleted).
		Str("lecturer", actor.Name).
		Msg("Attendance data reset")

	return &dto.ResetResponse{
		Success: true,
		Message: "Attendance data deleted",
		Deleted: dto.DeletedCounts{Sessions: sessionsDeleted, Logs: logsDeleted},
	}, nil
}

// RunSessionSweeper periodically removes expired sessions until the context
// is cancelled. It shares the delete predicate with the creation-time sweep
// and is safe alongside check-ins, which reject expired sessions on their own.
func RunSessionSweeper(ctx context.Context, sessions repositories.SessionStore, interval time.Duration, lgr zerolog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := sessions.DeleteAllExpired(ctx, time.Now())
			if err != nil {
				lgr.Warn().Err(err).Msg("Background expiry sweep failed")
				continue
			}
			if deleted > 0 {
				lgr.Debug().Int64("count", deleted).Msg("Background sweep removed expired sessions")
			}
		}
	}
}
