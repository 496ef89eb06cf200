package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/pkg/dberrors"
)

// SessionRepository persists attendance sessions in Postgres.
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{
		db: db,
	}
}

const sessionColumns = `id, session_code, course_code, course_name, lecturer, lecturer_id, issued_at, expires_at`

func scanSession(row pgx.Row) (*models.AttendanceSession, error) {
	var s models.AttendanceSession
	err := row.Scan(
		&s.ID,
		&s.SessionCode,
		&s.CourseCode,
		&s.CourseName,
		&s.Lecturer,
		&s.LecturerID,
		&s.IssuedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ownerPredicate builds the owner-match clause. Sessions are owned by
// lecturer_id when the session has one, and by display name otherwise.
func ownerPredicate(owner LecturerRef, args []interface{}) (string, []interface{}) {
	if owner.ID != nil {
		args = append(args, *owner.ID, owner.Name)
		return fmt.Sprintf("(lecturer_id = $%d OR lecturer = $%d)", len(args)-1, len(args)), args
	}
	args = append(args, owner.Name)
	return fmt.Sprintf("lecturer = $%d", len(args)), args
}

// Create inserts a new session
func (r *SessionRepository) Create(ctx context.Context, session *models.AttendanceSession) error {
	query := `
		INSERT INTO attendance_sessions (session_code, course_code, course_name, lecturer, lecturer_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		session.SessionCode,
		session.CourseCode,
		session.CourseName,
		session.Lecturer,
		session.LecturerID,
		session.IssuedAt,
		session.ExpiresAt,
	).Scan(&session.ID)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "attendance_sessions_session_code_key") {
			return ErrDuplicateSession
		}
		return fmt.Errorf("error creating session: %w", err)
	}

	return nil
}

// FindByCode retrieves a session by its code
func (r *SessionRepository) FindByCode(ctx context.Context, code string) (*models.AttendanceSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE session_code = $1`
	session, err := scanSession(r.db.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("error retrieving session: %w", err)
	}
	return session, nil
}

// FindActiveByLecturer retrieves the lecturer's unexpired session, if any
func (r *SessionRepository) FindActiveByLecturer(ctx context.Context, owner LecturerRef, now time.Time) (*models.AttendanceSession, error) {
	predicate, args := ownerPredicate(owner, []interface{}{})
	args = append(args, now)
	query := fmt.Sprintf(`
		SELECT %s FROM attendance_sessions
		WHERE %s AND expires_at > $%d
		ORDER BY expires_at DESC
		LIMIT 1
	`, sessionColumns, predicate, len(args))

	session, err := scanSession(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("error retrieving active session: %w", err)
	}
	return session, nil
}

// DeleteExpiredByLecturer removes the lecturer's sessions past expiry
func (r *SessionRepository) DeleteExpiredByLecturer(ctx context.Context, owner LecturerRef, now time.Time) (int64, error) {
	predicate, args := ownerPredicate(owner, []interface{}{})
	args = append(args, now)
	query := fmt.Sprintf(`DELETE FROM attendance_sessions WHERE %s AND expires_at <= $%d`, predicate, len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAllExpired removes every session past expiry regardless of owner
func (r *SessionRepository) DeleteAllExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM attendance_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByLecturer removes the lecturer's sessions matching the filter
func (r *SessionRepository) DeleteByLecturer(ctx context.Context, owner LecturerRef, filter SessionFilter) (int64, error) {
	predicate, args := ownerPredicate(owner, []interface{}{})
	query := fmt.Sprintf(`DELETE FROM attendance_sessions WHERE %s`, predicate)
	if filter.SessionCode != "" {
		args = append(args, filter.SessionCode)
		query += fmt.Sprintf(" AND session_code = $%d", len(args))
	}
	if filter.CourseCode != "" {
		args = append(args, filter.CourseCode)
		query += fmt.Sprintf(" AND course_code = $%d", len(args))
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListRecentByLecturer retrieves the lecturer's most recent sessions
func (r *SessionRepository) ListRecentByLecturer(ctx context.Context, owner LecturerRef, limit int) ([]*models.AttendanceSession, error) {
	if limit <= 0 {
		limit = 10
	}
	predicate, args := ownerPredicate(owner, []interface{}{})
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT %s FROM attendance_sessions
		WHERE %s
		ORDER BY issued_at DESC
		LIMIT $%d
	`, sessionColumns, predicate, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.AttendanceSession
	for rows.Next() {
		var s models.AttendanceSession
		if err := rows.Scan(
			&s.ID,
			&s.SessionCode,
			&s.CourseCode,
			&s.CourseName,
			&s.Lecturer,
			&s.LecturerID,
			&s.IssuedAt,
			&s.ExpiresAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
