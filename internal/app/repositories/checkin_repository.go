package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekene/classpulse/internal/app/models"
	"github.com/ekene/classpulse/internal/pkg/dberrors"
)

// CheckInRepository persists check-in log entries in Postgres. The
// (session_code, student_id) unique index is the storage-layer backstop for
// the check-in processor's dedupe step.
type CheckInRepository struct {
	db *pgxpool.Pool
}

// NewCheckInRepository creates a new check-in repository
func NewCheckInRepository(db *pgxpool.Pool) *CheckInRepository {
	return &CheckInRepository{
		db: db,
	}
}

const checkInColumns = `id, session_code, student_id, student_name, course_code, course_name, lecturer, lecturer_id, centre, location, check_in_method, checked_in_at`

// Create inserts a new check-in entry. A lost dedupe race surfaces as
// ErrDuplicateCheckIn rather than a storage error.
func (r *CheckInRepository) Create(ctx context.Context, log *models.CheckInLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}

	query := `
		INSERT INTO checkin_logs (id, session_code, student_id, student_name, course_code, course_name, lecturer, lecturer_id, centre, location, check_in_method, checked_in_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		log.ID,
		log.SessionCode,
		log.StudentID,
		log.StudentName,
		log.CourseCode,
		log.CourseName,
		log.Lecturer,
		log.LecturerID,
		log.Centre,
		log.Location,
		log.Method,
		log.Timestamp,
	)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "checkin_logs_session_code_student_id_key") {
			return ErrDuplicateCheckIn
		}
		return fmt.Errorf("error creating check-in: %w", err)
	}

	return nil
}

// FindBySessionAndStudent retrieves the entry for a (session, student) pair
func (r *CheckInRepository) FindBySessionAndStudent(ctx context.Context, sessionCode string, studentID int64) (*models.CheckInLog, error) {
	query := `SELECT ` + checkInColumns + ` FROM checkin_logs WHERE session_code = $1 AND student_id = $2`

	var log models.CheckInLog
	err := r.db.QueryRow(ctx, query, sessionCode, studentID).Scan(
		&log.ID,
		&log.SessionCode,
		&log.StudentID,
		&log.StudentName,
		&log.CourseCode,
		&log.CourseName,
		&log.Lecturer,
		&log.LecturerID,
		&log.Centre,
		&log.Location,
		&log.Method,
		&log.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving check-in: %w", err)
	}

	return &log, nil
}

// ListByLecturer retrieves the lecturer's check-in records, newest first
func (r *CheckInRepository) ListByLecturer(ctx context.Context, owner LecturerRef, filter CheckInFilter) ([]*models.CheckInLog, error) {
	predicate, args := ownerPredicate(owner, []interface{}{})
	query := fmt.Sprintf(`SELECT %s FROM checkin_logs WHERE %s`, checkInColumns, predicate)
	if filter.SessionCode != "" {
		args = append(args, filter.SessionCode)
		query += fmt.Sprintf(" AND session_code = $%d", len(args))
	}
	if filter.CourseCode != "" {
		args = append(args, filter.CourseCode)
		query += fmt.Sprintf(" AND course_code = $%d", len(args))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY checked_in_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing check-ins: %w", err)
	}
	defer rows.Close()

	var logs []*models.CheckInLog
	for rows.Next() {
		var log models.CheckInLog
		if err := rows.Scan(
			&log.ID,
			&log.SessionCode,
			&log.StudentID,
			&log.StudentName,
			&log.CourseCode,
			&log.CourseName,
			&log.Lecturer,
			&log.LecturerID,
			&log.Centre,
			&log.Location,
			&log.Method,
			&log.Timestamp,
		); err != nil {
			return nil, err
		}
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

// DeleteByLecturer removes the lecturer's check-in records matching the filter
func (r *CheckInRepository) DeleteByLecturer(ctx context.Context, owner LecturerRef, filter CheckInFilter) (int64, error) {
	predicate, args := ownerPredicate(owner, []interface{}{})
	query := fmt.Sprintf(`DELETE FROM checkin_logs WHERE %s`, predicate)
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
		return 0, fmt.Errorf("error deleting check-ins: %w", err)
	}
	return tag.RowsAffected(), nil
}
