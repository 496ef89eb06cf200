package models

import (
	"time"
)

// AttendanceSession is a time-boxed attendance window issued by a lecturer.
// Course labels are denormalized at issuance and never live-joined. Lecturer
// is stored both as a display name and as an owner id; legacy sessions may
// carry only the name, so consumers fall back to name-based lookup when
// LecturerID is nil.
type AttendanceSession struct {
	ID          int64     `json:"-" db:"id"`
	SessionCode string    `json:"sessionCode" db:"session_code"`
	CourseCode  string    `json:"courseCode" db:"course_code"`
	CourseName  string    `json:"courseName" db:"course_name"`
	Lecturer    string    `json:"lecturer" db:"lecturer"`
	LecturerID  *int64    `json:"lecturerId,omitempty" db:"lecturer_id"`
	IssuedAt    time.Time `json:"issuedAt" db:"issued_at"`
	ExpiresAt   time.Time `json:"expiresAt" db:"expires_at"`
}

// IsExpired reports whether the session is past its window at the given
// instant. The boundary counts as expired: a check-in arriving exactly at
// ExpiresAt is rejected.
func (s *AttendanceSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// RemainingSeconds returns the whole seconds left before expiry, never negative.
func (s *AttendanceSession) RemainingSeconds(now time.Time) int {
	if s.IsExpired(now) {
		return 0
	}
	return int(s.ExpiresAt.Sub(now).Seconds())
}

// CheckInLog is one immutable check-in event. The (SessionCode, StudentID)
// pair is the natural key; a second attempt with the same pair returns this
// entry instead of creating another. All session and student fields are
// snapshots taken at check-in time.
type CheckInLog struct {
	ID          string        `json:"id" db:"id"`
	SessionCode string        `json:"sessionCode" db:"session_code"`
	StudentID   int64         `json:"studentId" db:"student_id"`
	StudentName string        `json:"studentName" db:"student_name"`
	CourseCode  string        `json:"courseCode" db:"course_code"`
	CourseName  string        `json:"courseName" db:"course_name"`
	Lecturer    string        `json:"lecturer" db:"lecturer"`
	LecturerID  *int64        `json:"lecturerId,omitempty" db:"lecturer_id"`
	Centre      string        `json:"centre,omitempty" db:"centre"`
	Location    string        `json:"location,omitempty" db:"location"`
	Method      CheckInMethod `json:"checkInMethod" db:"check_in_method"`
	Timestamp   time.Time     `json:"timestamp" db:"checked_in_at"`
}
