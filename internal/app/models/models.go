package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent  RoleType = "student"
	RoleLecturer RoleType = "lecturer"
	RoleAdmin    RoleType = "admin"
)

// CheckInMethod records how a student submitted a check-in
type CheckInMethod string

const (
	MethodQRScan     CheckInMethod = "QR_SCAN"
	MethodManualCode CheckInMethod = "MANUAL_CODE"
)
