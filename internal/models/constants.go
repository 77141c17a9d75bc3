package models

import "time"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole accepts only the closed set of roles.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleUser:
		return Role(raw), true
	}
	return "", false
}

type BookingStatus string

const (
	StatusPending BookingStatus = "PENDING"
	StatusSuccess BookingStatus = "SUCCESS"
	StatusCancel  BookingStatus = "CANCEL"
)

// ParseBookingStatus accepts only the closed set of statuses.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	switch BookingStatus(raw) {
	case StatusPending, StatusSuccess, StatusCancel:
		return BookingStatus(raw), true
	}
	return "", false
}

const (
	DateLayout      = "2006-01-02"
	DisplayDate     = "02/01/2006"
	TimestampLayout = time.RFC3339
)

const (
	// DefaultMessengerName is recorded on approval when no messenger is given.
	DefaultMessengerName = "ขวัญเมือง"

	// MinPasswordLength applies to every password set through the API.
	MinPasswordLength = 8

	// DefaultTokenTTL is the bearer token lifetime.
	DefaultTokenTTL = 24 * time.Hour

	// DefaultStatsDays and MaxStatsDays bound the daily stats window.
	DefaultStatsDays = 7
	MaxStatsDays     = 90
)

// Initial installation content.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
	DefaultAdminFullName = "System Administrator"
)

var DefaultCompanies = []string{"บริษัทตัวอย่าง A", "บริษัทตัวอย่าง B"}
