package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Booking struct {
	ID            int64
	CompanyID     int64
	BookingDate   time.Time
	BookingTime   ClockTime
	RequesterName string
	JobType       string
	Detail        string
	Department    string
	Building      string
	Floor         string
	ContactName   string
	ContactPhone  string
	Status        BookingStatus
	CreatedBy     int64
	ApprovedBy    *int64
	ApprovedAt    *time.Time
	MessengerName string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BookingWithCompany is a booking joined with the company it references.
type BookingWithCompany struct {
	Booking
	Company Company
}

// ClockTime is a time of day with second precision.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// Slot sentinels stand for a period of the day rather than a clock time.
var (
	MorningSlot     = ClockTime{Hour: 11, Minute: 59, Second: 59}
	AfternoonSlot   = ClockTime{Hour: 16, Minute: 29, Second: 59}
	UnspecifiedSlot = ClockTime{}
)

type TimePeriod int

const (
	PeriodNone TimePeriod = iota
	PeriodMorning
	PeriodAfternoon
	PeriodUnspecified
)

// ParseClockTime accepts HH:MM:SS or HH:MM.
func ParseClockTime(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return ClockTime{}, fmt.Errorf("invalid time %q", raw)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		if len(p) != 2 {
			return ClockTime{}, fmt.Errorf("invalid time %q", raw)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return ClockTime{}, fmt.Errorf("invalid time %q", raw)
		}
		values[i] = n
	}

	return ClockTime{Hour: values[0], Minute: values[1], Second: values[2]}, nil
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Short renders HH:MM.
func (t ClockTime) Short() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t ClockTime) Period() TimePeriod {
	switch t {
	case MorningSlot:
		return PeriodMorning
	case AfternoonSlot:
		return PeriodAfternoon
	case UnspecifiedSlot:
		return PeriodUnspecified
	}
	return PeriodNone
}

// Label renders the period label for slot sentinels and HH:MM otherwise.
func (t ClockTime) Label(loc Locale) string {
	if p := t.Period(); p != PeriodNone {
		return periodLabels[loc.normalize()][p]
	}
	return t.Short()
}

// ParseBookingDate parses YYYY-MM-DD into a UTC midnight.
func ParseBookingDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return d, nil
}

// StatusUpdate describes a status write. When SetApproval is true the
// approval fields are written together with the status.
type StatusUpdate struct {
	BookingID     int64
	Status        BookingStatus
	SetApproval   bool
	ApprovedBy    int64
	ApprovedAt    time.Time
	MessengerName string
}
