package models

import "time"

// ReportFilter holds the report constraints that parsed successfully.
// A nil field means the constraint is not applied.
type ReportFilter struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	Status    *BookingStatus
	CompanyID *int64
}

type Summary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Success   int `json:"success"`
	Cancel    int `json:"cancel"`
	Today     int `json:"today"`
	Users     int `json:"users"`
	Companies int `json:"companies"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type CompanyCount struct {
	CompanyID   int64  `json:"company_id"`
	CompanyName string `json:"company_name"`
	Count       int    `json:"count"`
}

type StatusCount struct {
	Status BookingStatus `json:"status"`
	Count  int           `json:"count"`
}
