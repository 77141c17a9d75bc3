package export

import (
	"messenger/internal/models"
)

// SpreadsheetHeaders is the column order shared by the Excel and Sheets exports.
var SpreadsheetHeaders = []string{
	"Date",
	"Time",
	"Company",
	"Requester",
	"Job Type",
	"Department",
	"Detail",
	"Contact Name",
	"Contact Phone",
	"Status",
	"Messenger",
}

// SpreadsheetRows projects bookings into spreadsheet rows. Time is the clock
// value, even for the slot sentinels, and status stays the raw value; an
// unset messenger renders as "-".
func SpreadsheetRows(rows []models.BookingWithCompany) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		messenger := r.MessengerName
		if messenger == "" {
			messenger = "-"
		}
		out = append(out, []string{
			r.BookingDate.Format(models.DateLayout),
			r.BookingTime.Short(),
			r.Company.Name,
			r.RequesterName,
			r.JobType,
			r.Department,
			r.Detail,
			r.ContactName,
			r.ContactPhone,
			string(r.Status),
			messenger,
		})
	}
	return out
}
