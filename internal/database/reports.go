package database

import (
	"context"
	"strings"

	"messenger/internal/models"
)

// QueryReport returns bookings joined with their company, restricted by
// every non-nil filter field and ordered newest schedule first.
func (db *DB) QueryReport(ctx context.Context, filter models.ReportFilter) ([]models.BookingWithCompany, error) {
	where, args := reportConditions(filter)
	query := bookingSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	return db.queryBookings(ctx, query+bookingOrder, args...)
}

func reportConditions(filter models.ReportFilter) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.DateFrom != nil {
		where = append(where, `b.booking_date >= ?`)
		args = append(args, filter.DateFrom.Format(models.DateLayout))
	}
	if filter.DateTo != nil {
		where = append(where, `b.booking_date <= ?`)
		args = append(args, filter.DateTo.Format(models.DateLayout))
	}
	if filter.Status != nil {
		where = append(where, `b.status = ?`)
		args = append(args, *filter.Status)
	}
	if filter.CompanyID != nil {
		where = append(where, `b.company_id = ?`)
		args = append(args, *filter.CompanyID)
	}
	return where, args
}
