package database

import (
	"context"
	"fmt"
	"time"

	"messenger/internal/models"
)

// Summary counts bookings per status plus the bookings scheduled for today.
func (db *DB) Summary(ctx context.Context, today time.Time) (*models.Summary, error) {
	var s models.Summary
	query := `SELECT
                COUNT(*),
                COALESCE(SUM(CASE WHEN status = 'PENDING' THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN status = 'SUCCESS' THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN status = 'CANCEL' THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN booking_date = ? THEN 1 ELSE 0 END), 0)
              FROM bookings`
	err := db.QueryRowContext(ctx, query, today.Format(models.DateLayout)).
		Scan(&s.Total, &s.Pending, &s.Success, &s.Cancel, &s.Today)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize bookings: %w", err)
	}

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&s.Users); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies WHERE is_active = 1`).Scan(&s.Companies); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}
	return &s, nil
}

// DailyCounts returns one entry per day in [from, to], zero-filled.
func (db *DB) DailyCounts(ctx context.Context, from, to time.Time) ([]models.DailyCount, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT booking_date, COUNT(*) FROM bookings
         WHERE booking_date >= ? AND booking_date <= ?
         GROUP BY booking_date`,
		from.Format(models.DateLayout), to.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to count daily bookings: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			day   string
			count int
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var result []models.DailyCount
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DateLayout)
		result = append(result, models.DailyCount{Date: key, Count: counts[key]})
	}
	return result, nil
}

func (db *DB) CompanyCounts(ctx context.Context) ([]models.CompanyCount, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.name, COUNT(b.id) FROM companies c
         LEFT JOIN bookings b ON b.company_id = c.id
         GROUP BY c.id, c.name
         ORDER BY COUNT(b.id) DESC, c.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings per company: %w", err)
	}
	defer rows.Close()

	result := []models.CompanyCount{}
	for rows.Next() {
		var c models.CompanyCount
		if err := rows.Scan(&c.CompanyID, &c.CompanyName, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan company count: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// StatusCounts always reports every status, including those with no bookings.
func (db *DB) StatusCounts(ctx context.Context) ([]models.StatusCount, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings per status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.BookingStatus]int)
	for rows.Next() {
		var (
			status models.BookingStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return []models.StatusCount{
		{Status: models.StatusPending, Count: counts[models.StatusPending]},
		{Status: models.StatusSuccess, Count: counts[models.StatusSuccess]},
		{Status: models.StatusCancel, Count: counts[models.StatusCancel]},
	}, nil
}
