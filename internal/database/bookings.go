package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"messenger/internal/models"
)

const bookingSelect = `SELECT
            b.id, b.company_id, b.booking_date, b.booking_time, b.requester_name,
            b.job_type, b.detail, b.department, b.building, b.floor,
            b.contact_name, b.contact_phone, b.status, b.created_by,
            b.approved_by, b.approved_at, b.messenger_name, b.created_at, b.updated_at,
            c.id, c.name, c.is_active, c.created_at, c.updated_at
        FROM bookings b
        JOIN companies c ON c.id = b.company_id`

const bookingOrder = ` ORDER BY b.booking_date DESC, b.booking_time DESC, b.id DESC`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				company_id, booking_date, booking_time, requester_name, job_type,
				detail, department, building, floor, contact_name, contact_phone,
				status, created_by, messenger_name, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	now := db.timestamp()
	result, err := db.ExecContext(ctx, query,
		booking.CompanyID,
		booking.BookingDate.Format(models.DateLayout),
		booking.BookingTime.String(),
		booking.RequesterName,
		booking.JobType,
		booking.Detail,
		booking.Department,
		booking.Building,
		booking.Floor,
		booking.ContactName,
		booking.ContactPhone,
		booking.Status,
		booking.CreatedBy,
		booking.MessengerName,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.BookingWithCompany, error) {
	return getBooking(ctx, db, id)
}

// GetBookingsByCreator lists the bookings a user submitted, newest schedule first.
func (db *DB) GetBookingsByCreator(ctx context.Context, userID int64) ([]models.BookingWithCompany, error) {
	return db.queryBookings(ctx, bookingSelect+` WHERE b.created_by = ?`+bookingOrder, userID)
}

// GetBookingsByApprover lists the bookings a user approved.
func (db *DB) GetBookingsByApprover(ctx context.Context, userID int64) ([]models.BookingWithCompany, error) {
	return db.queryBookings(ctx, bookingSelect+` WHERE b.approved_by = ?`+bookingOrder, userID)
}

func (db *DB) ListAllBookings(ctx context.Context) ([]models.BookingWithCompany, error) {
	return db.queryBookings(ctx, bookingSelect+bookingOrder)
}

// UpdateBookingStatus applies the update inside one transaction and
// returns the row as stored.
func (db *DB) UpdateBookingStatus(ctx context.Context, upd models.StatusUpdate) (*models.BookingWithCompany, error) {
	var updated *models.BookingWithCompany
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ?`, upd.BookingID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load booking: %w", err)
		}

		now := db.timestamp()
		if upd.SetApproval {
			_, err = tx.ExecContext(ctx,
				`UPDATE bookings SET status = ?, approved_by = ?, approved_at = ?, messenger_name = ?, updated_at = ? WHERE id = ?`,
				upd.Status, upd.ApprovedBy, upd.ApprovedAt.UTC(), upd.MessengerName, now, upd.BookingID)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
				upd.Status, now, upd.BookingID)
		}
		if err != nil {
			return fmt.Errorf("failed to update booking status: %w", err)
		}

		updated, err = getBooking(ctx, tx, upd.BookingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getBooking(ctx context.Context, q queryer, id int64) (*models.BookingWithCompany, error) {
	row, err := scanBooking(q.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]models.BookingWithCompany, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	result := []models.BookingWithCompany{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func scanBooking(row rowScanner) (*models.BookingWithCompany, error) {
	var (
		b          models.BookingWithCompany
		date, tod  string
		approvedBy sql.NullInt64
		approvedAt sql.NullTime
	)
	err := row.Scan(
		&b.ID,
		&b.CompanyID,
		&date,
		&tod,
		&b.RequesterName,
		&b.JobType,
		&b.Detail,
		&b.Department,
		&b.Building,
		&b.Floor,
		&b.ContactName,
		&b.ContactPhone,
		&b.Status,
		&b.CreatedBy,
		&approvedBy,
		&approvedAt,
		&b.MessengerName,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.Company.ID,
		&b.Company.Name,
		&b.Company.IsActive,
		&b.Company.CreatedAt,
		&b.Company.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	if b.BookingDate, err = models.ParseBookingDate(date); err != nil {
		return nil, fmt.Errorf("booking %d: %w", b.ID, err)
	}
	if b.BookingTime, err = models.ParseClockTime(tod); err != nil {
		return nil, fmt.Errorf("booking %d: %w", b.ID, err)
	}
	if approvedBy.Valid {
		id := approvedBy.Int64
		b.ApprovedBy = &id
	}
	if approvedAt.Valid {
		at := approvedAt.Time
		b.ApprovedAt = &at
	}
	return &b, nil
}
