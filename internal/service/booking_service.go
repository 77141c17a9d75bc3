package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"messenger/internal/database"
	"messenger/internal/domain"
	"messenger/internal/events"
	"messenger/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo                 domain.Repository
	eventBus             domain.EventPublisher
	defaultMessengerName string
	logger               *zerolog.Logger
	now                  func() time.Time
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, defaultMessengerName string, logger *zerolog.Logger) *BookingService {
	if strings.TrimSpace(defaultMessengerName) == "" {
		defaultMessengerName = models.DefaultMessengerName
	}
	return &BookingService{
		repo:                 repo,
		eventBus:             eventBus,
		defaultMessengerName: defaultMessengerName,
		logger:               logger,
		now:                  time.Now,
	}
}

// CreateBookingInput is the submitted form. CompanyID accepts a JSON number
// or a numeric string.
type CreateBookingInput struct {
	CompanyID     json.Number `json:"company_id"`
	BookingDate   string      `json:"booking_date"`
	BookingTime   string      `json:"booking_time"`
	RequesterName string      `json:"requester_name"`
	JobType       string      `json:"job_type"`
	Detail        string      `json:"detail"`
	Department    string      `json:"department"`
	Building      string      `json:"building"`
	Floor         string      `json:"floor"`
	ContactName   string      `json:"contact_name"`
	ContactPhone  string      `json:"contact_phone"`
}

// requiredFields lists the mandatory fields in the order they are checked.
func (in CreateBookingInput) requiredFields() []struct{ name, value string } {
	return []struct{ name, value string }{
		{"company_id", in.CompanyID.String()},
		{"booking_date", in.BookingDate},
		{"booking_time", in.BookingTime},
		{"requester_name", in.RequesterName},
		{"job_type", in.JobType},
		{"detail", in.Detail},
		{"department", in.Department},
		{"contact_name", in.ContactName},
		{"contact_phone", in.ContactPhone},
	}
}

// Create validates the form and stores a PENDING booking for creatorID.
func (s *BookingService) Create(ctx context.Context, creatorID int64, in CreateBookingInput) (*models.BookingWithCompany, error) {
	for _, f := range in.requiredFields() {
		if strings.TrimSpace(f.value) == "" {
			return nil, required(f.name)
		}
	}

	companyID, err := strconv.ParseInt(strings.TrimSpace(in.CompanyID.String()), 10, 64)
	if err != nil {
		return nil, invalid("company_id", "company_id must be an integer")
	}
	date, err := models.ParseBookingDate(in.BookingDate)
	if err != nil {
		return nil, invalid("booking_date", "booking_date must be YYYY-MM-DD")
	}
	clock, err := models.ParseClockTime(in.BookingTime)
	if err != nil {
		return nil, invalid("booking_time", "booking_time must be HH:MM or HH:MM:SS")
	}

	if _, err := loadUser(ctx, s.repo, creatorID); err != nil {
		return nil, err
	}
	company, err := s.repo.GetCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, invalid("company_id", "company not found")
		}
		return nil, err
	}

	booking := &models.Booking{
		CompanyID:     company.ID,
		BookingDate:   date,
		BookingTime:   clock,
		RequesterName: strings.TrimSpace(in.RequesterName),
		JobType:       strings.TrimSpace(in.JobType),
		Detail:        strings.TrimSpace(in.Detail),
		Department:    strings.TrimSpace(in.Department),
		Building:      strings.TrimSpace(in.Building),
		Floor:         strings.TrimSpace(in.Floor),
		ContactName:   strings.TrimSpace(in.ContactName),
		ContactPhone:  strings.TrimSpace(in.ContactPhone),
		Status:        models.StatusPending,
		CreatedBy:     creatorID,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	created := &models.BookingWithCompany{Booking: *booking, Company: *company}
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("company_id", company.ID).
		Int64("created_by", creatorID).
		Msg("booking created")
	s.publishEvent(events.EventBookingCreated, created, "", creatorID)
	return created, nil
}

func (s *BookingService) ListMine(ctx context.Context, userID int64) ([]models.BookingWithCompany, error) {
	return s.repo.GetBookingsByCreator(ctx, userID)
}

func (s *BookingService) ListAll(ctx context.Context) ([]models.BookingWithCompany, error) {
	return s.repo.ListAllBookings(ctx)
}

// ListApprovedBy returns the bookings a user approved.
func (s *BookingService) ListApprovedBy(ctx context.Context, userID int64) ([]models.BookingWithCompany, error) {
	return s.repo.GetBookingsByApprover(ctx, userID)
}

// GetForUser returns the booking when user created it or is an admin.
func (s *BookingService) GetForUser(ctx context.Context, bookingID int64, user *models.User) (*models.BookingWithCompany, error) {
	booking, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CreatedBy != user.ID && !user.IsAdmin() {
		return nil, ErrNotOwner
	}
	return booking, nil
}

func (s *BookingService) get(ctx context.Context, id int64) (*models.BookingWithCompany, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// SetStatus overwrites the status. SUCCESS also records the approver, the
// approval time and the messenger name; other statuses leave those fields
// as they are. Any transition is allowed.
func (s *BookingService) SetStatus(ctx context.Context, bookingID int64, rawStatus string, approverID int64, messenger *string) (*models.BookingWithCompany, error) {
	if strings.TrimSpace(rawStatus) == "" {
		return nil, required("status")
	}
	status, ok := models.ParseBookingStatus(strings.TrimSpace(rawStatus))
	if !ok {
		return nil, invalid("status", "status must be one of PENDING, SUCCESS, CANCEL")
	}

	previous, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	upd := models.StatusUpdate{BookingID: bookingID, Status: status}
	if status == models.StatusSuccess {
		upd.SetApproval = true
		upd.ApprovedBy = approverID
		upd.ApprovedAt = s.now()
		upd.MessengerName = s.messengerName(messenger)
	}

	updated, err := s.repo.UpdateBookingStatus(ctx, upd)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", bookingID).
		Str("from", string(previous.Status)).
		Str("to", string(status)).
		Int64("actor_id", approverID).
		Msg("booking status changed")
	s.publishEvent(events.EventBookingStatusChanged, updated, previous.Status, approverID)
	return updated, nil
}

func (s *BookingService) messengerName(label *string) string {
	if label != nil {
		if name := strings.TrimSpace(*label); name != "" {
			return name
		}
	}
	return s.defaultMessengerName
}

func (s *BookingService) publishEvent(eventType string, b *models.BookingWithCompany, previous models.BookingStatus, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:      b.ID,
		CompanyID:      b.CompanyID,
		CompanyName:    b.Company.Name,
		RequesterName:  b.RequesterName,
		JobType:        b.JobType,
		BookingDate:    b.BookingDate.Format(models.DateLayout),
		BookingTime:    b.BookingTime.Label(models.LocaleTH),
		Status:         string(b.Status),
		PreviousStatus: string(previous),
		MessengerName:  b.MessengerName,
		ActorID:        actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", b.ID).Msg("publish event error")
	}
}
