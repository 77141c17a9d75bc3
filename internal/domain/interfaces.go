package domain

import (
	"context"
	"time"

	"messenger/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
}

type CompanyRepository interface {
	ListActiveCompanies(ctx context.Context) ([]*models.Company, error)
	ListCompanies(ctx context.Context) ([]*models.Company, error)
	GetCompanyByID(ctx context.Context, id int64) (*models.Company, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	UpdateCompany(ctx context.Context, company *models.Company) error
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.BookingWithCompany, error)
	GetBookingsByCreator(ctx context.Context, userID int64) ([]models.BookingWithCompany, error)
	GetBookingsByApprover(ctx context.Context, userID int64) ([]models.BookingWithCompany, error)
	ListAllBookings(ctx context.Context) ([]models.BookingWithCompany, error)
	UpdateBookingStatus(ctx context.Context, upd models.StatusUpdate) (*models.BookingWithCompany, error)
	QueryReport(ctx context.Context, filter models.ReportFilter) ([]models.BookingWithCompany, error)
}

type StatsRepository interface {
	Summary(ctx context.Context, today time.Time) (*models.Summary, error)
	DailyCounts(ctx context.Context, from, to time.Time) ([]models.DailyCount, error)
	CompanyCounts(ctx context.Context) ([]models.CompanyCount, error)
	StatusCounts(ctx context.Context) ([]models.StatusCount, error)
}

// Repository is the full relational store.
type Repository interface {
	UserRepository
	CompanyRepository
	BookingRepository
	StatsRepository
}

// ThrottleStore counts attempts per key in a fixed window.
type ThrottleStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Mailer interface {
	SendTemporaryPassword(ctx context.Context, to, username, password string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type SheetsWriter interface {
	ReplaceReport(ctx context.Context, rows []models.BookingWithCompany) error
}
