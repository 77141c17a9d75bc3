package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"messenger/internal/auth"
	"messenger/internal/database"
	"messenger/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendTemporaryPassword(ctx context.Context, to, username, password string) error {
	return m.Called(ctx, to, username, password).Error(0)
}

type mockSheets struct {
	mock.Mock
}

func (m *mockSheets) ReplaceReport(ctx context.Context, rows []models.BookingWithCompany) error {
	return m.Called(ctx, rows).Error(0)
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:", nopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedUser(t *testing.T, db *database.DB, username, password string, role models.Role, active bool) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     username + " name",
		Email:        username + "@example.com",
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func seedCompany(t *testing.T, db *database.DB, name string, active bool) *models.Company {
	t.Helper()
	c := &models.Company{Name: name, IsActive: active}
	require.NoError(t, db.CreateCompany(context.Background(), c))
	return c
}

func validInput(companyID string) CreateBookingInput {
	return CreateBookingInput{
		CompanyID:     json.Number(companyID),
		BookingDate:   "2024-05-01",
		BookingTime:   "10:30",
		RequesterName: "Somchai",
		JobType:       "Document",
		Detail:        "Deliver invoices",
		Department:    "Finance",
		Building:      "Tower A",
		Floor:         "12",
		ContactName:   "Malee",
		ContactPhone:  "0812345678",
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
