package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"

	"messenger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseReportFilters(t *testing.T) {
	t.Run("Applied", func(t *testing.T) {
		res := ParseReportFilters(url.Values{
			"start_date": {"2024-01-01"},
			"date_to":    {"2024-01-31"},
			"status":     {"success"},
			"company_id": {"7"},
		})
		assert.Empty(t, res.Ignored)
		require.NotNil(t, res.Filter.DateFrom)
		assert.Equal(t, "2024-01-01", res.Filter.DateFrom.Format(models.DateLayout))
		require.NotNil(t, res.Filter.DateTo)
		assert.Equal(t, "2024-01-31", res.Filter.DateTo.Format(models.DateLayout))
		require.NotNil(t, res.Filter.Status)
		assert.Equal(t, models.StatusSuccess, *res.Filter.Status)
		require.NotNil(t, res.Filter.CompanyID)
		assert.Equal(t, int64(7), *res.Filter.CompanyID)
	})

	t.Run("MalformedIgnored", func(t *testing.T) {
		res := ParseReportFilters(url.Values{
			"date_from":  {"not-a-date"},
			"end_date":   {"2024-13-40"},
			"company_id": {"abc"},
		})
		assert.Equal(t, models.ReportFilter{}, res.Filter)
		assert.Equal(t, []IgnoredFilter{
			{Name: "date_from", Value: "not-a-date"},
			{Name: "end_date", Value: "2024-13-40"},
			{Name: "company_id", Value: "abc"},
		}, res.Ignored)
		assert.Equal(t, "company_id=abc", res.Ignored[2].String())
	})

	t.Run("UnknownStatusApplied", func(t *testing.T) {
		res := ParseReportFilters(url.Values{"status": {"sucess"}})
		assert.Empty(t, res.Ignored)
		require.NotNil(t, res.Filter.Status)
		assert.Equal(t, models.BookingStatus("SUCESS"), *res.Filter.Status)
	})

	t.Run("Empty", func(t *testing.T) {
		res := ParseReportFilters(url.Values{"status": {""}})
		assert.Equal(t, models.ReportFilter{}, res.Filter)
		assert.Empty(t, res.Ignored)
	})
}

func TestReportService(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	user := seedUser(t, db, "alice", "password1", models.RoleUser, true)
	active := seedCompany(t, db, "Active Co", true)
	retired := seedCompany(t, db, "Retired Co", true)

	bookings := NewBookingService(db, nil, "", nopLogger())
	companies := NewCompanyService(db, nopLogger())
	for _, c := range []*models.Company{active, retired} {
		in := validInput(strconv.FormatInt(c.ID, 10))
		_, err := bookings.Create(ctx, user.ID, in)
		require.NoError(t, err)
	}
	off := false
	_, err := companies.Update(ctx, retired.ID, CompanyInput{IsActive: &off})
	require.NoError(t, err)

	sheets := new(mockSheets)
	svc := NewReportService(db, sheets, nopLogger())

	t.Run("SilentIgnoreMatchesUnfiltered", func(t *testing.T) {
		unfiltered, err := svc.Query(ctx, models.ReportFilter{})
		require.NoError(t, err)

		bad := ParseReportFilters(url.Values{"start_date": {"not-a-date"}})
		filtered, err := svc.Query(ctx, bad.Filter)
		require.NoError(t, err)
		assert.Equal(t, unfiltered, filtered)
		assert.Len(t, filtered, 2)
	})

	t.Run("InactiveCompanyStillJoined", func(t *testing.T) {
		id := retired.ID
		rows, err := svc.Query(ctx, models.ReportFilter{CompanyID: &id})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Retired Co", rows[0].Company.Name)
		assert.False(t, rows[0].Company.IsActive)

		list, err := companies.ListActive(ctx)
		require.NoError(t, err)
		for _, c := range list {
			assert.NotEqual(t, retired.ID, c.ID)
		}
	})

	t.Run("PushToSheets", func(t *testing.T) {
		sheets.On("ReplaceReport", mock.Anything, mock.MatchedBy(func(rows []models.BookingWithCompany) bool {
			return len(rows) == 2
		})).Return(nil).Once()

		n, err := svc.PushToSheets(ctx, models.ReportFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		sheets.On("ReplaceReport", mock.Anything, mock.Anything).Return(errors.New("quota")).Once()
		_, err = svc.PushToSheets(ctx, models.ReportFilter{})
		assert.Error(t, err)
		sheets.AssertExpectations(t)
	})

	t.Run("SheetsNotConfigured", func(t *testing.T) {
		_, err := NewReportService(db, nil, nopLogger()).PushToSheets(ctx, models.ReportFilter{})
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
