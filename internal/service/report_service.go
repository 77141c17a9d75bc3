package service

import (
	"context"

	"messenger/internal/domain"
	"messenger/internal/models"

	"github.com/rs/zerolog"
)

type ReportService struct {
	repo   domain.BookingRepository
	sheets domain.SheetsWriter
	logger *zerolog.Logger
}

// NewReportService builds the report service. sheets may be nil when the
// Google export is not configured.
func NewReportService(repo domain.BookingRepository, sheets domain.SheetsWriter, logger *zerolog.Logger) *ReportService {
	return &ReportService{repo: repo, sheets: sheets, logger: logger}
}

func (s *ReportService) Query(ctx context.Context, filter models.ReportFilter) ([]models.BookingWithCompany, error) {
	return s.repo.QueryReport(ctx, filter)
}

// PushToSheets replaces the configured sheet with the filtered report and
// returns the number of rows written.
func (s *ReportService) PushToSheets(ctx context.Context, filter models.ReportFilter) (int, error) {
	if s.sheets == nil {
		return 0, ErrUnavailable
	}

	rows, err := s.repo.QueryReport(ctx, filter)
	if err != nil {
		return 0, err
	}
	if err := s.sheets.ReplaceReport(ctx, rows); err != nil {
		return 0, err
	}

	s.logger.Info().Int("rows", len(rows)).Msg("report pushed to Google Sheets")
	return len(rows), nil
}
