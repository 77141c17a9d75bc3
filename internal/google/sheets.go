package google

import (
	"context"
	"fmt"
	"os"

	"messenger/internal/export"
	"messenger/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ReportSheetsService mirrors the admin report into one sheet of a Google
// spreadsheet.
type ReportSheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewReportSheetsService(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*ReportSheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return newReportSheetsService(srv, spreadsheetID, sheetName), nil
}

func newReportSheetsService(srv *sheets.Service, spreadsheetID, sheetName string) *ReportSheetsService {
	return &ReportSheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

// TestConnection reads the first cell of the report sheet.
func (s *ReportSheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to access spreadsheet: %w", err)
	}
	return nil
}

// ReplaceReport clears the sheet and writes the header plus one row per booking.
func (s *ReportSheetsService) ReplaceReport(ctx context.Context, rows []models.BookingWithCompany) error {
	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, s.sheetName+"!A:Z", &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to clear report sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toInterfaces(export.SpreadsheetHeaders))
	for _, row := range export.SpreadsheetRows(rows) {
		values = append(values, toInterfaces(row))
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetName+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to update report sheet: %w", err)
	}
	return nil
}

func toInterfaces(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
