package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"messenger/internal/export"
	"messenger/internal/metrics"
	"messenger/internal/models"
	"messenger/internal/service"
)

const ignoredFiltersHeader = "X-Report-Ignored-Filters"

func (s *HTTPServer) handleAllBookings(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Bookings.ListAll(r.Context())
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewBookingViews(rows))
}

func (s *HTTPServer) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	var req struct {
		Status        string  `json:"status"`
		MessengerName *string `json:"messenger_name"`
		Messenger     *string `json:"messenger"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	messenger := req.MessengerName
	if messenger == nil {
		messenger = req.Messenger
	}

	admin := userFrom(r.Context())
	booking, err := s.deps.Bookings.SetStatus(r.Context(), id, req.Status, admin.ID, messenger)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "status updated",
		"booking": models.NewBookingView(*booking),
	})
}

// reportFilter parses the report query. Dropped filters are echoed in a
// response header and logged.
func (s *HTTPServer) reportFilter(w http.ResponseWriter, r *http.Request) models.ReportFilter {
	res := service.ParseReportFilters(r.URL.Query())
	if len(res.Ignored) > 0 {
		ignored := make([]string, 0, len(res.Ignored))
		for _, f := range res.Ignored {
			ignored = append(ignored, f.String())
		}
		w.Header().Set(ignoredFiltersHeader, strings.Join(ignored, ", "))
		s.logger.Warn().
			Str("request_id", requestIDFrom(r.Context())).
			Strs("ignored", ignored).
			Msg("malformed report filters ignored")
	}
	return res.Filter
}

func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Reports.Query(r.Context(), s.reportFilter(w, r))
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewBookingViews(rows))
}

func (s *HTTPServer) handleReportExcel(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Reports.Query(r.Context(), s.reportFilter(w, r))
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteExcel(&buf, rows); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	metrics.IncExport("excel")
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "messenger_report.xlsx", buf.Bytes())
}

func (s *HTTPServer) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	if s.deps.Renderer == nil {
		handleError(w, r, s.logger, service.ErrUnavailable)
		return
	}
	rows, err := s.deps.Reports.Query(r.Context(), s.reportFilter(w, r))
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Renderer.Report(&buf, rows); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	metrics.IncExport("pdf")
	writeAttachment(w, "application/pdf", "messenger_report.pdf", buf.Bytes())
}

func (s *HTTPServer) handleReportSheets(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Reports.PushToSheets(r.Context(), s.reportFilter(w, r))
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	metrics.IncExport("sheets")
	writeJSON(w, http.StatusOK, map[string]any{"message": "report exported", "rows": n})
}

func (s *HTTPServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Stats.Summary(r.Context())
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *HTTPServer) handleStatsDaily(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("days")))
	counts, err := s.deps.Stats.Daily(r.Context(), days)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *HTTPServer) handleStatsCompanies(w http.ResponseWriter, r *http.Request) {
	counts, err := s.deps.Stats.ByCompany(r.Context())
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *HTTPServer) handleStatsStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.deps.Stats.ByStatus(r.Context())
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
