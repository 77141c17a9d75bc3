package service

import (
	"net/url"
	"strconv"
	"strings"

	"messenger/internal/models"
)

// IgnoredFilter is a report filter whose value could not be parsed.
type IgnoredFilter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (f IgnoredFilter) String() string {
	return f.Name + "=" + f.Value
}

type ReportFilterResult struct {
	Filter  models.ReportFilter
	Ignored []IgnoredFilter
}

// ParseReportFilters reads the report query parameters. Malformed dates and
// company ids are dropped and listed in Ignored; they never fail the request.
func ParseReportFilters(q url.Values) ReportFilterResult {
	var res ReportFilterResult

	if name, raw := firstParam(q, "start_date", "date_from"); raw != "" {
		if d, err := models.ParseBookingDate(raw); err == nil {
			res.Filter.DateFrom = &d
		} else {
			res.Ignored = append(res.Ignored, IgnoredFilter{Name: name, Value: raw})
		}
	}

	if name, raw := firstParam(q, "end_date", "date_to"); raw != "" {
		if d, err := models.ParseBookingDate(raw); err == nil {
			res.Filter.DateTo = &d
		} else {
			res.Ignored = append(res.Ignored, IgnoredFilter{Name: name, Value: raw})
		}
	}

	// An unknown status is still applied and matches no booking.
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := models.BookingStatus(strings.ToUpper(raw))
		res.Filter.Status = &status
	}

	if raw := strings.TrimSpace(q.Get("company_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			res.Filter.CompanyID = &id
		} else {
			res.Ignored = append(res.Ignored, IgnoredFilter{Name: "company_id", Value: raw})
		}
	}

	return res
}

func firstParam(q url.Values, names ...string) (string, string) {
	for _, name := range names {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return name, v
		}
	}
	return "", ""
}
