package api

import (
	"bytes"
	"fmt"
	"net/http"

	"messenger/internal/metrics"
	"messenger/internal/models"
	"messenger/internal/service"
)

func (s *HTTPServer) handleActiveCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.deps.Companies.ListActive(r.Context())
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBookingInput
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	userID, _ := userIDFrom(r.Context())
	booking, err := s.deps.Bookings.Create(r.Context(), userID, req)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "created",
		"booking":    models.NewBookingView(*booking),
		"booking_id": booking.ID,
	})
}

func (s *HTTPServer) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	rows, err := s.deps.Bookings.ListMine(r.Context(), userID)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewBookingViews(rows))
}

func (s *HTTPServer) handleBookingPDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	if s.deps.Renderer == nil {
		handleError(w, r, s.logger, service.ErrUnavailable)
		return
	}

	userID, _ := userIDFrom(r.Context())
	user, err := s.deps.Auth.CurrentUser(r.Context(), userID)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	booking, err := s.deps.Bookings.GetForUser(r.Context(), id, user)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Renderer.BookingForm(&buf, *booking); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	metrics.IncExport("booking_pdf")
	writeAttachment(w, "application/pdf", fmt.Sprintf("booking_%d.pdf", booking.ID), buf.Bytes())
}
