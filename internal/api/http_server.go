package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"messenger/internal/config"
	"messenger/internal/export"
	"messenger/internal/service"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Companies *service.CompanyService
	Bookings  *service.BookingService
	Reports   *service.ReportService
	Stats     *service.StatsService
	Renderer  *export.Renderer
}

type HTTPServer struct {
	cfg     config.APIConfig
	deps    Deps
	handler http.Handler
	server  *http.Server
	logger  *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{cfg: cfg, deps: deps, logger: logger}

	mux := http.NewServeMux()
	srv.routes(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", ignoredFiltersHeader, requestIDHeader},
		AllowCredentials: true,
	})

	var handler http.Handler = corsHandler.Handler(mux)
	handler = rateLimitMiddleware(newRateLimiter(cfg.RateLimit))(handler)
	handler = recoverMiddleware(logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = clientIPMiddleware(newIPResolver(cfg.TrustedProxies))(handler)
	handler = requestIDMiddleware(handler)
	srv.handler = handler

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	base := s.cfg.HTTP.BasePath
	handle := func(pattern string, h http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.HandleFunc(method+" "+base+path, h)
	}

	handle("GET /health", s.handleHealth)

	handle("POST /auth/login", s.handleLogin)
	handle("GET /auth/me", s.requireAuth(s.handleMe))
	handle("PUT /auth/me", s.requireAuth(s.handleUpdateMe))
	handle("POST /auth/change-password", s.requireAuth(s.handleChangePassword))
	handle("POST /auth/forgot-password", s.handleForgotPassword)

	handle("GET /bookings/companies", s.optionalAuth(s.handleActiveCompanies))
	handle("POST /bookings", s.requireAuth(s.handleCreateBooking))
	handle("GET /bookings/my", s.requireAuth(s.handleMyBookings))
	handle("GET /bookings/{id}/pdf", s.requireAuth(s.handleBookingPDF))

	handle("GET /admin/bookings", s.requireAdmin(s.handleAllBookings))
	handle("PATCH /admin/bookings/{id}/status", s.requireAdmin(s.handleSetStatus))

	handle("GET /admin/report", s.requireAdmin(s.handleReport))
	handle("GET /admin/report/excel", s.requireAdmin(s.handleReportExcel))
	handle("GET /admin/report/pdf", s.requireAdmin(s.handleReportPDF))
	handle("POST /admin/report/sheets", s.requireAdmin(s.handleReportSheets))

	handle("GET /admin/users", s.requireAdmin(s.handleListUsers))
	handle("POST /admin/users", s.requireAdmin(s.handleCreateUser))
	handle("PUT /admin/users/{id}", s.requireAdmin(s.handleUpdateUser))
	handle("DELETE /admin/users/{id}", s.requireAdmin(s.handleDeleteUser))
	handle("POST /admin/users/{id}/reset_password", s.requireAdmin(s.handleResetPassword))

	handle("GET /admin/companies", s.requireAdmin(s.handleListCompanies))
	handle("POST /admin/companies", s.requireAdmin(s.handleCreateCompany))
	handle("PATCH /admin/companies/{id}", s.requireAdmin(s.handleUpdateCompany))

	handle("GET /admin/summary", s.requireAdmin(s.handleSummary))
	handle("GET /admin/stats/daily", s.requireAdmin(s.handleStatsDaily))
	handle("GET /admin/stats/companies", s.requireAdmin(s.handleStatsCompanies))
	handle("GET /admin/stats/status", s.requireAdmin(s.handleStatsStatus))
}

// Handler is the fully wrapped handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Str("base_path", s.cfg.HTTP.BasePath).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
