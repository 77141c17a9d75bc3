package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"messenger/internal/auth"
	"messenger/internal/config"
	"messenger/internal/database"
	"messenger/internal/export"
	"messenger/internal/models"
	"messenger/internal/repository"
	"messenger/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler   http.Handler
	db        *database.DB
	tokens    *auth.TokenIssuer
	admin     *models.User
	user      *models.User
	companyID int64
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := nopLogger()

	db, err := database.NewDB(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{db: db, tokens: auth.NewTokenIssuer("test-secret", "messenger", time.Hour)}
	env.admin = createUser(t, db, "admin", "admin123", models.RoleAdmin)
	env.user = createUser(t, db, "somchai", "secret123", models.RoleUser)

	company := &models.Company{Name: "Acme", IsActive: true}
	require.NoError(t, db.CreateCompany(context.Background(), company))
	env.companyID = company.ID

	deps := Deps{
		Auth: service.NewAuthService(db, env.tokens, repository.NewMemoryThrottleStore(), nil, nil,
			service.AuthSettings{MinPasswordLength: 6, ThrottleLimit: 3, ThrottleWindow: time.Minute}, logger),
		Users:     service.NewUserService(db, nil, 6, logger),
		Companies: service.NewCompanyService(db, logger),
		Bookings:  service.NewBookingService(db, nil, models.DefaultMessengerName, logger),
		Reports:   service.NewReportService(db, nil, logger),
		Stats:     service.NewStatsService(db),
		Renderer:  export.NewRenderer(config.ExportConfig{FontPath: "missing.ttf", Locale: models.LocaleEN}, logger),
	}
	cfg := config.APIConfig{HTTP: config.APIHTTPConfig{Port: 0, BasePath: "/api"}}
	env.handler = NewHTTPServer(cfg, deps, logger).Handler()
	return env
}

func createUser(t *testing.T, db *database.DB, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     username,
		Email:        username + "@example.com",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, _, err := e.tokens.Issue(u.ID)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (e *testEnv) createBooking(t *testing.T, token string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/bookings", token, map[string]any{
		"company_id":     e.companyID,
		"booking_date":   "2024-05-01",
		"booking_time":   "11:59:59",
		"requester_name": "Somchai",
		"job_type":       "Document",
		"detail":         "Deliver invoices",
		"department":     "Finance",
		"contact_name":   "Malee",
		"contact_phone":  "0812345678",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody[struct {
		BookingID int64 `json:"booking_id"`
	}](t, rec)
	return body.BookingID
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[loginResponse](t, rec)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "admin", resp.User.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodGet, "/api/auth/me", resp.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody[errorBody](t, rec).Code)
}

func TestLoginThrottled(t *testing.T) {
	env := newTestEnv(t)
	creds := map[string]string{"username": "somchai", "password": "nope"}
	for i := 0; i < 3; i++ {
		env.do(t, http.MethodPost, "/api/auth/login", "", creds)
	}
	rec := env.do(t, http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuthErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeBody[errorBody](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/bookings", env.token(t, env.user), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, env.user)

	rec := env.do(t, http.MethodPost, "/api/auth/change-password", tok,
		map[string]string{"old_password": "secret123", "new_password": "newsecret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "somchai", "password": "newsecret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOverlongPasswordRejected(t *testing.T) {
	env := newTestEnv(t)
	long := strings.Repeat("a", 80)

	rec := env.do(t, http.MethodPost, "/api/auth/change-password", env.token(t, env.user),
		map[string]string{"old_password": "secret123", "new_password": long})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "validation_error", decodeBody[errorBody](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/admin/users", env.token(t, env.admin), map[string]any{
		"username": "malee", "password": long, "full_name": "Malee", "role": "USER",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "validation_error", decodeBody[errorBody](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "somchai", "password": "secret123"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotPasswordUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/auth/forgot-password", "",
		map[string]string{"username": "ghost", "email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), service.ForgotPasswordMessage)
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	userTok := env.token(t, env.user)
	adminTok := env.token(t, env.admin)

	id := env.createBooking(t, userTok)

	rec := env.do(t, http.MethodGet, "/api/bookings/my", userTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decodeBody[[]models.BookingView](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, models.StatusPending, mine[0].Status)
	assert.Equal(t, "Acme", mine[0].CompanyName)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/bookings/%d/status", id), adminTok,
		map[string]string{"status": "SUCCESS"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[struct {
		Booking models.BookingView `json:"booking"`
	}](t, rec)
	assert.Equal(t, models.StatusSuccess, updated.Booking.Status)
	require.NotNil(t, updated.Booking.ApprovedBy)
	assert.Equal(t, env.admin.ID, *updated.Booking.ApprovedBy)
	assert.Equal(t, models.DefaultMessengerName, updated.Booking.MessengerName)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/bookings/%d/status", id), adminTok,
		map[string]string{"status": "DONE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/admin/bookings/999/status", adminTok,
		map[string]string{"status": "CANCEL"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBookingValidation(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/bookings", env.token(t, env.user), map[string]any{
		"company_id":   env.companyID,
		"booking_date": "2024-05-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, "validation_error", body.Code)
	assert.NotEmpty(t, body.Field)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+env.token(t, env.user))
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestActiveCompaniesAnonymous(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/bookings/companies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	companies := decodeBody[[]models.Company](t, rec)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)
}

func TestBookingPDFAccess(t *testing.T) {
	env := newTestEnv(t)
	id := env.createBooking(t, env.token(t, env.user))
	path := fmt.Sprintf("/api/bookings/%d/pdf", id)

	rec := env.do(t, http.MethodGet, path, env.token(t, env.user), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), fmt.Sprintf("booking_%d.pdf", id))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = env.do(t, http.MethodGet, path, env.token(t, env.admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	other := createUser(t, env.db, "other", "secret123", models.RoleUser)
	rec = env.do(t, http.MethodGet, path, env.token(t, other), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReportFiltersAndExports(t *testing.T) {
	env := newTestEnv(t)
	env.createBooking(t, env.token(t, env.user))
	adminTok := env.token(t, env.admin)

	rec := env.do(t, http.MethodGet, "/api/admin/report?start_date=2024-05-01&company_id=abc", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "company_id=abc", rec.Header().Get(ignoredFiltersHeader))
	assert.Len(t, decodeBody[[]models.BookingView](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/admin/report?status=SUCESS", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(ignoredFiltersHeader))
	assert.Len(t, decodeBody[[]models.BookingView](t, rec), 0)

	rec = env.do(t, http.MethodGet, "/api/admin/report?status=pending", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.BookingView](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/admin/report?end_date=2024-04-30", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(ignoredFiltersHeader))
	assert.Len(t, decodeBody[[]models.BookingView](t, rec), 0)

	rec = env.do(t, http.MethodGet, "/api/admin/report/excel", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "messenger_report.xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec = env.do(t, http.MethodGet, "/api/admin/report/pdf", adminTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "messenger_report.pdf")

	rec = env.do(t, http.MethodPost, "/api/admin/report/sheets", adminTok, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, env.admin)

	rec := env.do(t, http.MethodPost, "/api/admin/users", tok, map[string]any{
		"username": "malee", "password": "secret123", "full_name": "Malee", "role": "USER",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[models.User](t, rec)

	rec = env.do(t, http.MethodPost, "/api/admin/users", tok, map[string]any{
		"username": "malee", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d", created.ID), tok, map[string]any{"phone": "021234567"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "021234567", decodeBody[models.User](t, rec).Phone)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/reset_password", created.ID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reset := decodeBody[map[string]string](t, rec)
	assert.NotEmpty(t, reset["temporary_password"])

	rec = env.do(t, http.MethodGet, "/api/admin/users", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.User](t, rec), 3)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", env.admin.ID), tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", created.ID), tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/admin/users/abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminCompanies(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, env.admin)

	rec := env.do(t, http.MethodPost, "/api/admin/companies", tok, map[string]any{"name": "Globex"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	company := decodeBody[models.Company](t, rec)
	assert.True(t, company.IsActive)

	rec = env.do(t, http.MethodPost, "/api/admin/companies", tok, map[string]any{"name": "Globex"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/companies/%d", company.ID), tok, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[models.Company](t, rec).IsActive)

	rec = env.do(t, http.MethodGet, "/api/admin/companies", tok, nil)
	assert.Len(t, decodeBody[[]models.Company](t, rec), 2)

	rec = env.do(t, http.MethodGet, "/api/bookings/companies", "", nil)
	assert.Len(t, decodeBody[[]models.Company](t, rec), 1)
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	env.createBooking(t, env.token(t, env.user))
	tok := env.token(t, env.admin)

	rec := env.do(t, http.MethodGet, "/api/admin/summary", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[models.Summary](t, rec)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 2, summary.Users)

	rec = env.do(t, http.MethodGet, "/api/admin/stats/daily?days=3", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.DailyCount](t, rec), 3)

	rec = env.do(t, http.MethodGet, "/api/admin/stats/daily?days=abc", tok, nil)
	assert.Len(t, decodeBody[[]models.DailyCount](t, rec), 7)

	rec = env.do(t, http.MethodGet, "/api/admin/stats/companies", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/stats/status", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := newRateLimiter(config.APIRateLimitConfig{RPS: 1, Burst: 1})
	h := rateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestIPResolver(t *testing.T) {
	newReq := func(remote, forwarded string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		return req
	}

	untrusting := newIPResolver(nil)
	assert.Equal(t, "10.0.0.1", untrusting.resolve(newReq("10.0.0.1:5555", "")))
	assert.Equal(t, "10.0.0.1", untrusting.resolve(newReq("10.0.0.1:5555", "203.0.113.7")))

	behindProxy := newIPResolver([]string{"10.0.0.0/8", "192.168.1.10"})
	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{name: "trusted peer", remote: "10.0.0.1:5555", forwarded: "203.0.113.7", want: "203.0.113.7"},
		{name: "client spoofs leftmost hop", remote: "10.0.0.1:5555", forwarded: "1.2.3.4, 203.0.113.7", want: "203.0.113.7"},
		{name: "chained proxies", remote: "10.0.0.1:5555", forwarded: "203.0.113.7, 192.168.1.10", want: "203.0.113.7"},
		{name: "untrusted peer", remote: "198.51.100.9:5555", forwarded: "203.0.113.7", want: "198.51.100.9"},
		{name: "malformed hop", remote: "10.0.0.1:5555", forwarded: "not-an-ip", want: "10.0.0.1"},
		{name: "no header", remote: "10.0.0.1:5555", want: "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, behindProxy.resolve(newReq(tt.remote, tt.forwarded)))
		})
	}
}

func TestLoginThrottleIgnoresForwardedFor(t *testing.T) {
	env := newTestEnv(t)
	body := `{"username":"somchai","password":"nope"}`

	var codes []int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{
		http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized,
		http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

func TestRecoverMiddleware(t *testing.T) {
	h := recoverMiddleware(nopLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeBody[errorBody](t, rec).Code)
}
