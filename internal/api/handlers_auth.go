package api

import (
	"net/http"
	"time"

	"messenger/internal/models"
	"messenger/internal/service"
)

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   string       `json:"expires_at"`
	User        *models.User `json:"user"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	res, err := s.deps.Auth.Login(r.Context(), clientIP(r), req.Username, req.Password)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		ExpiresAt:   res.ExpiresAt.UTC().Format(time.RFC3339),
		User:        res.User,
	})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	user, err := s.deps.Auth.CurrentUser(r.Context(), userID)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	userID, _ := userIDFrom(r.Context())
	user, err := s.deps.Auth.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		OldPassword     string `json:"old_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	if req.CurrentPassword == "" {
		req.CurrentPassword = req.OldPassword
	}

	userID, _ := userIDFrom(r.Context())
	if err := s.deps.Auth.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "password changed")
}

func (s *HTTPServer) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	if err := s.deps.Auth.ForgotPassword(r.Context(), clientIP(r), req.Username, req.Email); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, service.ForgotPasswordMessage)
}
