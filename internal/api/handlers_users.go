package api

import (
	"net/http"

	"messenger/internal/service"
)

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.ListUsers(r.Context())
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserInput
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	user, err := s.deps.Users.CreateUser(r.Context(), req)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *HTTPServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	var req service.UpdateUserInput
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	user, err := s.deps.Users.UpdateUser(r.Context(), id, req)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	admin := userFrom(r.Context())
	if err := s.deps.Users.DeleteUser(r.Context(), admin.ID, id); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "deleted")
}

func (s *HTTPServer) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	admin := userFrom(r.Context())
	password, err := s.deps.Users.ResetPassword(r.Context(), admin.ID, id, req.Password)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}

	resp := map[string]string{"message": "password reset"}
	if req.Password == "" {
		resp["temporary_password"] = password
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.deps.Companies.ListAll(r.Context())
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *HTTPServer) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req service.CompanyInput
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	company, err := s.deps.Companies.Create(r.Context(), req)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, company)
}

func (s *HTTPServer) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	var req service.CompanyInput
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	company, err := s.deps.Companies.Update(r.Context(), id, req)
	if err != nil {
		handleError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}
