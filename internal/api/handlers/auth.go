package handlers

import (
	"errors"
	"net/http"
	"street-screens-service/internal/api/dto"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.Auth.Register(r.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		TypeUser:  domain.UserType(req.UserType),
	})
	if errors.Is(err, domain.ErrConflict) {
		writeJSON(w, r, http.StatusBadRequest, map[string]any{
			"error":  "user with this email already exists",
			"fields": map[string]string{"email": "user with this email already exists"},
		})
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, tokenResponse(sess))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, tokenResponse(sess))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	u, err := h.Auth.Me(r.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, r, http.StatusUnauthorized, "user no longer exists")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.UserFromDomain(u))
}

func tokenResponse(s *services.Session) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken: s.Token,
		TokenType:   "Bearer",
		ExpiresAt:   s.ExpiresAt,
		User:        dto.UserFromDomain(s.User),
	}
}
