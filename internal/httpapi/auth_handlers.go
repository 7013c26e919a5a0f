package httpapi

import (
	"net/http"

	"bountyhub.org/internal/audit"
	"bountyhub.org/internal/auth"
	"bountyhub.org/internal/bounty"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *bounty.User `json:"user"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if msg, ok := a.validateRequest(req); !ok {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	user, err := a.svc.Register(r.Context(), bounty.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, a.tokenTTL)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "user.register", map[string]any{
		"user_id": user.ID,
		"role":    string(user.Role),
	})
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if msg, ok := a.validateRequest(req); !ok {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	user, err := a.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, a.tokenTTL)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "user.login", map[string]any{"user_id": user.ID})
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "No token provided, authorization denied")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
