package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
	"github.com/saikhaykhunmong/strapi-nextts/internal/session"
)

// SessionStore is what the auth surface needs from the session store.
type SessionStore interface {
	Authenticate(ctx context.Context, identifier, secret string) error
	Register(ctx context.Context, email, username, secret string) error
	RefreshProfile(ctx context.Context) error
	UpdateProfile(ctx context.Context, upd session.ProfileUpdate) error
	Logout(ctx context.Context) error
	Current() domain.Session
}

type AuthHandler struct {
	sessions SessionStore
	timeout  time.Duration
}

func NewAuthHandler(sessions SessionStore, timeout time.Duration) *AuthHandler {
	return &AuthHandler{sessions: sessions, timeout: timeout}
}

type LoginRequestDTO struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type RegisterRequestDTO struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

type UpdateProfileRequestDTO struct {
	Username        string `json:"username"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	OldPassword     string `json:"old_password,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
}

type SessionResponseDTO struct {
	Authenticated bool            `json:"authenticated"`
	Profile       *domain.Profile `json:"profile,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Identifier == "" || req.Secret == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "identifier and secret are required")
		return
	}

	if err := h.sessions.Authenticate(ctx, req.Identifier, req.Secret); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.currentSession())
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Username == "" || req.Secret == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email, username and secret are required")
		return
	}

	if err := h.sessions.Register(ctx, req.Email, req.Username, req.Secret); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.currentSession())
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.sessions.Logout(ctx); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.currentSession())
}

// Profile re-fetches and returns the current profile; checkout uses it to
// pre-fill shopper contact fields.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if !h.sessions.Current().Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no active session")
		return
	}
	if err := h.sessions.RefreshProfile(ctx); err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.currentSession())
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateProfileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.sessions.UpdateProfile(ctx, session.ProfileUpdate{
		Username:        req.Username,
		Phone:           req.Phone,
		Address:         req.Address,
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.currentSession())
}

func (h *AuthHandler) currentSession() SessionResponseDTO {
	sess := h.sessions.Current()
	return SessionResponseDTO{
		Authenticated: sess.Authenticated(),
		Profile:       sess.Profile,
	}
}
