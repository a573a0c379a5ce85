package handlers

import (
	"net/http"

	"portfolio_tracker/internal/auth"
	"portfolio_tracker/internal/errors"
	"portfolio_tracker/internal/middleware"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	authenticator *auth.Authenticator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authenticator *auth.Authenticator) *AuthHandler {
	return &AuthHandler{authenticator: authenticator}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Register creates a new account and opens a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if !middleware.ValidateEmail(req.Email) {
		respondError(w, errors.ValidationField("email", errors.CodeInvalidFormat, "a valid email is required"))
		return
	}

	user, session, err := h.authenticator.Register(req.Email, req.Password, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}

	middleware.SetSessionCookie(w, session.ID, int(auth.DefaultSessionDuration.Seconds()))
	respondJSON(w, http.StatusCreated, map[string]any{
		"user":    user,
		"session": map[string]any{"id": session.ID, "expires_at": session.ExpiresAt},
	})
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, session, err := h.authenticator.Login(req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	middleware.SetSessionCookie(w, session.ID, int(auth.DefaultSessionDuration.Seconds()))
	respondJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"session": map[string]any{"id": session.ID, "expires_at": session.ExpiresAt},
	})
}

// Logout ends the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		h.authenticator.Logout(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		respondError(w, errors.Unauthorized("authentication required"))
		return
	}
	respondJSON(w, http.StatusOK, user)
}
