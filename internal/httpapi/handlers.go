// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

// Package httpapi exposes the authentication flows as HTTP JSON
// endpoints. Every domain failure is converted to a JSON error body
// plus status code at this boundary; nothing propagates as a panic.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kurulus/authd/internal/account"
	"github.com/kurulus/authd/internal/observability"
	"github.com/kurulus/authd/internal/session"
)

// SessionCookie is the cookie carrying the session token for browser
// clients. API clients may use an Authorization bearer header instead.
const SessionCookie = "authd_session"

// AccountService is the signup/authentication surface the handlers use.
type AccountService interface {
	Signup(ctx context.Context, name, email, password string) (*account.User, error)
	Authenticate(ctx context.Context, email, password string) (account.Identity, error)
}

// ResetFlow is the password-reset surface the handlers use.
type ResetFlow interface {
	Request(ctx context.Context, email string) error
	Resend(ctx context.Context, email string) error
	Confirm(ctx context.Context, email, code, newPassword string) error
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(identity account.Identity) (string, error)
	Verify(token string) (account.Identity, error)
}

// Handler serves the auth endpoints.
type Handler struct {
	accounts   AccountService
	resets     ResetFlow
	sessions   TokenIssuer
	sessionTTL time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewHandler creates a Handler. metrics may be nil (e.g. in tests);
// logger falls back to slog.Default.
func NewHandler(accounts AccountService, resets ResetFlow, sessions TokenIssuer, sessionTTL time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if sessionTTL <= 0 {
		sessionTTL = session.DefaultTokenTTL
	}
	return &Handler{
		accounts:   accounts,
		resets:     resets,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		metrics:    metrics,
		logger:     logger,
	}
}

// UserResponse is the client-visible account shape. The ID always
// comes from the session token's subject claim so downstream pages can
// address the account without a further lookup.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func userResponse(identity account.Identity) UserResponse {
	return UserResponse{ID: identity.ID.String(), Email: identity.Email, Name: identity.Name}
}

// SignupRequest is the signup input.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates a new account.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}

	if _, err := h.accounts.Signup(r.Context(), req.Name, req.Email, req.Password); err != nil {
		writeDomainError(w, h.logger, "signup failed", err)
		return
	}

	if h.metrics != nil {
		h.metrics.SignupsTotal.Inc()
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "user created"})
}

// LoginRequest is the login input.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed session token and the user it
// asserts.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// Login authenticates credentials and establishes a session. The token
// is returned in the body and mirrored into an HttpOnly cookie for
// browser clients.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	identity, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		writeDomainError(w, h.logger, "login failed", err)
		return
	}

	token, err := h.sessions.Issue(identity)
	if err != nil {
		writeDomainError(w, h.logger, "session issue failed", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: userResponse(identity)})
}

// Logout clears the client's session cookie. Tokens are stateless so
// there is nothing to revoke server-side.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// Me returns the account asserted by the current session token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, userResponse(identity))
}

// EmailRequest is the input for reset request and resend.
type EmailRequest struct {
	Email string `json:"email"`
}

// ForgotPassword starts the reset flow by mailing a code.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.resets.Request(r.Context(), req.Email); err != nil {
		h.recordReset("request", "failure", err)
		writeDomainError(w, h.logger, "reset request failed", err)
		return
	}

	h.recordReset("request", "success", nil)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "otp sent"})
}

// ResendCode mails a fresh code, subject to the cooldown.
func (h *Handler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.resets.Resend(r.Context(), req.Email); err != nil {
		h.recordReset("resend", "failure", err)
		writeDomainError(w, h.logger, "reset resend failed", err)
		return
	}

	h.recordReset("resend", "success", nil)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "otp resent"})
}

// ResetPasswordRequest is the confirmation input.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// ResetPasswordResponse echoes the email back so clients can log in
// immediately with the new password.
type ResetPasswordResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// ResetPassword finalizes the reset flow.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}

	if err := h.resets.Confirm(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		h.recordReset("confirm", "failure", err)
		writeDomainError(w, h.logger, "reset confirm failed", err)
		return
	}

	h.recordReset("confirm", "success", nil)
	writeJSON(w, http.StatusOK, ResetPasswordResponse{
		Message: "password reset successful",
		Email:   req.Email,
	})
}

func (h *Handler) recordReset(kind, outcome string, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.ResetRequestsTotal.WithLabelValues(kind, outcome).Inc()
	if err != nil && isDeliveryFailure(err) {
		h.metrics.MailFailuresTotal.Inc()
	}
}
