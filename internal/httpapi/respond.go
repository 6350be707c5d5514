// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kurulus/authd/internal/account"
	"github.com/kurulus/authd/internal/session"
	"github.com/kurulus/authd/pkg/errutil"
)

// ErrorResponse is the JSON body for every failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the JSON body for message-only successes.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps the failure taxonomy to a status code and a
// client-safe message. Everything unmatched is a 500 with a generic
// body; internals are logged, never sent to the client.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "missing or invalid fields")
	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, session.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, account.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, account.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "user already exists")
	case errors.Is(err, account.ErrCodeInvalidOrExpired):
		writeError(w, http.StatusBadRequest, "invalid or expired code")
	case errors.Is(err, account.ErrResendCooldown):
		writeError(w, http.StatusTooManyRequests, "please wait before resending")
	case errors.Is(err, account.ErrDeliveryFailed):
		errutil.LogError(logger, op, err)
		writeError(w, http.StatusInternalServerError, "failed to send email")
	default:
		errutil.LogError(logger, op, err)
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}
