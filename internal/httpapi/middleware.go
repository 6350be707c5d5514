// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kurulus/authd/internal/account"
)

type contextKey string

const identityKey contextKey = "identity"

// identityFromContext returns the identity injected by RequireAuth.
func identityFromContext(ctx context.Context) (account.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(account.Identity)
	return identity, ok
}

// isDeliveryFailure reports whether err is a mail delivery failure.
func isDeliveryFailure(err error) bool {
	return errors.Is(err, account.ErrDeliveryFailed)
}

// RequireAuth verifies the session token from the Authorization bearer
// header or the session cookie and injects the asserted identity into
// the request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := sessionToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		identity, err := h.sessions.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionToken extracts the token from the bearer header, falling back
// to the session cookie.
func sessionToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token := strings.TrimSpace(parts[1])
			if token != "" {
				return token, true
			}
		}
		return "", false
	}

	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
