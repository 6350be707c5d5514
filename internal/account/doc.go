// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

// Package account provides the credential domain for authd.
//
// # Domain Types
//
// User is the persistent account record. A pending password reset is
// modeled as an optional PendingReset value attached to the User; the
// code hash and expiry are always present together or absent together.
// Use NewUser and NewPendingReset rather than direct struct literals so
// invalid state cannot be constructed.
//
// # Services
//
// Service handles signup and credential authentication. ResetService
// runs the OTP password-reset flow: request, resend with cooldown, and
// confirmation. Both are created with New*Service constructors that
// validate their dependencies.
package account
