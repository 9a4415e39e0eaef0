// Copyright (c) 2026 The Wire. All rights reserved.

package auth

import "time"

// # Authentication Constraints

const (
	// RefreshTokenTTL is the duration a session/refresh token remains valid.
	// Long-lived (30 days) to provide a good user experience.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random secure token.
	RefreshTokenLength = 32

	// ResetTokenTTL is the duration a password reset token remains valid,
	// per spec.md §3's reset-token:{token} TTL.
	ResetTokenTTL = 15 * time.Minute

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// VerificationTokenTTL is the duration an email verification token
	// remains valid.
	VerificationTokenTTL = 24 * time.Hour

	// VerificationTokenLength is the byte length of the random verification token.
	VerificationTokenLength = 32
)

// # Handle Constraints

const (
	// MinHandleLength/MaxHandleLength bound handle length, per spec.md §3.
	MinHandleLength = 3
	MaxHandleLength = 15
)

// reservedHandles can never be claimed at signup.
var reservedHandles = map[string]struct{}{
	"admin": {}, "administrator": {}, "root": {}, "support": {}, "help": {},
	"api": {}, "www": {}, "thewire": {}, "system": {}, "moderator": {}, "null": {},
}
