// Copyright (c) 2026 The Wire. All rights reserved.

package sec

// # Account Standing
//
// The Wire has no role hierarchy — every account is either an ordinary
// member, an admin, or banned. Admin and banned are independent booleans
// rather than points on a ladder: a banned admin is still banned.

// IsPrivileged reports whether claims carry the admin flag.
func (c *AuthClaims) IsPrivileged() bool {
	return c.Admin
}

// IsSuspended reports whether claims carry the banned flag. A banned
// account's token is still cryptographically valid until it expires, and
// the flag reflects the account at token issue time; callers that must
// react to a ban synchronously (postsvc.Service.Create, e.g.) re-check the
// live user record rather than trusting this flag.
func (c *AuthClaims) IsSuspended() bool {
	return c.Banned
}
