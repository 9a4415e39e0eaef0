// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers and cookie configuration.
  - Key-Value Namespacing: Prefixes for every entity and index kept in the store.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "the-wire-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "thewire.app"

	// RefreshTokenCookieName is the name of the cookie that stores the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenCookiePath is the scoped path for the refresh token cookie.
	RefreshTokenCookiePath = "/api/auth"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderOrigin        = "Origin"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Key-Value Namespaces (store key prefixes)
//
// Every key stored in the KV adapter starts with one of these prefixes,
// followed by the entity's identifier. Keeping them centralized makes the
// key-space auditable in one place instead of scattered fmt.Sprintf calls.
const (
	KeyPrefixUser       = "user:"
	KeyPrefixHandleIdx  = "handle:"
	KeyPrefixEmailIdx   = "email:"
	KeyPrefixPost       = "post:"
	KeyPrefixFeed       = "feed:"
	KeyPrefixFollowers  = "followers:"
	KeyPrefixReplies    = "replies:"
	KeyPrefixLikes      = "likes:"
	KeyPrefixFoFRanked  = "fof:ranked:"
	KeyPrefixExplore    = "explore:ranked"
	KeyPrefixResetToken = "auth:reset_token:"
	KeyPrefixVerifyTok  = "auth:verify_token:"
	KeyPrefixRefreshTok = "auth:refresh_token:"
)

// # Queue Topics

const (
	TopicFanout = "fanout.post"
)

// # Scheduling

const (
	// RankerInterval is the cron schedule the ranker runs on.
	RankerInterval = "@every 15m"

	// GCInterval is the cron schedule the hourly feed-entry garbage
	// collector (pruning old timeline entries) runs on.
	GCInterval = "@every 1h"

	// DailyGCInterval is the cron schedule the daily KV compaction pass
	// runs on, independent of the hourly feed-entry GC.
	DailyGCInterval = "0 0 * * *"
)
