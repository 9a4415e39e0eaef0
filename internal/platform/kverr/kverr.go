// Copyright (c) 2026 The Wire. All rights reserved.

// Package kverr provides a bridge between low-level key-value store errors
// and higher-level application errors.
package kverr

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/chrischabot/the-wire/internal/platform/apperr"
)

// ErrNotFound is a standard error returned when a queried key doesn't exist.
var ErrNotFound = apperr.NotFound("Resource")

// Wrap inspects a key-value store error and wraps it into a meaningful
// [apperr.AppError]. It hides internal store details from the client while
// classifying the error type.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping — a missing key is the KV-store equivalent of
	// sql.ErrNoRows / pgx.ErrNoRows.
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}

	// 2. Anything else (connection refused, timeout, pool exhausted) is a
	// transient infrastructure failure: the request itself was fine, the
	// store just didn't answer. Callers that can safely retry (actor
	// persistence, fan-out delivery) check for this with [apperr.As].
	return apperr.Transient(err)
}
