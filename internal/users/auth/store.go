// Copyright (c) 2026 The Wire. All rights reserved.

package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chrischabot/the-wire/internal/platform/apperr"
	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/kv"
)

// sessionIndexKey is the sorted set of a user's live refresh-token hashes,
// scored by creation time — the enumeration path RevokeAll/RevokeOthers
// need, since the KV store has no "list keys by owner" primitive beyond a
// prefix scan.
func sessionIndexKey(userID string) string {
	return "auth:sessions:" + userID
}

func sessionKey(tokenHash string) string {
	return constants.KeyPrefixRefreshTok + tokenHash
}

// sessionStore wraps [kv.Store] with the session/token operations Service
// needs. It carries no business rules of its own — just key shapes.
type sessionStore struct {
	store kv.Store
}

func newSessionStore(store kv.Store) *sessionStore {
	return &sessionStore{store: store}
}

func (s *sessionStore) create(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := time.Until(sess.ExpiresAt)
	if err := s.store.Put(ctx, sessionKey(sess.TokenHash), raw, ttl); err != nil {
		return err
	}
	return s.store.ZAdd(ctx, sessionIndexKey(sess.UserID), float64(sess.CreatedAt.Unix()), sess.TokenHash)
}

func (s *sessionStore) findByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	raw, found, err := s.store.Get(ctx, sessionKey(tokenHash))
	if err != nil {
		return nil, apperr.Transient(err)
	}
	if !found {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	sess := &Session{}
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, apperr.Internal(err)
	}
	sess.TokenHash = tokenHash
	return sess, nil
}

// revoke deletes one session. Deleting an absent session is not an error —
// logout/refresh-rotation both call this on tokens that may already be gone.
func (s *sessionStore) revoke(ctx context.Context, sess *Session) error {
	if err := s.store.Delete(ctx, sessionKey(sess.TokenHash)); err != nil {
		return err
	}
	return s.store.ZRem(ctx, sessionIndexKey(sess.UserID), sess.TokenHash)
}

// revokeAll deletes every live session for userID, e.g. after a password
// reset.
func (s *sessionStore) revokeAll(ctx context.Context, userID string) error {
	members, err := s.store.ZRevRange(ctx, sessionIndexKey(userID), 0, -1)
	if err != nil {
		return err
	}
	for _, m := range members {
		_ = s.store.Delete(ctx, sessionKey(m.Member))
		_ = s.store.ZRem(ctx, sessionIndexKey(userID), m.Member)
	}
	return nil
}

// revokeOthers deletes every live session for userID except keepTokenHash,
// e.g. after a voluntary password change from the current device.
func (s *sessionStore) revokeOthers(ctx context.Context, userID, keepTokenHash string) error {
	members, err := s.store.ZRevRange(ctx, sessionIndexKey(userID), 0, -1)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.Member == keepTokenHash {
			continue
		}
		_ = s.store.Delete(ctx, sessionKey(m.Member))
		_ = s.store.ZRem(ctx, sessionIndexKey(userID), m.Member)
	}
	return nil
}

// # One-shot tokens (password reset / email verification)
//
// Both are "token -> userID" with a TTL; the KV key prefix is the only
// difference, so one generic helper backs RequestPasswordReset/VerifyEmail
// instead of two near-identical repository types.

func putOneShotToken(ctx context.Context, store kv.Store, prefix, token, userID string, ttl time.Duration) error {
	return store.Put(ctx, prefix+token, []byte(userID), ttl)
}

func getOneShotToken(ctx context.Context, store kv.Store, prefix, token, notFoundMsg string) (string, error) {
	raw, found, err := store.Get(ctx, prefix+token)
	if err != nil {
		return "", apperr.Transient(err)
	}
	if !found {
		return "", apperr.Unauthorized(notFoundMsg)
	}
	return string(raw), nil
}

func deleteOneShotToken(ctx context.Context, store kv.Store, prefix, token string) error {
	return store.Delete(ctx, prefix+token)
}
