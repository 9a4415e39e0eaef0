// Copyright (c) 2026 The Wire. All rights reserved.

package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrischabot/the-wire/internal/actor"
	"github.com/chrischabot/the-wire/internal/domain/user"
	"github.com/chrischabot/the-wire/internal/platform/apperr"
	"github.com/chrischabot/the-wire/internal/platform/config"
	"github.com/chrischabot/the-wire/internal/platform/kv/kvtest"
)

type fakeTokens struct{}

func (fakeTokens) GenerateAccessToken(userID, handle string, admin, banned bool, ttl time.Duration) (string, error) {
	return "token-for-" + userID, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := kvtest.New()
	host := actor.NewHost(store)
	users := user.NewActor(host)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{AccessTokenTTL: 24}
	return NewService(users, store, fakeTokens{}, cfg, logger)
}

func TestRegisterThenLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	acc, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Password: "hunter22", DisplayName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.Handle)

	sess, err := svc.Login(ctx, LoginInput{Login: "alice", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, acc.ID, sess.Account.ID)
}

func TestRegisterRejectsDuplicateHandle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "a1@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Handle: "alice", Email: "a2@example.com", Password: "hunter22"})
	assert.True(t, apperr.IsAppError(err))
}

func TestRegisterRejectsReservedHandle(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterInput{Handle: "admin", Email: "x@example.com", Password: "hunter22"})
	assert.True(t, apperr.IsAppError(err))
}

func TestLoginByEmailWorksToo(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	sess, err := svc.Login(ctx, LoginInput{Login: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Login: "alice", Password: "wrong"})
	assert.True(t, apperr.IsAppError(err))
}

func TestLoginRejectsBannedAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	acc, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	require.NoError(t, svc.users.Ban(ctx, acc.ID, "spam"))

	_, err = svc.Login(ctx, LoginInput{Login: "alice", Password: "hunter22"})
	assert.True(t, apperr.IsAppError(err))
}

func TestRefreshSessionRotatesToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	sess, err := svc.Login(ctx, LoginInput{Login: "alice", Password: "hunter22"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshSession(ctx, sess.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, refreshed.RefreshToken)

	// The original token is revoked on first use — presenting it again fails.
	_, err = svc.RefreshSession(ctx, sess.RefreshToken, "", "")
	assert.True(t, apperr.IsAppError(err))
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	sess, err := svc.Login(ctx, LoginInput{Login: "alice", Password: "hunter22"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.RefreshToken))
	require.NoError(t, svc.Logout(ctx, sess.RefreshToken)) // second call: no-op, not an error
}

func TestResetPasswordFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))

	// The token itself isn't exposed by RequestPasswordReset (it is mailed
	// out-of-band); exercise ResetPassword's rejection path directly.
	err = svc.ResetPassword(ctx, "not-a-real-token", "newpassword1")
	assert.True(t, apperr.IsAppError(err))
}

func TestRequestPasswordResetSwallowsUnknownEmail(t *testing.T) {
	svc := newTestService(t)
	assert.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@example.com"))
}

func TestChangePasswordRequiresCurrentPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	acc, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, acc.ID, "wrongpassword", "newpassword1", "")
	assert.True(t, apperr.IsAppError(err))

	err = svc.ChangePassword(ctx, acc.ID, "hunter22", "newpassword1", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Login: "alice", Password: "newpassword1"})
	require.NoError(t, err)
}

func TestAutoFollowSeedsFollowsExistingSeedAccounts(t *testing.T) {
	store := kvtest.New()
	host := actor.NewHost(store)
	users := user.NewActor(host)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{AccessTokenTTL: 24, AutoFollowSeedsRaw: "seed"}
	svc := NewService(users, store, fakeTokens{}, cfg, logger)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Handle: "seed", Email: "seed@example.com", Password: "hunter22"})
	require.NoError(t, err)

	acc, err := svc.Register(ctx, RegisterInput{Handle: "alice", Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	seedID, err := svc.resolveLogin(ctx, "seed")
	require.NoError(t, err)

	following, err := users.IsFollowing(ctx, acc.ID, seedID)
	require.NoError(t, err)
	assert.True(t, following)
}
