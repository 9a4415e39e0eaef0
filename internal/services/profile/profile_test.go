// Copyright (c) 2026 The Wire. All rights reserved.

package profile

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

func newTestService(t *testing.T) (*Service, *user.Actor, *kvtest.Store) {
	t.Helper()
	store := kvtest.New()
	host := actor.NewHost(store)
	users := user.NewActor(host)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{MaxPaginationLimit: 50, DefaultFeedPageSize: 20}
	return New(users, store, cfg, logger), users, store
}

// mustRegister creates a UserActor and claims its handle index, mirroring
// what auth.Service.Register does on signup — profile.Service never writes
// that index itself, only reads it via resolveHandle.
func mustRegister(t *testing.T, users *user.Actor, store *kvtest.Store, id, handle string) {
	t.Helper()
	st := user.NewState(id, handle, handle+"@example.com", "hash", time.Now())
	require.NoError(t, users.Initialize(context.Background(), id, st))
	require.NoError(t, store.Put(context.Background(), handleIndexKey(handle), []byte(id), 0))
}

func TestGetMeIncludesEmailAndSettings(t *testing.T) {
	svc, users, store := newTestService(t)
	ctx := context.Background()
	mustRegister(t, users, store, "u1", "alice")

	me, err := svc.GetMe(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, "alice", me.Handle)
}

func TestGetByHandleReportsFollowAndBlockState(t *testing.T) {
	svc, users, store := newTestService(t)
	ctx := context.Background()
	mustRegister(t, users, store, "u1", "alice")
	mustRegister(t, users, store, "u2", "bob")

	require.NoError(t, svc.Follow(ctx, "u2", "alice"))

	view, err := svc.GetByHandle(ctx, "alice", "u2")
	require.NoError(t, err)
	require.NotNil(t, view.IsFollowing)
	assert.True(t, *view.IsFollowing)
	require.NotNil(t, view.IsBlocked)
	assert.False(t, *view.IsBlocked)
}

func TestGetByHandleUnknownReturnsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.GetByHandle(context.Background(), "ghost", "")
	assert.True(t, apperr.IsAppError(err))
}

func TestUpdateProfilePartialUpdateLeavesOtherFieldsUntouched(t *testing.T) {
	svc, users, store := newTestService(t)
	ctx := context.Background()
	mustRegister(t, users, store, "u1", "alice")

	bio := "hello there"
	_, err := svc.UpdateProfile(ctx, "u1", UpdateProfileInput{Bio: &bio})
	require.NoError(t, err)

	display := "Alice A."
	me, err := svc.UpdateProfile(ctx, "u1", UpdateProfileInput{DisplayName: &display})
	require.NoError(t, err)

	assert.Equal(t, "Alice A.", me.DisplayName)
	assert.Equal(t, "hello there", me.Bio) // untouched by the second partial update
}

func TestUpdateSettingsRejectsTooManyMutedWords(t *testing.T) {
	svc, users, store := newTestService(t)
	ctx := context.Background()
	mustRegister(t, users, store, "u1", "alice")

	words := make([]user.MutedWord, user.MaxMutedWords+1)
	for i := range words {
		words[i] = user.MutedWord{Word: "w", Scope: user.ScopeAll}
	}

	_, err := svc.UpdateSettings(ctx, "u1", UpdateSettingsInput{MutedWords: words})
	assert.True(t, apperr.IsAppError(err))
}

func TestFollowRejectsSelf(t *testing.T) {
	svc, users, store := newTestService(t)
	ctx := context.Background()
	mustRegister(t, users, store, "u1", "alice")

	err := svc.Follow(ctx, "u1", "alice")
	assert.True(t, apperr.IsAppError(err))
}

func TestFollowRejectedWhenTargetHasBlockedFollower(t *testing.T) {
	svc, users, store := newTestService(t)
	ctx := context.Background()
	mustRegister(t, users, store, "u1", "alice")
	mustRegister(t, users, store, "u2", "bob")

	require.NoError(t, svc.Block(ctx, "u1", "bob"))

	err := svc.Follow(ctx, "u2", "alice")
	assert.True(t, apperr.IsAppError(err))
}

func TestBlockSeversExistingFollowBothDirections(t *testing.T) {
	svc, users, store := newTestService(t)
	ctx := context.Background()
	mustRegister(t, users, store, "u1", "alice")
	mustRegister(t, users, store, "u2", "bob")

	require.NoError(t, svc.Follow(ctx, "u1", "bob"))
	require.NoError(t, svc.Follow(ctx, "u2", "alice"))

	require.NoError(t, svc.Block(ctx, "u1", "bob"))

	following, err := users.IsFollowing(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, following)

	reverseFollowing, err := users.IsFollowing(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.False(t, reverseFollowing)
}

func TestFollowersFollowingPagination(t *testing.T) {
	svc, users, store := newTestService(t)
	ctx := context.Background()
	mustRegister(t, users, store, "target", "alice")
	for i := 0; i < 3; i++ {
		id := string(rune('a' + i))
		mustRegister(t, users, store, id, id)
		require.NoError(t, svc.Follow(ctx, id, "alice"))
	}

	page, err := svc.Followers(ctx, "alice", 0, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := svc.Followers(ctx, "alice", 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestBlockedListsOnlyOwnBlocks(t *testing.T) {
	svc, users, store := newTestService(t)
	ctx := context.Background()
	mustRegister(t, users, store, "u1", "alice")
	mustRegister(t, users, store, "u2", "bob")

	require.NoError(t, svc.Block(ctx, "u1", "bob"))

	blocked, err := svc.Blocked(ctx, "u1", 0, 10)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, "bob", blocked[0].Handle)
}
