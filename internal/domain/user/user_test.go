// Copyright (c) 2026 The Wire. All rights reserved.

package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateFollowUnfollow(t *testing.T) {
	now := time.Now()
	alice := NewState("u1", "alice", "alice@example.com", "hash", now)

	alice.Follow("u2")
	assert.True(t, alice.IsFollowing("u2"))
	assert.Equal(t, 1, alice.Profile.FollowingCount)

	// Following again is a no-op on the count.
	alice.Follow("u2")
	assert.Equal(t, 1, alice.Profile.FollowingCount)

	alice.Unfollow("u2")
	assert.False(t, alice.IsFollowing("u2"))
	assert.Equal(t, 0, alice.Profile.FollowingCount)

	// Unfollow never drops the count below zero.
	alice.Unfollow("u2")
	assert.Equal(t, 0, alice.Profile.FollowingCount)
}

func TestStateFollowSelfIsNoOp(t *testing.T) {
	alice := NewState("u1", "alice", "alice@example.com", "hash", time.Now())
	alice.Follow("u1")
	assert.False(t, alice.IsFollowing("u1"))
	assert.Equal(t, 0, alice.Profile.FollowingCount)
}

func TestStateBlockSeversFollowBothDirections(t *testing.T) {
	now := time.Now()
	alice := NewState("u1", "alice", "a@example.com", "hash", now)
	alice.Follow("u2")
	alice.AddFollower("u2")

	alice.Block("u2")

	assert.True(t, alice.IsBlocked("u2"))
	assert.False(t, alice.IsFollowing("u2"))
	assert.False(t, alice.Followers.Has("u2"))
	assert.Equal(t, 0, alice.Profile.FollowingCount)
	assert.Equal(t, 0, alice.Profile.FollowerCount)
}

func TestStateAddLikedPostMRUDedup(t *testing.T) {
	alice := NewState("u1", "alice", "a@example.com", "hash", time.Now())

	alice.AddLikedPost("p1")
	alice.AddLikedPost("p2")
	alice.AddLikedPost("p1") // re-liking does not duplicate or reorder

	assert.Equal(t, []string{"p2", "p1"}, alice.LikedPosts)

	alice.RemoveLikedPost("p1")
	assert.Equal(t, []string{"p2"}, alice.LikedPosts)
}

func TestStateSyncCountsHealsDrift(t *testing.T) {
	alice := NewState("u1", "alice", "a@example.com", "hash", time.Now())
	alice.Follow("u2")
	alice.Follow("u3")
	alice.Profile.FollowingCount = 99 // simulate drift

	alice.SyncCounts()

	assert.Equal(t, 2, alice.Profile.FollowingCount)
	assert.Equal(t, 0, alice.Profile.FollowerCount)
}

func TestStateBanUnban(t *testing.T) {
	alice := NewState("u1", "alice", "a@example.com", "hash", time.Now())
	now := time.Now()

	alice.Ban("spam", now)
	assert.True(t, alice.Profile.IsBanned)
	assert.Equal(t, "spam", alice.Profile.BannedReason)
	if assert.NotNil(t, alice.Profile.BannedAt) {
		assert.WithinDuration(t, now, *alice.Profile.BannedAt, time.Second)
	}

	alice.Unban()
	assert.False(t, alice.Profile.IsBanned)
	assert.Empty(t, alice.Profile.BannedReason)
	assert.Nil(t, alice.Profile.BannedAt)
}

func TestNormalizeMutedWords(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	words := []MutedWord{
		{Word: "  Spoiler  ", Scope: ScopeAll},
		{Word: "spoiler", Scope: ScopeAll}, // duplicate after fold/trim
		{Word: "old", Scope: ScopeAll, ExpiresAt: &expired},
		{Word: "fresh", Scope: ScopeNotFollowing, ExpiresAt: &future},
		{Word: "", Scope: ScopeAll},
	}

	out := NormalizeMutedWords(words, now)

	assert.Len(t, out, 2)
	assert.Equal(t, "spoiler", out[0].Word)
	assert.Equal(t, "fresh", out[1].Word)
}

func TestNormalizeMutedWordsCapsAtMax(t *testing.T) {
	now := time.Now()
	var words []MutedWord
	for i := 0; i < MaxMutedWords+10; i++ {
		words = append(words, MutedWord{Word: string(rune('a' + i%26)) + string(rune(i)), Scope: ScopeAll})
	}

	out := NormalizeMutedWords(words, now)
	assert.LessOrEqual(t, len(out), MaxMutedWords)
}

func TestStateToContext(t *testing.T) {
	now := time.Now()
	alice := NewState("u1", "alice", "a@example.com", "hash", now)
	alice.Follow("u2")
	alice.Block("u3")
	alice.Settings.MutedWords = []MutedWord{{Word: "spam", Scope: ScopeAll}}

	ctx := alice.ToContext()

	assert.Equal(t, []string{"u2"}, ctx.Following)
	assert.Equal(t, []string{"u3"}, ctx.Blocked)
	assert.Equal(t, []MutedWord{{Word: "spam", Scope: ScopeAll}}, ctx.MutedWords)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	alice := NewState("u1", "alice", "a@example.com", "hash", time.Now())
	alice.Follow("u2")

	raw, err := Marshal(alice)
	assert.NoError(t, err)

	restored, err := Unmarshal(raw)
	assert.NoError(t, err)
	assert.Equal(t, alice.ID, restored.ID)
	assert.True(t, restored.IsFollowing("u2"))
}
