// Copyright (c) 2026 The Wire. All rights reserved.

package post

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateLikeUnlikeIdempotent(t *testing.T) {
	st := NewState(Post{ID: "p1", Kind: KindOriginal})

	assert.Equal(t, 1, st.Like("u1"))
	assert.Equal(t, 1, st.Like("u1")) // liking twice does not double-count
	assert.True(t, st.HasLiked("u1"))

	assert.Equal(t, 0, st.Unlike("u1"))
	assert.False(t, st.HasLiked("u1"))
}

func TestStateRepostUnrepostIdempotent(t *testing.T) {
	st := NewState(Post{ID: "p1", Kind: KindOriginal})

	assert.Equal(t, 1, st.Repost("u1"))
	assert.Equal(t, 1, st.Repost("u1"))
	assert.True(t, st.HasReposted("u1"))

	assert.Equal(t, 0, st.Unrepost("u1"))
	assert.False(t, st.HasReposted("u1"))
}

func TestStateIncrementRepliesQuotes(t *testing.T) {
	st := NewState(Post{ID: "p1", Kind: KindOriginal})

	assert.Equal(t, 1, st.IncrementReplies())
	assert.Equal(t, 2, st.IncrementReplies())
	assert.Equal(t, 1, st.IncrementQuotes())
}

func TestStateDeleteZeroesCounters(t *testing.T) {
	st := NewState(Post{
		ID:          "p1",
		Kind:        KindOriginal,
		LikeCount:   5,
		ReplyCount:  3,
		RepostCount: 2,
		QuoteCount:  1,
	})
	st.ReplyCount = 3
	st.QuoteCount = 1

	now := time.Now()
	st.Delete(now)

	assert.True(t, st.IsDeleted)
	assert.True(t, st.Post.IsDeleted)
	if assert.NotNil(t, st.Post.DeletedAt) {
		assert.WithinDuration(t, now, *st.Post.DeletedAt, time.Second)
	}
	assert.Zero(t, st.Post.LikeCount)
	assert.Zero(t, st.Post.ReplyCount)
	assert.Zero(t, st.Post.RepostCount)
	assert.Zero(t, st.Post.QuoteCount)
	assert.Zero(t, st.ReplyCount)
	assert.Zero(t, st.QuoteCount)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	st := NewState(Post{ID: "p1", Kind: KindReply, ReplyToID: "p0", Content: "hello"})
	st.Like("u1")

	raw, err := Marshal(st)
	assert.NoError(t, err)

	restored, err := Unmarshal(raw)
	assert.NoError(t, err)
	assert.Equal(t, "p1", restored.Post.ID)
	assert.True(t, restored.HasLiked("u1"))
}

func TestEngagementScoreInput(t *testing.T) {
	now := time.Now()
	p := &Post{LikeCount: 10, ReplyCount: 2, RepostCount: 3, QuoteCount: 1, CreatedAt: now}

	likes, replies, reposts, quotes, createdAt := p.EngagementScoreInput()

	assert.Equal(t, 10, likes)
	assert.Equal(t, 2, replies)
	assert.Equal(t, 3, reposts)
	assert.Equal(t, 1, quotes)
	assert.Equal(t, now, createdAt)
}
