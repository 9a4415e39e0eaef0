// Copyright (c) 2026 The Wire. All rights reserved.

package postsvc

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrischabot/the-wire/internal/actor"
	"github.com/chrischabot/the-wire/internal/domain/feed"
	"github.com/chrischabot/the-wire/internal/domain/post"
	"github.com/chrischabot/the-wire/internal/domain/user"
	"github.com/chrischabot/the-wire/internal/platform/apperr"
	"github.com/chrischabot/the-wire/internal/platform/config"
	"github.com/chrischabot/the-wire/internal/platform/external"
	"github.com/chrischabot/the-wire/internal/platform/kv/kvtest"
	"github.com/chrischabot/the-wire/internal/platform/mq"
)

// fakeQueue records every enqueued fan-out message without delivering it —
// postsvc's own write path never depends on a message actually draining.
type fakeQueue struct {
	sent [][]byte
}

func (q *fakeQueue) Send(_ context.Context, payload []byte) error {
	q.sent = append(q.sent, payload)
	return nil
}

func (q *fakeQueue) Consume(_ context.Context, _ int, _ func([]mq.Message) error) error {
	<-context.Background().Done()
	return nil
}

func newTestService(t *testing.T) (*Service, *user.Actor) {
	t.Helper()
	store := kvtest.New()
	host := actor.NewHost(store)
	users := user.NewActor(host)
	posts := post.NewActor(host)
	feeds := feed.NewActor(host)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		MaxNoteLength:  280,
		MaxThreadDepth: 10,
	}

	svc := New(posts, users, feeds, store, &fakeQueue{}, &external.LoggingSearchIndexer{Logger: logger}, &external.LoggingNotifier{Logger: logger}, cfg, logger)
	return svc, users
}

func mustCreateUser(t *testing.T, users *user.Actor, id, handle string) {
	t.Helper()
	st := user.NewState(id, handle, handle+"@example.com", "hash", time.Now())
	require.NoError(t, users.Initialize(context.Background(), id, st))
}

func TestCreateOriginalPost(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	mustCreateUser(t, users, "u1", "alice")

	p, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "hello world"})
	require.NoError(t, err)
	assert.Equal(t, post.KindOriginal, p.Kind)
	assert.Equal(t, "alice", p.AuthorHandle)

	author, err := users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, author.Profile.PostCount)
}

func TestCreateRejectsEmptyContent(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	mustCreateUser(t, users, "u1", "alice")

	_, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: ""})
	assert.True(t, apperr.IsAppError(err))
}

func TestCreateRejectsReplyAndQuoteTogether(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	mustCreateUser(t, users, "u1", "alice")

	root, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "root"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "bad", ReplyToID: root.ID, QuoteOfID: root.ID})
	assert.Error(t, err)
}

func TestCreateRejectsBannedAuthor(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	mustCreateUser(t, users, "u1", "alice")
	require.NoError(t, users.Ban(ctx, "u1", "spam"))

	_, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "hi"})
	assert.True(t, apperr.IsAppError(err))
}

func TestReplyIncrementsParentReplyCountAndThreadIndex(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	mustCreateUser(t, users, "u1", "alice")

	root, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "root"})
	require.NoError(t, err)

	reply, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "a reply", ReplyToID: root.ID})
	require.NoError(t, err)
	assert.Equal(t, post.KindReply, reply.Kind)

	updatedRoot, err := svc.Get(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updatedRoot.ReplyCount)

	replies, err := svc.Replies(ctx, root.ID, 10)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, reply.ID, replies[0].ID)
}

func TestThreadWalksAncestorsOldestFirst(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	mustCreateUser(t, users, "u1", "alice")

	root, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "root"})
	require.NoError(t, err)
	mid, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "mid", ReplyToID: root.ID})
	require.NoError(t, err)
	leaf, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "leaf", ReplyToID: mid.ID})
	require.NoError(t, err)

	thread, err := svc.Thread(ctx, leaf.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, root.ID, thread[0].ID)
	assert.Equal(t, mid.ID, thread[1].ID)
	assert.Equal(t, leaf.ID, thread[2].ID)
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	mustCreateUser(t, users, "u1", "alice")
	mustCreateUser(t, users, "u2", "bob")

	p, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "hello"})
	require.NoError(t, err)

	liked, err := svc.Like(ctx, "u2", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)

	bob, err := users.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Contains(t, bob.LikedPosts, p.ID)

	unliked, err := svc.Unlike(ctx, "u2", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.LikeCount)
}

func TestDeleteRequiresAuthorOrAdmin(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	mustCreateUser(t, users, "u1", "alice")
	mustCreateUser(t, users, "u2", "bob")

	p, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "hello"})
	require.NoError(t, err)

	err = svc.Delete(ctx, "u2", p.ID, false)
	assert.True(t, apperr.IsAppError(err))

	err = svc.Delete(ctx, "u2", p.ID, true) // admin override
	assert.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}

func TestRepostRejectsDuplicate(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()
	mustCreateUser(t, users, "u1", "alice")
	mustCreateUser(t, users, "u2", "bob")

	p, err := svc.Create(ctx, CreateInput{AuthorID: "u1", Content: "hello"})
	require.NoError(t, err)

	_, err = svc.Repost(ctx, "u2", p.ID)
	require.NoError(t, err)

	_, err = svc.Repost(ctx, "u2", p.ID)
	assert.True(t, apperr.IsAppError(err))
}
