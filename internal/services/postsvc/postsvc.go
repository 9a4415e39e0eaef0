// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package postsvc implements the Post service (Component G): the only writer
of post:{id} KV records and the sole producer onto the fan-out queue.

It orchestrates across three actors and two adapters per operation — e.g.
Create touches PostActor (init), UserActor (profile read, post count),
FeedActor (own-feed entry), the KV store
(user-posts index), and the queue (fan-out enqueue) — but never holds more
than one actor's lock at a time, matching the Entity Actor runtime's
no-cross-actor-transaction model (spec.md §5): a failure partway through is
tolerated because every index is reconstructable from actor state.
*/
package postsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chrischabot/the-wire/internal/domain/feed"
	"github.com/chrischabot/the-wire/internal/domain/post"
	"github.com/chrischabot/the-wire/internal/domain/user"
	"github.com/chrischabot/the-wire/internal/platform/apperr"
	"github.com/chrischabot/the-wire/internal/platform/config"
	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/external"
	"github.com/chrischabot/the-wire/internal/platform/kv"
	"github.com/chrischabot/the-wire/internal/platform/kverr"
	"github.com/chrischabot/the-wire/internal/platform/mq"
	"github.com/chrischabot/the-wire/internal/platform/validate"
	"github.com/chrischabot/the-wire/pkg/uuid"
)

// maxUserPostsIndex caps the user-posts:{authorId} index, per spec.md §3.
const maxUserPostsIndex = 1000

// FanoutMessage is the payload enqueued onto constants.TopicFanout; the
// fan-out worker decodes it and pushes a FeedActor entry to each follower.
type FanoutMessage struct {
	PostID    string      `json:"postId"`
	AuthorID  string      `json:"authorId"`
	CreatedAt time.Time   `json:"createdAt"`
	Source    feed.Source `json:"source"`
}

// Service is the Post service. All fields are required collaborators; there
// is no default for any of them.
type Service struct {
	posts *post.Actor
	users *user.Actor
	feeds *feed.Actor
	store kv.Store
	queue mq.Queue

	indexer  external.SearchIndexer
	notifier external.Notifier

	cfg    *config.Config
	logger *slog.Logger
}

// New constructs a Service from its collaborators.
func New(posts *post.Actor, users *user.Actor, feeds *feed.Actor, store kv.Store, queue mq.Queue, indexer external.SearchIndexer, notifier external.Notifier, cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		posts:    posts,
		users:    users,
		feeds:    feeds,
		store:    store,
		queue:    queue,
		indexer:  indexer,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// CreateInput carries the fields a caller supplies for an original post or
// a reply or a quote. Exactly one of ReplyToID/QuoteOfID may be set; if
// both are empty the result is an original post.
type CreateInput struct {
	AuthorID  string
	Content   string
	MediaURLs []string
	ReplyToID string
	QuoteOfID string
}

// Create validates input, mints a new post, and performs every write-path
// step described in spec.md §4.G: PostActor init, KV user-posts index,
// own-feed entry, author post-count increment, search indexing, mention
// notification, and fan-out enqueue. It returns the newly created post.
func (s *Service) Create(ctx context.Context, in CreateInput) (*post.Post, error) {
	v := &validate.Validator{}
	v.Required("content", in.Content).MaxLen("content", in.Content, s.cfg.MaxNoteLength)
	if in.ReplyToID != "" && in.QuoteOfID != "" {
		v.Custom("content", true, "a post cannot be both a reply and a quote")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	author, err := s.users.Get(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}
	if author.Profile.IsBanned {
		return nil, apperr.Forbidden("Account is banned")
	}

	kind := post.KindOriginal
	switch {
	case in.ReplyToID != "":
		kind = post.KindReply
		if _, err := s.posts.Get(ctx, in.ReplyToID); err != nil {
			return nil, err
		}
	case in.QuoteOfID != "":
		kind = post.KindQuote
		if _, err := s.posts.Get(ctx, in.QuoteOfID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	p := post.Post{
		ID:                uuid.New(),
		AuthorID:          author.ID,
		AuthorHandle:      author.Handle,
		AuthorDisplayName: author.Profile.DisplayName,
		AuthorAvatarURL:   author.Profile.AvatarURL,
		Kind:              kind,
		Content:           in.Content,
		MediaURLs:         in.MediaURLs,
		ReplyToID:         in.ReplyToID,
		QuoteOfID:         in.QuoteOfID,
		CreatedAt:         now,
	}

	if err := s.posts.Initialize(ctx, p.ID, post.NewState(p)); err != nil {
		return nil, err
	}

	if err := s.appendUserPostsIndex(ctx, author.ID, p.ID, now); err != nil {
		s.logger.ErrorContext(ctx, "user_posts_index_append_failed", slog.String("post_id", p.ID), slog.Any("err", err))
	}

	if in.ReplyToID != "" {
		if _, err := s.posts.IncrementReplies(ctx, in.ReplyToID); err != nil {
			s.logger.ErrorContext(ctx, "reply_count_increment_failed", slog.String("parent_id", in.ReplyToID), slog.Any("err", err))
		}
		if err := s.appendRepliesIndex(ctx, in.ReplyToID, p.ID, now); err != nil {
			s.logger.ErrorContext(ctx, "replies_index_append_failed", slog.String("parent_id", in.ReplyToID), slog.Any("err", err))
		}
	}
	if in.QuoteOfID != "" {
		if _, err := s.posts.IncrementQuotes(ctx, in.QuoteOfID); err != nil {
			s.logger.ErrorContext(ctx, "quote_count_increment_failed", slog.String("quoted_id", in.QuoteOfID), slog.Any("err", err))
		}
	}

	if err := s.users.IncrementPostCount(ctx, author.ID); err != nil {
		s.logger.ErrorContext(ctx, "post_count_increment_failed", slog.String("user_id", author.ID), slog.Any("err", err))
	}

	if err := s.feeds.AddEntry(ctx, author.ID, feed.Entry{PostID: p.ID, AuthorID: author.ID, Timestamp: now, Source: feed.SourceOwn}); err != nil {
		s.logger.ErrorContext(ctx, "own_feed_entry_failed", slog.String("post_id", p.ID), slog.Any("err", err))
	}

	if err := s.indexer.IndexPost(ctx, p.ID, p.Content); err != nil {
		s.logger.WarnContext(ctx, "search_index_failed", slog.String("post_id", p.ID), slog.Any("err", err))
	}
	s.notifyMentions(ctx, p)
	if in.ReplyToID != "" {
		if parent, err := s.posts.Get(ctx, in.ReplyToID); err == nil {
			s.notifier.NotifyReply(ctx, parent.Post.AuthorID, p.ID)
		}
	}
	if in.QuoteOfID != "" {
		if quoted, err := s.posts.Get(ctx, in.QuoteOfID); err == nil {
			s.notifier.NotifyQuote(ctx, quoted.Post.AuthorID, p.ID)
		}
	}

	if err := s.enqueueFanout(ctx, p.ID, author.ID, now, feed.SourceFollow); err != nil {
		// Non-idempotent step already committed (the post exists and is
		// visible on its author's own feed); a failed enqueue only means
		// followers won't see it promptly, not that the create failed.
		s.logger.ErrorContext(ctx, "fanout_enqueue_failed", slog.String("post_id", p.ID), slog.Any("err", err))
	}

	return &p, nil
}

// Repost creates a repost record carrying a denormalised [post.OriginalSnapshot]
// of the target post and registers the repost against PostActor's
// repostedBy set, failing with 409 on a duplicate (spec.md S4).
func (s *Service) Repost(ctx context.Context, userID, postID string) (*post.Post, error) {
	original, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if original.Post.IsDeleted || original.Post.IsTakenDown {
		return nil, apperr.NotFound("Post")
	}
	if original.HasReposted(userID) {
		return nil, apperr.Conflict("Already reposted")
	}

	blocked, err := s.users.IsBlocked(ctx, original.Post.AuthorID, userID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperr.Forbidden("This account has blocked you")
	}

	author, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := post.Post{
		ID:                uuid.New(),
		AuthorID:          author.ID,
		AuthorHandle:      author.Handle,
		AuthorDisplayName: author.Profile.DisplayName,
		AuthorAvatarURL:   author.Profile.AvatarURL,
		Kind:              post.KindRepost,
		RepostOfID:        postID,
		Original: &post.OriginalSnapshot{
			PostID:            original.Post.ID,
			AuthorID:          original.Post.AuthorID,
			AuthorHandle:      original.Post.AuthorHandle,
			AuthorDisplayName: original.Post.AuthorDisplayName,
			AuthorAvatarURL:   original.Post.AuthorAvatarURL,
			Content:           original.Post.Content,
			MediaURLs:         original.Post.MediaURLs,
			CreatedAt:         original.Post.CreatedAt,
		},
		CreatedAt: now,
	}

	// Repost() on the original must come before Initialize so a concurrent
	// double-repost observes the conflict on the original's set rather than
	// racing two independent post creations.
	if _, err := s.posts.Repost(ctx, postID, userID); err != nil {
		return nil, err
	}

	if err := s.posts.Initialize(ctx, p.ID, post.NewState(p)); err != nil {
		return nil, err
	}

	if err := s.appendUserPostsIndex(ctx, author.ID, p.ID, now); err != nil {
		s.logger.ErrorContext(ctx, "user_posts_index_append_failed", slog.String("post_id", p.ID), slog.Any("err", err))
	}
	if err := s.users.IncrementPostCount(ctx, author.ID); err != nil {
		s.logger.ErrorContext(ctx, "post_count_increment_failed", slog.String("user_id", author.ID), slog.Any("err", err))
	}
	if err := s.feeds.AddEntry(ctx, author.ID, feed.Entry{PostID: p.ID, AuthorID: author.ID, Timestamp: now, Source: feed.SourceOwn}); err != nil {
		s.logger.ErrorContext(ctx, "own_feed_entry_failed", slog.String("post_id", p.ID), slog.Any("err", err))
	}
	s.notifier.NotifyRepost(ctx, original.Post.AuthorID, p.ID)

	if err := s.enqueueFanout(ctx, p.ID, author.ID, now, feed.SourceFollow); err != nil {
		s.logger.ErrorContext(ctx, "fanout_enqueue_failed", slog.String("post_id", p.ID), slog.Any("err", err))
	}

	return &p, nil
}

// Unrepost withdraws userID's repost of postID, a no-op if none exists.
func (s *Service) Unrepost(ctx context.Context, userID, postID string) error {
	_, err := s.posts.Unrepost(ctx, postID, userID)
	return err
}

// Like registers a like from userID on postID (PostActor stores the
// authoritative count in the post's record) and returns the updated post.
// Idempotent: liking twice returns the same count.
func (s *Service) Like(ctx context.Context, userID, postID string) (*post.Post, error) {
	count, err := s.posts.Like(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.AddLikedPost(ctx, userID, postID); err != nil {
		s.logger.ErrorContext(ctx, "liked_post_index_failed", slog.String("user_id", userID), slog.Any("err", err))
	}
	return s.writeBackLikeCount(ctx, postID, count)
}

// Unlike withdraws userID's like on postID.
func (s *Service) Unlike(ctx context.Context, userID, postID string) (*post.Post, error) {
	count, err := s.posts.Unlike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.RemoveLikedPost(ctx, userID, postID); err != nil {
		s.logger.ErrorContext(ctx, "liked_post_index_failed", slog.String("user_id", userID), slog.Any("err", err))
	}
	return s.writeBackLikeCount(ctx, postID, count)
}

// writeBackLikeCount re-fetches the authoritative post state (PostActor
// serializes the Like/Unlike with every other mutation on that post, so the
// Like/Unlike result and a subsequent Get can never observe two different
// writers) and returns its Post view with LikeCount already reconciled.
func (s *Service) writeBackLikeCount(ctx context.Context, postID string, _ int) (*post.Post, error) {
	st, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	p := st.Post
	p.LikeCount = st.LikedBy.Len()
	p.RepostCount = st.RepostedBy.Len()
	return &p, nil
}

// Delete soft-deletes postID, owned only by its author (or an admin, via
// the caller pre-checking isAdmin before invoking Delete with elevated
// intent — the service itself only enforces authorship).
func (s *Service) Delete(ctx context.Context, userID, postID string, isAdmin bool) error {
	st, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if st.Post.AuthorID != userID && !isAdmin {
		return apperr.Forbidden("Not the author of this post")
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	if err := s.users.DecrementPostCount(ctx, st.Post.AuthorID); err != nil {
		s.logger.ErrorContext(ctx, "post_count_decrement_failed", slog.String("user_id", st.Post.AuthorID), slog.Any("err", err))
	}
	if err := s.indexer.RemovePost(ctx, postID); err != nil {
		s.logger.WarnContext(ctx, "search_remove_failed", slog.String("post_id", postID), slog.Any("err", err))
	}
	return nil
}

// Get returns postID's current view with authoritative counters.
func (s *Service) Get(ctx context.Context, postID string) (*post.Post, error) {
	st, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	p := st.Post
	p.LikeCount = st.LikedBy.Len()
	p.RepostCount = st.RepostedBy.Len()
	return &p, nil
}

// Replies returns the direct reply posts to postID, oldest first, per the
// replies:{postId} thread index.
func (s *Service) Replies(ctx context.Context, postID string, limit int) ([]*post.Post, error) {
	members, err := s.store.ZRevRange(ctx, repliesKey(postID), 0, limit)
	if err != nil {
		return nil, kverr.Wrap(err, "replies zrevrange")
	}
	replies := make([]*post.Post, 0, len(members))
	for i := len(members) - 1; i >= 0; i-- { // oldest first
		p, err := s.Get(ctx, members[i].Member)
		if err != nil {
			continue // a reply may have been hard-deleted by compaction
		}
		replies = append(replies, p)
	}
	return replies, nil
}

// Thread walks postID's ReplyToID chain up to the root, bounded by
// cfg.MaxThreadDepth, and returns the ancestors oldest-first followed by
// postID itself — the GET /api/posts/:id/thread view, distinct from
// Replies (postID's direct children).
func (s *Service) Thread(ctx context.Context, postID string) ([]*post.Post, error) {
	target, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	ancestors := make([]*post.Post, 0, s.cfg.MaxThreadDepth)
	cursor := target.ReplyToID
	for depth := 0; cursor != "" && depth < s.cfg.MaxThreadDepth; depth++ {
		p, err := s.Get(ctx, cursor)
		if err != nil {
			break // an ancestor may have been hard-deleted by compaction
		}
		ancestors = append(ancestors, p)
		cursor = p.ReplyToID
	}

	thread := make([]*post.Post, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- { // oldest first
		thread = append(thread, ancestors[i])
	}
	thread = append(thread, target)
	return thread, nil
}

func (s *Service) notifyMentions(ctx context.Context, p post.Post) {
	for _, handle := range external.DetectMentions(p.Content) {
		s.notifier.NotifyMention(ctx, handle, p.ID)
	}
}

func (s *Service) appendUserPostsIndex(ctx context.Context, authorID, postID string, at time.Time) error {
	key := userPostsKey(authorID)
	if err := s.store.ZAdd(ctx, key, float64(at.UnixNano()), postID); err != nil {
		return kverr.Wrap(err, "user-posts zadd")
	}
	return s.trimSortedSet(ctx, key, maxUserPostsIndex)
}

func (s *Service) appendRepliesIndex(ctx context.Context, parentID, replyID string, at time.Time) error {
	return kverr.Wrap(s.store.ZAdd(ctx, repliesKey(parentID), float64(at.UnixNano()), replyID), "replies zadd")
}

// trimSortedSet drops the oldest members of a ZADD-backed index beyond cap,
// since [kv.Store] has no native trim primitive.
func (s *Service) trimSortedSet(ctx context.Context, key string, cap int) error {
	card, err := s.store.ZCard(ctx, key)
	if err != nil {
		return kverr.Wrap(err, "zcard")
	}
	if card <= int64(cap) {
		return nil
	}
	overflow := int(card) - cap
	stale, err := s.store.ZRevRange(ctx, key, cap, overflow)
	if err != nil {
		return kverr.Wrap(err, "zrevrange overflow")
	}
	for _, m := range stale {
		if err := s.store.ZRem(ctx, key, m.Member); err != nil {
			return kverr.Wrap(err, "zrem overflow")
		}
	}
	return nil
}

func (s *Service) enqueueFanout(ctx context.Context, postID, authorID string, at time.Time, source feed.Source) error {
	msg := FanoutMessage{PostID: postID, AuthorID: authorID, CreatedAt: at, Source: source}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.queue.Send(ctx, payload)
}

func userPostsKey(userID string) string { return fmt.Sprintf("user-posts:%s", userID) }
func repliesKey(postID string) string   { return constants.KeyPrefixReplies + postID }
