// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package post implements PostActor (Component E): the authoritative
per-post engagement state — like set, repost set, reply/quote counts, and
the deletion flag — addressed under namespace "post".

Post.Kind follows the tagged-variant design note (spec.md §9): a post is
exactly one of Original, Reply, Quote, or Repost, carried as a discriminated
union rather than a bag of optional pointer fields, so the "at most one of
replyToId/quoteOfId/repostOfId" invariant is a property of the type rather
than a runtime check alone.
*/
package post

import (
	"encoding/json"
	"time"

	"github.com/chrischabot/the-wire/pkg/orderedset"
)

// Kind discriminates the four mutually-exclusive post variants.
type Kind string

const (
	KindOriginal Kind = "original"
	KindReply    Kind = "reply"
	KindQuote    Kind = "quote"
	KindRepost   Kind = "repost"
)

// OriginalSnapshot is the denormalised copy of a reposted post's display
// fields, taken at repost time from the original author's then-current
// profile.
type OriginalSnapshot struct {
	PostID            string    `json:"postId"`
	AuthorID          string    `json:"authorId"`
	AuthorHandle      string    `json:"authorHandle"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	AuthorAvatarURL   string    `json:"authorAvatarUrl"`
	Content           string    `json:"content"`
	MediaURLs         []string  `json:"mediaUrls,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Post is a post's public, cacheable record (the `post:{id}` KV blob and
// the JSON shape returned from the HTTP API).
type Post struct {
	ID                string    `json:"id"`
	AuthorID          string    `json:"authorId"`
	AuthorHandle      string    `json:"authorHandle"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	AuthorAvatarURL   string    `json:"authorAvatarUrl"`

	Kind Kind `json:"kind"`

	Content   string   `json:"content"`
	MediaURLs []string `json:"mediaUrls,omitempty"`

	// At most one of ReplyToID/QuoteOfID/RepostOfID is set, matching Kind
	// (none for KindOriginal); a repost also carries Original.
	ReplyToID  string            `json:"replyToId,omitempty"`
	QuoteOfID  string            `json:"quoteOfId,omitempty"`
	RepostOfID string            `json:"repostOfId,omitempty"`
	Original   *OriginalSnapshot `json:"originalPost,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	// Cached counters — derived from PostActor's sets, never incremented
	// in place (spec.md §9 counter-drift rule).
	LikeCount   int `json:"likeCount"`
	ReplyCount  int `json:"replyCount"`
	RepostCount int `json:"repostCount"`
	QuoteCount  int `json:"quoteCount"`

	IsDeleted       bool       `json:"isDeleted"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
	IsTakenDown     bool       `json:"isTakenDown,omitempty"`
	TakenDownAt     *time.Time `json:"takenDownAt,omitempty"`
	TakenDownReason string     `json:"takenDownReason,omitempty"`
}

// EngagementScoreInput collects the fields the HN-score formula needs,
// shared between the ranker and the home-feed assembler so the two never
// drift apart on the formula itself.
func (p *Post) EngagementScoreInput() (likes, replies, reposts, quotes int, createdAt time.Time) {
	return p.LikeCount, p.ReplyCount, p.RepostCount, p.QuoteCount, p.CreatedAt
}

// State is PostActor's durable state.
type State struct {
	Post        Post           `json:"post"`
	LikedBy     orderedset.Set `json:"likedBy"`
	RepostedBy  orderedset.Set `json:"repostedBy"`
	ReplyCount  int            `json:"replyCount"`
	QuoteCount  int            `json:"quoteCount"`
	IsDeleted   bool           `json:"isDeleted"`
}

func Marshal(s *State) ([]byte, error) { return json.Marshal(s) }
func Unmarshal(b []byte) (*State, error) {
	s := &State{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

// NewState constructs a fresh PostActor state wrapping post.
func NewState(p Post) *State {
	return &State{
		Post:       p,
		LikedBy:    orderedset.New(),
		RepostedBy: orderedset.New(),
	}
}

// Like is idempotent; returns the new authoritative like count.
func (s *State) Like(userID string) int {
	s.LikedBy.Add(userID)
	return s.LikedBy.Len()
}

// Unlike is idempotent; returns the new authoritative like count.
func (s *State) Unlike(userID string) int {
	s.LikedBy.Remove(userID)
	return s.LikedBy.Len()
}

func (s *State) HasLiked(userID string) bool    { return s.LikedBy.Has(userID) }
func (s *State) HasReposted(userID string) bool { return s.RepostedBy.Has(userID) }

// Repost is idempotent; returns the new authoritative repost count.
func (s *State) Repost(userID string) int {
	s.RepostedBy.Add(userID)
	return s.RepostedBy.Len()
}

// Unrepost is idempotent; returns the new authoritative repost count.
func (s *State) Unrepost(userID string) int {
	s.RepostedBy.Remove(userID)
	return s.RepostedBy.Len()
}

func (s *State) IncrementReplies() int { s.ReplyCount++; return s.ReplyCount }
func (s *State) IncrementQuotes() int  { s.QuoteCount++; return s.QuoteCount }

// Delete marks the post deleted and zeros its cached counters, per spec.
func (s *State) Delete(now time.Time) {
	s.IsDeleted = true
	s.Post.IsDeleted = true
	deletedAt := now
	s.Post.DeletedAt = &deletedAt
	s.Post.LikeCount = 0
	s.Post.ReplyCount = 0
	s.Post.RepostCount = 0
	s.Post.QuoteCount = 0
	s.ReplyCount = 0
	s.QuoteCount = 0
}
