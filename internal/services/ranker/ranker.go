// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package ranker implements the scheduled Ranker (Component I): an HN-style
engagement score over recent posts, author-diversified and written to two
KV cache blobs (fof:ranked, explore:ranked) that the home-feed assembler
reads for discovery candidates.

Driven by [github.com/robfig/cron/v3] in cmd/worker, matching the scheduled-
job idiom the corpus uses for periodic background work rather than a
hand-rolled ticker loop.
*/
package ranker

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/chrischabot/the-wire/internal/domain/post"
	"github.com/chrischabot/the-wire/internal/platform/config"
	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/kv"
)

// scanBatches/scanBatchSize bound the per-run scan cost, per spec.md §4.I
// step 1 ("2 batches x 40").
const (
	scanBatches   = 2
	scanBatchSize = 40
)

// fofTopN is the size of the compact fof:ranked blob.
const fofTopN = 100

// RankedEntry is one compact candidate written to fof:ranked.
type RankedEntry struct {
	PostID   string  `json:"postId"`
	Score    float64 `json:"score"`
	AuthorID string  `json:"authorId"`
}

// Ranker periodically scores recent posts and writes the ranked caches.
type Ranker struct {
	store  kv.Store
	posts  *post.Actor
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs a Ranker.
func New(store kv.Store, posts *post.Actor, cfg *config.Config, logger *slog.Logger) *Ranker {
	return &Ranker{store: store, posts: posts, cfg: cfg, logger: logger}
}

// Run performs one ranking pass: scan, score, diversify, and publish.
func (r *Ranker) Run(ctx context.Context) error {
	candidates, err := r.scan(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	scored := make([]scoredPost, 0, len(candidates))
	for _, p := range candidates {
		if p.IsDeleted || p.IsTakenDown {
			continue
		}
		scored = append(scored, scoredPost{post: p, score: r.hnScore(p, now)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		// Monotone tie-break per spec.md §8 testable property 10: newer
		// first, then more total engagement first.
		if !scored[i].post.CreatedAt.Equal(scored[j].post.CreatedAt) {
			return scored[i].post.CreatedAt.After(scored[j].post.CreatedAt)
		}
		return engagementTotal(scored[i].post) > engagementTotal(scored[j].post)
	})

	diversified := diversify(scored, r.cfg.DiversityWindow, r.cfg.DiversityMaxPerAuthor, r.cfg.MaxFeedEntries)

	if err := r.publish(ctx, diversified); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "ranker_run_complete", slog.Int("scanned", len(candidates)), slog.Int("ranked", len(diversified)))
	return nil
}

type scoredPost struct {
	post  post.Post
	score float64
}

// scan walks the post: namespace in bounded batches, returning every
// post record it finds. The actor runtime stores each PostActor's full
// state at the same key the KV post-record lives at (see postsvc), so a
// prefix scan over "post:" is sufficient without a separate cache pass.
func (r *Ranker) scan(ctx context.Context) ([]post.Post, error) {
	var out []post.Post
	cursor := ""
	for batch := 0; batch < scanBatches; batch++ {
		keys, next, done, err := r.store.List(ctx, constants.KeyPrefixPost, scanBatchSize, cursor)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			raw, found, err := r.store.Get(ctx, key)
			if err != nil || !found {
				continue
			}
			st, err := post.Unmarshal(raw)
			if err != nil {
				r.logger.WarnContext(ctx, "ranker_malformed_post_state", slog.String("key", key), slog.Any("err", err))
				continue
			}
			out = append(out, st.Post)
		}
		if done {
			break
		}
		cursor = next
	}
	return out, nil
}

// hnScore computes the tuned Hacker-News-family score from spec.md §4.I:
//
//	score = (likes*LikeW + replies*ReplyW + reposts*RepostW) / (ageHours + BaseOffset)^Exp
//
// The home-feed assembler's own composite score (§4.J) additionally folds
// in quoteCount*RepostW on top of this base, which is why quotes are
// deliberately absent here.
func (r *Ranker) hnScore(p post.Post, now time.Time) float64 {
	likes, replies, reposts, _, createdAt := p.EngagementScoreInput()
	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	numerator := float64(likes)*r.cfg.ScoringLikeW + float64(replies)*r.cfg.ScoringReplyW + float64(reposts)*r.cfg.ScoringRepostW
	denominator := math.Pow(ageHours+r.cfg.ScoringBaseOffset, r.cfg.ScoringExp)
	return numerator / denominator
}

func engagementTotal(p post.Post) int {
	return p.LikeCount + p.ReplyCount + p.RepostCount + p.QuoteCount
}

// diversify applies the greedy sliding-window author cap from spec.md §4.I
// step 4: walk the score-sorted list, admitting the highest-scored
// candidate that doesn't violate "at most maxPerAuthor of the same author
// in the last window entries"; if none qualifies, admit the highest
// remaining anyway to guarantee forward progress. Stops at cap.
func diversify(scored []scoredPost, window, maxPerAuthor, cap int) []scoredPost {
	remaining := append([]scoredPost(nil), scored...)
	selected := make([]scoredPost, 0, cap)

	for len(selected) < cap && len(remaining) > 0 {
		idx := -1
		for i, candidate := range remaining {
			if authorCountInWindow(selected, candidate.post.AuthorID, window) < maxPerAuthor {
				idx = i
				break
			}
		}
		if idx == -1 {
			idx = 0 // no candidate satisfies the cap; admit the highest-scored to guarantee progress
		}
		selected = append(selected, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return selected
}

func authorCountInWindow(selected []scoredPost, authorID string, window int) int {
	start := len(selected) - window
	if start < 0 {
		start = 0
	}
	count := 0
	for _, s := range selected[start:] {
		if s.post.AuthorID == authorID {
			count++
		}
	}
	return count
}

// publish writes the compact fof:ranked blob and the full explore:ranked
// snapshot blob, both TTL'd per spec.md §4.I step 5.
func (r *Ranker) publish(ctx context.Context, diversified []scoredPost) error {
	ttl := time.Duration(r.cfg.CacheTTLRankedSeconds) * time.Second

	compactN := len(diversified)
	if compactN > fofTopN {
		compactN = fofTopN
	}
	compact := make([]RankedEntry, 0, compactN)
	for _, s := range diversified[:compactN] {
		compact = append(compact, RankedEntry{PostID: s.post.ID, Score: s.score, AuthorID: s.post.AuthorID})
	}
	compactBytes, err := json.Marshal(compact)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, constants.KeyPrefixFoFRanked+"current", compactBytes, ttl); err != nil {
		return err
	}

	full := make([]post.Post, 0, len(diversified))
	for _, s := range diversified {
		full = append(full, s.post)
	}
	fullBytes, err := json.Marshal(full)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, constants.KeyPrefixExplore, fullBytes, ttl)
}
