// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package homefeed implements the Home-feed assembler (Component J): the
seven-step composite pipeline spec.md §4.J describes, turning FeedActor's
raw entries plus the ranker's discovery cache into a single scored,
author-diversified page.

This is the one read-path component that touches every other actor and the
ranked KV cache in a single request; every step is documented inline with
the spec step number it implements so a reviewer can check the pipeline
against §4.J directly.
*/
package homefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/chrischabot/the-wire/internal/domain/feed"
	"github.com/chrischabot/the-wire/internal/domain/post"
	"github.com/chrischabot/the-wire/internal/domain/user"
	"github.com/chrischabot/the-wire/internal/platform/config"
	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/kv"
	"github.com/chrischabot/the-wire/pkg/textnorm"
)

// backfillMaxFollowees/backfillPostsPerFollowee bound step 5's diversity
// backfill cost, per spec.md §4.J step 5 ("up to 8 under-represented
// followees").
const (
	backfillMaxFollowees    = 8
	backfillPostsPerFollowee = 1
)

// Candidate is one scored, source-tagged post on the assembled page.
type Candidate struct {
	Post   post.Post
	Source feed.Source
	Score  float64
}

// Page is the assembled home timeline.
type Page struct {
	Posts   []post.Post
	Cursor  string
	HasMore bool
}

// Service assembles home timelines.
type Service struct {
	users *user.Actor
	posts *post.Actor
	feeds *feed.Actor
	store kv.Store
	cfg   *config.Config
}

// New constructs a home-feed Service.
func New(users *user.Actor, posts *post.Actor, feeds *feed.Actor, store kv.Store, cfg *config.Config) *Service {
	return &Service{users: users, posts: posts, feeds: feeds, store: store, cfg: cfg}
}

// Home assembles userID's home timeline per spec.md §4.J.
func (s *Service) Home(ctx context.Context, userID, cursor string, limit int) (*Page, error) {
	if limit <= 0 || limit > s.cfg.MaxPaginationLimit {
		limit = s.cfg.DefaultFeedPageSize
	}

	// Step 1: context.
	userCtx, err := s.users.GetContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	blocked := make(map[string]struct{}, len(userCtx.Blocked))
	for _, id := range userCtx.Blocked {
		blocked[id] = struct{}{}
	}
	following := make(map[string]struct{}, len(userCtx.Following))
	for _, id := range userCtx.Following {
		following[id] = struct{}{}
	}
	allWords, notFollowingWords := splitMuteScopes(userCtx.MutedWords)

	// Step 2: feed-with-posts — raw entries joined with post snapshots,
	// fetching limit*3 worth of candidates starting at cursor.
	start := decodeCursor(cursor)
	raw, err := s.feeds.RawEntries(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	fetchN := limit * 3
	seenOriginals := make(map[string]struct{})
	seenPostIDs := make(map[string]struct{})
	candidates := make([]Candidate, 0, fetchN)

	i := start
	for ; i < len(raw) && len(candidates) < fetchN; i++ {
		entry := raw[i]
		st, err := s.posts.Get(ctx, entry.PostID)
		if err != nil {
			continue
		}
		p := st.Post
		p.LikeCount = st.LikedBy.Len()
		p.RepostCount = st.RepostedBy.Len()

		// Step 3: filters.
		if _, isBlocked := blocked[p.AuthorID]; isBlocked {
			continue
		}
		if p.IsDeleted || p.IsTakenDown {
			continue
		}
		if muteMatches(p.Content, allWords, notFollowingWords, p.AuthorID, userID, following) {
			continue
		}
		if p.Kind == post.KindRepost && p.Content == "" && engagementTotal(p) == 0 {
			continue
		}
		if p.Kind == post.KindRepost && p.RepostOfID != "" {
			if _, dup := seenOriginals[p.RepostOfID]; dup {
				continue
			}
			seenOriginals[p.RepostOfID] = struct{}{}
		}

		seenPostIDs[p.ID] = struct{}{}
		candidates = append(candidates, Candidate{Post: p, Source: entry.Source})
	}
	hasMore := i < len(raw)
	nextCursor := ""
	if hasMore {
		nextCursor = encodeCursor(i)
	}

	// Step 4: discovery injection from explore:ranked.
	candidates = s.injectDiscovery(ctx, candidates, seenPostIDs, userID, blocked, allWords, notFollowingWords, following, limit)

	// Step 5: diversity backfill.
	candidates = s.diversityBackfill(ctx, candidates, seenPostIDs, userID, following, userCtx.Following, limit)

	// Step 6: composite score.
	authorFreq := make(map[string]int, len(candidates))
	for _, c := range candidates {
		authorFreq[c.Post.AuthorID]++
	}
	for idx := range candidates {
		candidates[idx].Score = s.compositeScore(candidates[idx], authorFreq[candidates[idx].Post.AuthorID])
	}
	sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].Score > candidates[b].Score })

	// Step 7: windowed diversity selection with spillover.
	targetUniqueAuthors := len(authorFreq)
	if targetUniqueAuthors == 0 {
		targetUniqueAuthors = 1
	}
	totalCap := limit
	if byAuthors := int(math.Ceil(float64(limit) / float64(targetUniqueAuthors))); byAuthors > 2 {
		totalCap = min(limit, byAuthors*targetUniqueAuthors)
	}
	if totalCap < 2 {
		totalCap = 2
	}
	selected := selectWithDiversity(candidates, 5, 1, totalCap, 2*totalCap)

	posts := make([]post.Post, 0, len(selected))
	for _, c := range selected {
		posts = append(posts, c.Post)
	}

	return &Page{Posts: posts, Cursor: nextCursor, HasMore: hasMore}, nil
}

// postLookup adapts [post.Actor] to [feed.PostLookup] for FeedActor's own
// muted-word filter.
type postLookup struct {
	ctx   context.Context
	posts *post.Actor
}

func (l postLookup) ContentOf(postID string) (string, bool) {
	st, err := l.posts.Get(l.ctx, postID)
	if err != nil {
		return "", false
	}
	return st.Post.Content, true
}

// Chronological returns userID's raw, unranked FeedActor timeline,
// filtered by block/mute but not re-scored or diversified the way Home is.
func (s *Service) Chronological(ctx context.Context, userID, cursor string, limit int) (*Page, error) {
	if limit <= 0 || limit > s.cfg.MaxPaginationLimit {
		limit = s.cfg.DefaultFeedPageSize
	}
	userCtx, err := s.users.GetContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	blocked := make(map[string]struct{}, len(userCtx.Blocked))
	for _, id := range userCtx.Blocked {
		blocked[id] = struct{}{}
	}
	allWords, _ := splitMuteScopes(userCtx.MutedWords)

	window, err := s.feeds.Feed(ctx, userID, cursor, limit, blocked, allWords, postLookup{ctx: ctx, posts: s.posts})
	if err != nil {
		return nil, err
	}

	posts := make([]post.Post, 0, len(window.Entries))
	for _, e := range window.Entries {
		st, err := s.posts.Get(ctx, e.PostID)
		if err != nil || st.Post.IsDeleted || st.Post.IsTakenDown {
			continue
		}
		p := st.Post
		p.LikeCount = st.LikedBy.Len()
		p.RepostCount = st.RepostedBy.Len()
		posts = append(posts, p)
	}
	return &Page{Posts: posts, Cursor: window.Cursor, HasMore: window.HasMore}, nil
}

// Global returns the ranker's explore:ranked discovery cache directly. It
// carries no per-user filtering — the same page for every viewer, refreshed
// on the ranker's schedule.
func (s *Service) Global(ctx context.Context, limit int) ([]post.Post, error) {
	if limit <= 0 || limit > s.cfg.MaxPaginationLimit {
		limit = s.cfg.DefaultFeedPageSize
	}
	raw, found, err := s.store.Get(ctx, constants.KeyPrefixExplore)
	if err != nil {
		return nil, err
	}
	if !found {
		return []post.Post{}, nil
	}
	var ranked []post.Post
	if err := json.Unmarshal(raw, &ranked); err != nil {
		return nil, err
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func engagementTotal(p post.Post) int {
	return p.LikeCount + p.ReplyCount + p.RepostCount + p.QuoteCount
}

// muteMatches applies the scope-split mute rule from spec.md §4.J step 3:
// `all` words always apply; `not_following` words apply only when the
// candidate's author is not followed and is not the viewer themself.
func muteMatches(content string, allWords, notFollowingWords []string, authorID, viewerID string, following map[string]struct{}) bool {
	if containsAny(content, allWords) {
		return true
	}
	if authorID == viewerID {
		return false
	}
	if _, follows := following[authorID]; follows {
		return false
	}
	return containsAny(content, notFollowingWords)
}

func splitMuteScopes(words []user.MutedWord) (all, notFollowing []string) {
	for _, w := range words {
		switch w.Scope {
		case user.ScopeAll:
			all = append(all, w.Word)
		case user.ScopeNotFollowing:
			notFollowing = append(notFollowing, w.Word)
		}
	}
	return all, notFollowing
}

// injectDiscovery appends up to limit source=fof candidates from the
// ranker's explore:ranked cache, per spec.md §4.J step 4.
func (s *Service) injectDiscovery(ctx context.Context, candidates []Candidate, seen map[string]struct{}, userID string, blocked map[string]struct{}, allWords, notFollowingWords []string, following map[string]struct{}, limit int) []Candidate {
	raw, found, err := s.store.Get(ctx, constants.KeyPrefixExplore)
	if err != nil || !found {
		return candidates
	}
	var ranked []post.Post
	if err := json.Unmarshal(raw, &ranked); err != nil {
		return candidates
	}

	added := 0
	for _, p := range ranked {
		if added >= limit {
			break
		}
		if p.AuthorID == userID {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		if _, isBlocked := blocked[p.AuthorID]; isBlocked {
			continue
		}
		if p.IsDeleted || p.IsTakenDown {
			continue
		}
		if muteMatches(p.Content, allWords, notFollowingWords, p.AuthorID, userID, following) {
			continue
		}
		seen[p.ID] = struct{}{}
		candidates = append(candidates, Candidate{Post: p, Source: feed.SourceFoF})
		added++
	}
	return candidates
}

// diversityBackfill implements spec.md §4.J step 5: if the candidate set's
// distinct-author count falls short of min(|following|, max(6, limit/3)),
// pull each of up to 8 under-represented followees' most recent post,
// skipping a followee whose most recent post is already in the candidate set.
func (s *Service) diversityBackfill(ctx context.Context, candidates []Candidate, seen map[string]struct{}, userID string, following map[string]struct{}, followingIDs []string, limit int) []Candidate {
	target := min(len(following), max(6, limit/3))

	distinctAuthors := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		distinctAuthors[c.Post.AuthorID] = struct{}{}
	}
	if len(distinctAuthors) >= target {
		return candidates
	}

	injected := 0
	for _, followeeID := range followingIDs {
		if injected >= backfillMaxFollowees {
			break
		}
		if _, already := distinctAuthors[followeeID]; already {
			continue
		}
		members, err := s.store.ZRevRange(ctx, fmt.Sprintf("user-posts:%s", followeeID), 0, backfillPostsPerFollowee)
		if err != nil || len(members) == 0 {
			continue
		}
		for _, m := range members {
			if _, dup := seen[m.Member]; dup {
				continue
			}
			st, err := s.posts.Get(ctx, m.Member)
			if err != nil || st.Post.IsDeleted || st.Post.IsTakenDown {
				continue
			}
			p := st.Post
			p.LikeCount = st.LikedBy.Len()
			p.RepostCount = st.RepostedBy.Len()
			seen[p.ID] = struct{}{}
			candidates = append(candidates, Candidate{Post: p, Source: feed.SourceFollow})
			distinctAuthors[followeeID] = struct{}{}
			injected++
			break
		}
	}
	return candidates
}

// compositeScore implements spec.md §4.J step 6.
func (s *Service) compositeScore(c Candidate, authorFreq int) float64 {
	likes, replies, reposts, quotes, createdAt := c.Post.EngagementScoreInput()
	ageHours := math.Max(0, time.Since(createdAt).Hours())

	numerator := float64(likes)*s.cfg.ScoringLikeW + float64(replies)*s.cfg.ScoringReplyW + float64(reposts+quotes)*s.cfg.ScoringRepostW
	hnScore := numerator / math.Pow(ageHours+s.cfg.ScoringBaseOffset, s.cfg.ScoringExp)

	engagement := likes + replies + reposts + quotes
	recency := 1.0 / (ageHours + 1)

	var sourceBoost float64
	switch c.Source {
	case feed.SourceOwn:
		sourceBoost = 0.2
	case feed.SourceFollow:
		sourceBoost = 0.1
	case feed.SourceFoF:
		sourceBoost = 0
	}

	var emptyRepostPenalty float64
	if c.Post.Kind == post.KindRepost && c.Post.Content == "" {
		emptyRepostPenalty = 0.4
	}

	frequencyPenalty := math.Min(0.6, float64(authorFreq-1)*0.05)
	if frequencyPenalty < 0 {
		frequencyPenalty = 0
	}

	return 4*hnScore + 2*math.Log10(float64(engagement)+1) + recency + sourceBoost - emptyRepostPenalty - frequencyPenalty
}

// selectWithDiversity implements spec.md §4.J step 7: greedily walk the
// score-sorted candidates, admitting the next one only if it doesn't push
// its author over maxPerAuthor within the trailing window; skipped
// candidates spill into a second pass (up to spillCap total) so a page
// that can't otherwise reach cap still fills.
func selectWithDiversity(sorted []Candidate, window, maxPerAuthor, cap, spillCap int) []Candidate {
	selected := make([]Candidate, 0, cap)
	var skipped []Candidate

	for _, c := range sorted {
		if len(selected) >= cap {
			break
		}
		if authorCountInWindow(toAuthorIDs(selected), c.Post.AuthorID, window) < maxPerAuthor {
			selected = append(selected, c)
		} else {
			skipped = append(skipped, c)
		}
	}

	for _, c := range skipped {
		if len(selected) >= spillCap || len(selected) >= cap {
			break
		}
		selected = append(selected, c)
	}
	return selected
}

func toAuthorIDs(selected []Candidate) []string {
	ids := make([]string, len(selected))
	for i, c := range selected {
		ids[i] = c.Post.AuthorID
	}
	return ids
}

// authorCountInWindow counts how many of the trailing window author ids
// equal authorID — the shared primitive behind both the ranker's and the
// home-feed assembler's sliding-window diversity cap.
func authorCountInWindow(authorIDs []string, authorID string, window int) int {
	start := len(authorIDs) - window
	if start < 0 {
		start = 0
	}
	count := 0
	for _, id := range authorIDs[start:] {
		if id == authorID {
			count++
		}
	}
	return count
}

func containsAny(content string, words []string) bool {
	return textnorm.ContainsAny(content, words)
}

func decodeCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func encodeCursor(n int) string { return strconv.Itoa(n) }
