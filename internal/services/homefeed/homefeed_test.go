// Copyright (c) 2026 The Wire. All rights reserved.

package homefeed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chrischabot/the-wire/internal/domain/feed"
	"github.com/chrischabot/the-wire/internal/domain/post"
	"github.com/chrischabot/the-wire/internal/domain/user"
)

func TestEngagementTotal(t *testing.T) {
	p := post.Post{LikeCount: 1, ReplyCount: 2, RepostCount: 3, QuoteCount: 4}
	assert.Equal(t, 10, engagementTotal(p))
}

func TestSplitMuteScopes(t *testing.T) {
	words := []user.MutedWord{
		{Word: "spoiler", Scope: user.ScopeAll},
		{Word: "politics", Scope: user.ScopeNotFollowing},
		{Word: "spam", Scope: user.ScopeAll},
	}

	all, notFollowing := splitMuteScopes(words)

	assert.ElementsMatch(t, []string{"spoiler", "spam"}, all)
	assert.ElementsMatch(t, []string{"politics"}, notFollowing)
}

func TestMuteMatchesAllScopeAlwaysApplies(t *testing.T) {
	matched := muteMatches("big spoiler here", []string{"spoiler"}, nil, "author", "viewer", nil)
	assert.True(t, matched)
}

func TestMuteMatchesNeverAppliesToSelf(t *testing.T) {
	matched := muteMatches("politics is boring", nil, []string{"politics"}, "viewer", "viewer", nil)
	assert.False(t, matched)
}

func TestMuteMatchesNotFollowingScopeSkippedWhenFollowed(t *testing.T) {
	following := map[string]struct{}{"author": {}}
	matched := muteMatches("politics is boring", nil, []string{"politics"}, "author", "viewer", following)
	assert.False(t, matched)
}

func TestMuteMatchesNotFollowingScopeAppliesWhenNotFollowed(t *testing.T) {
	matched := muteMatches("politics is boring", nil, []string{"politics"}, "stranger", "viewer", nil)
	assert.True(t, matched)
}

func TestAuthorCountInWindow(t *testing.T) {
	ids := []string{"a1", "a2", "a1", "a1"}
	assert.Equal(t, 2, authorCountInWindow(ids, "a1", 2))
	assert.Equal(t, 3, authorCountInWindow(ids, "a1", 10))
}

func TestSelectWithDiversitySpillsSkippedCandidates(t *testing.T) {
	candidates := []Candidate{
		{Post: post.Post{ID: "p1", AuthorID: "a1"}},
		{Post: post.Post{ID: "p2", AuthorID: "a1"}},
		{Post: post.Post{ID: "p3", AuthorID: "a2"}},
	}

	// window=2, maxPerAuthor=1: p2 (same author as p1, within window) gets
	// skipped on the first pass, then spilled back in because cap allows it.
	out := selectWithDiversity(candidates, 2, 1, 3, 3)

	assert.Len(t, out, 3)
	ids := toAuthorIDs(out)
	assert.Equal(t, []string{"a1", "a2", "a1"}, ids)
}

func TestSelectWithDiversityRespectsSpillCap(t *testing.T) {
	candidates := []Candidate{
		{Post: post.Post{ID: "p1", AuthorID: "a1"}},
		{Post: post.Post{ID: "p2", AuthorID: "a1"}},
	}

	out := selectWithDiversity(candidates, 5, 1, 2, 1)
	assert.Len(t, out, 1) // only p1 admitted; p2 is skipped and spillCap=1 is already met
}

func TestToAuthorIDs(t *testing.T) {
	candidates := []Candidate{
		{Post: post.Post{AuthorID: "a1"}},
		{Post: post.Post{AuthorID: "a2"}},
	}
	assert.Equal(t, []string{"a1", "a2"}, toAuthorIDs(candidates))
}

func TestCursorRoundTrip(t *testing.T) {
	assert.Equal(t, 0, decodeCursor(""))
	assert.Equal(t, 0, decodeCursor("not-a-number"))
	assert.Equal(t, 0, decodeCursor("-5"))
	assert.Equal(t, 42, decodeCursor(encodeCursor(42)))
}

func TestNullableCursor(t *testing.T) {
	assert.Nil(t, nullableCursor(""))
	assert.Equal(t, "42", nullableCursor("42"))
}

func TestPostLookupImplementsFeedPostLookup(t *testing.T) {
	// postLookup wraps *post.Actor; a nil actor through a real context
	// would panic, so this only checks that postLookup satisfies
	// feed.PostLookup. ContentOf itself is not exercised here.
	_ = feed.PostLookup(postLookup{})
}
