// Copyright (c) 2026 The Wire. All rights reserved.

package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeLookup map[string]string

func (f fakeLookup) ContentOf(postID string) (string, bool) {
	content, ok := f[postID]
	return content, ok
}

func TestStateAddEntryDedupesByPostID(t *testing.T) {
	st := NewState()
	now := time.Now()

	st.AddEntry(Entry{PostID: "p1", AuthorID: "a1", Timestamp: now, Source: SourceOwn})
	st.AddEntry(Entry{PostID: "p1", AuthorID: "a1", Timestamp: now, Source: SourceFollow})

	assert.Equal(t, 1, st.Count())
}

func TestStateAddEntryNewestFirst(t *testing.T) {
	st := NewState()
	now := time.Now()

	st.AddEntry(Entry{PostID: "p1", Timestamp: now})
	st.AddEntry(Entry{PostID: "p2", Timestamp: now.Add(time.Minute)})

	assert.Equal(t, "p2", st.Entries[0].PostID)
	assert.Equal(t, "p1", st.Entries[1].PostID)
}

func TestStateAddEntryCapsAtMaxEntries(t *testing.T) {
	st := NewState()
	for i := 0; i < MaxEntries+10; i++ {
		st.AddEntry(Entry{PostID: string(rune(i)), Timestamp: time.Now()})
	}
	assert.Equal(t, MaxEntries, st.Count())
}

func TestStateRemoveEntry(t *testing.T) {
	st := NewState()
	st.AddEntry(Entry{PostID: "p1"})
	st.AddEntry(Entry{PostID: "p2"})

	st.RemoveEntry("p1")

	assert.Equal(t, 1, st.Count())
	assert.Equal(t, "p2", st.Entries[0].PostID)
}

func TestFeedFiltersBlockedAuthors(t *testing.T) {
	st := NewState()
	st.AddEntry(Entry{PostID: "p1", AuthorID: "blocked-author"})
	st.AddEntry(Entry{PostID: "p2", AuthorID: "friend"})

	window := st.Feed("", 10, map[string]struct{}{"blocked-author": {}}, nil, nil)

	assert.Len(t, window.Entries, 1)
	assert.Equal(t, "p2", window.Entries[0].PostID)
	assert.False(t, window.HasMore)
}

func TestFeedFiltersMutedWordsFailClosedOnLookupMiss(t *testing.T) {
	st := NewState()
	st.AddEntry(Entry{PostID: "p1", AuthorID: "a1"})
	st.AddEntry(Entry{PostID: "p2", AuthorID: "a2"})

	lookup := fakeLookup{"p1": "this has a spoiler in it"}
	window := st.Feed("", 10, nil, []string{"spoiler"}, lookup)

	// p1 is dropped for containing the muted word, p2 is dropped because
	// the lookup can't resolve it (fail-closed).
	assert.Empty(t, window.Entries)
}

func TestFeedPaginatesViaOpaqueCursor(t *testing.T) {
	st := NewState()
	for i := 0; i < 5; i++ {
		st.AddEntry(Entry{PostID: string(rune('a' + i)), AuthorID: "a"})
	}

	first := st.Feed("", 2, nil, nil, nil)
	assert.Len(t, first.Entries, 2)
	assert.True(t, first.HasMore)
	assert.NotEmpty(t, first.Cursor)

	second := st.Feed(first.Cursor, 2, nil, nil, nil)
	assert.Len(t, second.Entries, 2)
	assert.True(t, second.HasMore)

	third := st.Feed(second.Cursor, 2, nil, nil, nil)
	assert.Len(t, third.Entries, 1)
	assert.False(t, third.HasMore)
	assert.Empty(t, third.Cursor)
}

func TestFeedInvalidCursorFallsBackToStart(t *testing.T) {
	st := NewState()
	st.AddEntry(Entry{PostID: "p1"})

	window := st.Feed("not-a-number", 10, nil, nil, nil)
	assert.Len(t, window.Entries, 1)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	st := NewState()
	st.AddEntry(Entry{PostID: "p1", AuthorID: "a1", Timestamp: time.Now(), Source: SourceFoF})

	raw, err := Marshal(st)
	assert.NoError(t, err)

	restored, err := Unmarshal(raw)
	assert.NoError(t, err)
	assert.Equal(t, 1, restored.Count())
	assert.Equal(t, SourceFoF, restored.Entries[0].Source)
}
