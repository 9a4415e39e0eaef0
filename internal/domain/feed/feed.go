// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package feed implements FeedActor (Component F): a per-user ordered
timeline of entry records, addressed under namespace "feed".

The durable state is just the ordered, deduplicated entry list; post
snapshots are fetched from the KV post cache by the caller (feed-with-posts)
rather than duplicated here, keeping the actor's own persisted blob small.
*/
package feed

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/chrischabot/the-wire/pkg/textnorm"
)

// MaxEntries is the hard cap on a single timeline's length.
const MaxEntries = 1000

// Source labels how an entry entered the timeline.
type Source string

const (
	SourceOwn    Source = "own"
	SourceFollow Source = "follow"
	SourceFoF    Source = "fof"
)

// Entry is one timeline record.
type Entry struct {
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
}

// State is FeedActor's durable state: entries newest-first.
type State struct {
	Entries []Entry `json:"entries"`
}

func Marshal(s *State) ([]byte, error) { return json.Marshal(s) }
func Unmarshal(b []byte) (*State, error) {
	s := &State{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

func NewState() *State { return &State{} }

// AddEntry prepends entry, deduped by PostID, truncating the tail to
// MaxEntries. No-op if the entry already exists.
func (s *State) AddEntry(entry Entry) {
	for _, e := range s.Entries {
		if e.PostID == entry.PostID {
			return
		}
	}
	s.Entries = append([]Entry{entry}, s.Entries...)
	if len(s.Entries) > MaxEntries {
		s.Entries = s.Entries[:MaxEntries]
	}
}

// RemoveEntry removes the entry with the given post id, if present.
func (s *State) RemoveEntry(postID string) {
	out := s.Entries[:0]
	for _, e := range s.Entries {
		if e.PostID != postID {
			out = append(out, e)
		}
	}
	s.Entries = out
}

func (s *State) Clear() { s.Entries = nil }
func (s *State) Count() int { return len(s.Entries) }

// PostLookup resolves a post id to its content for mute filtering. The
// blocked-author check does not go through it; [State.Feed] takes the
// blocked set as a separate argument.
type PostLookup interface {
	ContentOf(postID string) (content string, ok bool)
}

// Window is a filtered, paginated slice of entries, plus the opaque cursor
// to resume from.
type Window struct {
	Entries []Entry
	Cursor  string
	HasMore bool
}

// Feed returns a filtered window of entries starting at cursor (a decimal
// index into the *unfiltered* list, per spec.md's "opaque index" design),
// applying the blocked-author and muted-word filters spec.md §4.F
// describes. lookup resolves a candidate's content; a lookup failure drops
// the entry (fail-closed), matching spec.
func (s *State) Feed(cursor string, limit int, blocked map[string]struct{}, mutedWords []string, lookup PostLookup) Window {
	start := decodeCursor(cursor)

	out := make([]Entry, 0, limit)
	i := start
	for ; i < len(s.Entries) && len(out) < limit; i++ {
		e := s.Entries[i]

		if _, isBlocked := blocked[e.AuthorID]; isBlocked {
			continue
		}

		if len(mutedWords) > 0 {
			content, ok := lookup.ContentOf(e.PostID)
			if !ok {
				continue // fail-closed: drop on lookup failure
			}
			if containsMutedWord(content, mutedWords) {
				continue
			}
		}

		out = append(out, e)
	}

	hasMore := i < len(s.Entries)
	next := ""
	if hasMore {
		next = encodeCursor(i)
	}

	return Window{Entries: out, Cursor: next, HasMore: hasMore}
}

func containsMutedWord(content string, words []string) bool {
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

func encodeCursor(n int) string {
	return strconv.Itoa(n)
}
