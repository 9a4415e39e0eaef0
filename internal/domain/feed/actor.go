// Copyright (c) 2026 The Wire. All rights reserved.

package feed

import (
	"context"

	"github.com/chrischabot/the-wire/internal/actor"
	"github.com/chrischabot/the-wire/internal/platform/apperr"
)

// Namespace is the actor.Host namespace FeedActor instances are routed
// under; the entity name is the feed owner's user id.
const Namespace = "feed"

// Actor is the thin adapter registering FeedActor's handlers with the
// Entity Actor runtime.
type Actor struct {
	host *actor.Host
}

func NewActor(host *actor.Host) *Actor {
	return &Actor{host: host}
}

// mutate loads the feed (lazily initializing an empty one — unlike
// UserActor/PostActor, a timeline has no explicit "signup" step; it comes
// into being the first time something is appended to it), applies fn, and
// persists.
func (a *Actor) mutate(ctx context.Context, userID string, fn func(s *State) (any, error)) (any, error) {
	resp, err := a.host.Call(ctx, Namespace, userID, func(_ context.Context, raw []byte) (any, []byte, bool, error) {
		var s *State
		if raw == nil {
			s = NewState()
		} else {
			var err error
			s, err = Unmarshal(raw)
			if err != nil {
				return nil, nil, false, err
			}
		}

		result, err := fn(s)
		if err != nil {
			return nil, nil, false, err
		}

		newState, err := Marshal(s)
		if err != nil {
			return nil, nil, false, err
		}
		return result, newState, true, nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return resp, nil
}

func (a *Actor) AddEntry(ctx context.Context, userID string, entry Entry) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.AddEntry(entry)
		return nil, nil
	})
	return err
}

func (a *Actor) RemoveEntry(ctx context.Context, userID, postID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.RemoveEntry(postID)
		return nil, nil
	})
	return err
}

func (a *Actor) Feed(ctx context.Context, userID, cursor string, limit int, blocked map[string]struct{}, mutedWords []string, lookup PostLookup) (Window, error) {
	resp, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		return s.Feed(cursor, limit, blocked, mutedWords, lookup), nil
	})
	if err != nil {
		return Window{}, err
	}
	return resp.(Window), nil
}

// RawEntries returns the unfiltered, unpaginated entry list — used by the
// home-feed assembler, which needs to join entries with post snapshots and
// apply its own richer scoring/diversity pipeline rather than FeedActor's
// simple block/mute filter.
func (a *Actor) RawEntries(ctx context.Context, userID string, limit int) ([]Entry, error) {
	resp, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		if limit > 0 && len(s.Entries) > limit {
			return append([]Entry(nil), s.Entries[:limit]...), nil
		}
		return append([]Entry(nil), s.Entries...), nil
	})
	if err != nil {
		return nil, err
	}
	return resp.([]Entry), nil
}

func (a *Actor) Clear(ctx context.Context, userID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.Clear()
		return nil, nil
	})
	return err
}

func (a *Actor) Count(ctx context.Context, userID string) (int, error) {
	resp, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		return s.Count(), nil
	})
	if err != nil {
		return 0, err
	}
	return resp.(int), nil
}

func mapErr(err error) error {
	if apperr.IsAppError(err) {
		return err
	}
	return apperr.Transient(err)
}
