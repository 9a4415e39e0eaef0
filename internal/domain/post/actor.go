// Copyright (c) 2026 The Wire. All rights reserved.

package post

import (
	"context"
	"time"

	"github.com/chrischabot/the-wire/internal/actor"
	"github.com/chrischabot/the-wire/internal/platform/apperr"
)

// Namespace is the actor.Host namespace PostActor instances are routed
// under; the entity name is the post's id.
const Namespace = "post"

// Actor is the thin adapter registering PostActor's handlers with the
// Entity Actor runtime.
type Actor struct {
	host *actor.Host
}

func NewActor(host *actor.Host) *Actor {
	return &Actor{host: host}
}

func (a *Actor) Initialize(ctx context.Context, postID string, state *State) error {
	_, err := a.host.Call(ctx, Namespace, postID, func(_ context.Context, existing []byte) (any, []byte, bool, error) {
		if existing != nil {
			return nil, nil, false, actor.ErrAlreadyInitialized
		}
		bytes, err := Marshal(state)
		if err != nil {
			return nil, nil, false, err
		}
		return nil, bytes, true, nil
	})
	return err
}

func (a *Actor) Get(ctx context.Context, postID string) (*State, error) {
	resp, err := a.host.Call(ctx, Namespace, postID, func(_ context.Context, raw []byte) (any, []byte, bool, error) {
		if raw == nil {
			return nil, nil, false, actor.ErrNotInitialized
		}
		s, err := Unmarshal(raw)
		if err != nil {
			return nil, nil, false, err
		}
		return s, nil, false, nil
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return resp.(*State), nil
}

func (a *Actor) mutate(ctx context.Context, postID string, fn func(s *State) (any, error)) (any, error) {
	resp, err := a.host.Call(ctx, Namespace, postID, func(_ context.Context, raw []byte) (any, []byte, bool, error) {
		if raw == nil {
			return nil, nil, false, actor.ErrNotInitialized
		}
		s, err := Unmarshal(raw)
		if err != nil {
			return nil, nil, false, err
		}
		result, err := fn(s)
		if err != nil {
			return nil, nil, false, err
		}
		if !s.IsDeleted {
			s.Post.LikeCount = s.LikedBy.Len()
			s.Post.RepostCount = s.RepostedBy.Len()
			s.Post.ReplyCount = s.ReplyCount
			s.Post.QuoteCount = s.QuoteCount
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

// Like returns the new authoritative like count; mutate also copies it into
// the stored Post record rather than incrementing that in place.
func (a *Actor) Like(ctx context.Context, postID, userID string) (int, error) {
	resp, err := a.mutate(ctx, postID, func(s *State) (any, error) { return s.Like(userID), nil })
	if err != nil {
		return 0, err
	}
	return resp.(int), nil
}

func (a *Actor) Unlike(ctx context.Context, postID, userID string) (int, error) {
	resp, err := a.mutate(ctx, postID, func(s *State) (any, error) { return s.Unlike(userID), nil })
	if err != nil {
		return 0, err
	}
	return resp.(int), nil
}

func (a *Actor) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	resp, err := a.mutate(ctx, postID, func(s *State) (any, error) { return s.HasLiked(userID), nil })
	if err != nil {
		return false, err
	}
	return resp.(bool), nil
}

func (a *Actor) HasReposted(ctx context.Context, postID, userID string) (bool, error) {
	resp, err := a.mutate(ctx, postID, func(s *State) (any, error) { return s.HasReposted(userID), nil })
	if err != nil {
		return false, err
	}
	return resp.(bool), nil
}

func (a *Actor) Repost(ctx context.Context, postID, userID string) (int, error) {
	resp, err := a.mutate(ctx, postID, func(s *State) (any, error) {
		if s.HasReposted(userID) {
			return nil, apperr.Conflict("Already reposted")
		}
		return s.Repost(userID), nil
	})
	if err != nil {
		return 0, err
	}
	return resp.(int), nil
}

func (a *Actor) Unrepost(ctx context.Context, postID, userID string) (int, error) {
	resp, err := a.mutate(ctx, postID, func(s *State) (any, error) { return s.Unrepost(userID), nil })
	if err != nil {
		return 0, err
	}
	return resp.(int), nil
}

func (a *Actor) IncrementReplies(ctx context.Context, postID string) (int, error) {
	resp, err := a.mutate(ctx, postID, func(s *State) (any, error) { return s.IncrementReplies(), nil })
	if err != nil {
		return 0, err
	}
	return resp.(int), nil
}

func (a *Actor) IncrementQuotes(ctx context.Context, postID string) (int, error) {
	resp, err := a.mutate(ctx, postID, func(s *State) (any, error) { return s.IncrementQuotes(), nil })
	if err != nil {
		return 0, err
	}
	return resp.(int), nil
}

func (a *Actor) Delete(ctx context.Context, postID string) error {
	_, err := a.mutate(ctx, postID, func(s *State) (any, error) {
		s.Delete(time.Now())
		return nil, nil
	})
	return err
}

func mapErr(err error) error {
	switch err {
	case actor.ErrNotInitialized:
		return apperr.NotFound("Post")
	case actor.ErrAlreadyInitialized:
		return apperr.Conflict("Post already exists")
	default:
		if apperr.IsAppError(err) {
			return err
		}
		return apperr.Transient(err)
	}
}
