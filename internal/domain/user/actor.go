// Copyright (c) 2026 The Wire. All rights reserved.

package user

import (
	"context"
	"time"

	"github.com/chrischabot/the-wire/internal/actor"
	"github.com/chrischabot/the-wire/internal/platform/apperr"
)

// Namespace is the actor.Host namespace UserActor instances are routed
// under; the entity name is the user's id.
const Namespace = "user"

// Actor is the thin adapter registering UserActor's handlers with the
// Entity Actor runtime. All business logic lives in [State]'s methods so
// it is testable without a live [actor.Host].
type Actor struct {
	host *actor.Host
}

// NewActor wraps host for UserActor operations.
func NewActor(host *actor.Host) *Actor {
	return &Actor{host: host}
}

// Initialize creates a new, empty UserActor. Fails with
// [actor.ErrAlreadyInitialized] if the user already exists.
func (a *Actor) Initialize(ctx context.Context, userID string, state *State) error {
	_, err := a.host.Call(ctx, Namespace, userID, func(_ context.Context, existing []byte) (any, []byte, bool, error) {
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

// Get returns the full UserActor state.
func (a *Actor) Get(ctx context.Context, userID string) (*State, error) {
	resp, err := a.host.Call(ctx, Namespace, userID, func(_ context.Context, raw []byte) (any, []byte, bool, error) {
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

// mutate is the shared plumbing every write handler below uses: load,
// apply fn, persist, return fn's result.
func (a *Actor) mutate(ctx context.Context, userID string, fn func(s *State) (any, error)) (any, error) {
	resp, err := a.host.Call(ctx, Namespace, userID, func(_ context.Context, raw []byte) (any, []byte, bool, error) {
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

func (a *Actor) UpdateProfile(ctx context.Context, userID string, apply func(*Profile)) (*Profile, error) {
	resp, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		apply(&s.Profile)
		return s.Profile, nil
	})
	if err != nil {
		return nil, err
	}
	p := resp.(Profile)
	return &p, nil
}

func (a *Actor) UpdateSettings(ctx context.Context, userID string, apply func(*Settings)) (*Settings, error) {
	resp, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		apply(&s.Settings)
		s.NormalizeMutedWords(time.Now())
		return s.Settings, nil
	})
	if err != nil {
		return nil, err
	}
	set := resp.(Settings)
	return &set, nil
}

func (a *Actor) GetContext(ctx context.Context, userID string) (Context, error) {
	resp, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		return s.ToContext(), nil
	})
	if err != nil {
		return Context{}, err
	}
	return resp.(Context), nil
}

func (a *Actor) Follow(ctx context.Context, userID, targetID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.Follow(targetID)
		return nil, nil
	})
	return err
}

func (a *Actor) Unfollow(ctx context.Context, userID, targetID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.Unfollow(targetID)
		return nil, nil
	})
	return err
}

func (a *Actor) AddFollower(ctx context.Context, userID, followerID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.AddFollower(followerID)
		return nil, nil
	})
	return err
}

func (a *Actor) RemoveFollower(ctx context.Context, userID, followerID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.RemoveFollower(followerID)
		return nil, nil
	})
	return err
}

func (a *Actor) Block(ctx context.Context, userID, targetID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.Block(targetID)
		return nil, nil
	})
	return err
}

func (a *Actor) Unblock(ctx context.Context, userID, targetID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.Unblock(targetID)
		return nil, nil
	})
	return err
}

func (a *Actor) IsFollowing(ctx context.Context, userID, targetID string) (bool, error) {
	resp, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		return s.IsFollowing(targetID), nil
	})
	if err != nil {
		return false, err
	}
	return resp.(bool), nil
}

func (a *Actor) IsBlocked(ctx context.Context, userID, targetID string) (bool, error) {
	resp, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		return s.IsBlocked(targetID), nil
	})
	if err != nil {
		return false, err
	}
	return resp.(bool), nil
}

func (a *Actor) AddLikedPost(ctx context.Context, userID, postID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.AddLikedPost(postID)
		return nil, nil
	})
	return err
}

func (a *Actor) RemoveLikedPost(ctx context.Context, userID, postID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.RemoveLikedPost(postID)
		return nil, nil
	})
	return err
}

func (a *Actor) IncrementPostCount(ctx context.Context, userID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.IncrementPostCount()
		return nil, nil
	})
	return err
}

func (a *Actor) DecrementPostCount(ctx context.Context, userID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.DecrementPostCount()
		return nil, nil
	})
	return err
}

func (a *Actor) SyncCounts(ctx context.Context, userID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.SyncCounts()
		return nil, nil
	})
	return err
}

func (a *Actor) Ban(ctx context.Context, userID, reason string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.Ban(reason, time.Now())
		return nil, nil
	})
	return err
}

func (a *Actor) Unban(ctx context.Context, userID string) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.Unban()
		return nil, nil
	})
	return err
}

func (a *Actor) SetAdmin(ctx context.Context, userID string, admin bool) error {
	_, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.SetAdmin(admin)
		return nil, nil
	})
	return err
}

// UpdatePassword replaces the stored password hash, returning the updated
// state so callers (e.g. auth.Service) don't need a second round trip.
func (a *Actor) UpdatePassword(ctx context.Context, userID, newHash string) (*State, error) {
	resp, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.SetPasswordHash(newHash)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.(*State), nil
}

// MarkVerified flips the account's email-verified flag.
func (a *Actor) MarkVerified(ctx context.Context, userID string) (*State, error) {
	resp, err := a.mutate(ctx, userID, func(s *State) (any, error) {
		s.MarkVerified()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.(*State), nil
}

// mapErr translates actor-runtime sentinel errors into the apperr taxonomy
// the HTTP layer understands.
func mapErr(err error) error {
	switch err {
	case actor.ErrNotInitialized:
		return apperr.NotFound("User")
	case actor.ErrAlreadyInitialized:
		return apperr.Conflict("User already exists")
	default:
		if apperr.IsAppError(err) {
			return err
		}
		return apperr.Transient(err)
	}
}
