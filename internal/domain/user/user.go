// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package user implements UserActor (Component D): the authoritative
per-account state — profile, settings, and social graph — addressed by the
Entity Actor runtime under namespace "user".

Handler methods are pure functions over [State] so they are unit-testable
without [actor.Host] or a live store; [Actor] is the thin adapter that
registers them with the runtime.
*/
package user

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/chrischabot/the-wire/pkg/orderedset"
	"github.com/chrischabot/the-wire/pkg/textnorm"
)

// MaxMutedWords is the hard cap on distinct muted-word entries per user.
const MaxMutedWords = 100

// MaxLikedPosts is the hard cap on the liked-posts MRU list.
const MaxLikedPosts = 1000

// MuteScope controls when a muted word applies.
type MuteScope string

const (
	// ScopeAll hides matching posts regardless of authorship.
	ScopeAll MuteScope = "all"
	// ScopeNotFollowing hides matching posts only from authors the user
	// does not follow and who are not the user themself.
	ScopeNotFollowing MuteScope = "not_following"
)

// MutedWord is a single per-user mute rule.
type MutedWord struct {
	Word      string     `json:"word"`
	Scope     MuteScope  `json:"scope"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Profile holds the mutable, user-facing account fields.
type Profile struct {
	DisplayName    string     `json:"displayName"`
	Bio            string     `json:"bio"`
	Location       string     `json:"location"`
	Website        string     `json:"website"`
	AvatarURL      string     `json:"avatarUrl"`
	BannerURL      string     `json:"bannerUrl"`
	JoinedAt       time.Time  `json:"joinedAt"`
	FollowerCount  int        `json:"followerCount"`
	FollowingCount int        `json:"followingCount"`
	PostCount      int        `json:"postCount"`
	IsVerified     bool       `json:"isVerified"`
	IsBanned       bool       `json:"isBanned"`
	IsAdmin        bool       `json:"isAdmin"`
	BannedAt       *time.Time `json:"bannedAt,omitempty"`
	BannedReason   string     `json:"bannedReason,omitempty"`
}

// Settings holds user preferences.
type Settings struct {
	EmailNotifications bool        `json:"emailNotifications"`
	PrivateAccount     bool        `json:"privateAccount"`
	MutedWords         []MutedWord `json:"mutedWords"`
}

// State is UserActor's complete durable state.
type State struct {
	ID           string   `json:"id"`
	Handle       string   `json:"handle"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	LastLogin    time.Time `json:"lastLogin,omitempty"`

	Profile  Profile  `json:"profile"`
	Settings Settings `json:"settings"`

	Following orderedset.Set `json:"following"`
	Followers orderedset.Set `json:"followers"`
	Blocked   orderedset.Set `json:"blocked"`

	// LikedPosts is most-recent-first, capped at MaxLikedPosts.
	LikedPosts []string `json:"likedPosts"`
}

// Context is the batched read UserActor returns to avoid per-field
// cross-actor chatter from the home-feed assembler and post service.
type Context struct {
	Blocked    []string    `json:"blocked"`
	MutedWords []MutedWord `json:"mutedWords"`
	Following  []string    `json:"following"`
}

// Marshal/Unmarshal are the actor runtime's state (de)serialization boundary.
func Marshal(s *State) ([]byte, error)   { return json.Marshal(s) }
func Unmarshal(b []byte) (*State, error) {
	s := &State{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

// NewState constructs a fresh, empty UserActor state for signup.
func NewState(id, handle, email, passwordHash string, now time.Time) *State {
	return &State{
		ID:           id,
		Handle:       handle,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		Profile: Profile{
			JoinedAt: now,
		},
		Settings:  Settings{EmailNotifications: true},
		Following: orderedset.New(),
		Followers: orderedset.New(),
		Blocked:   orderedset.New(),
	}
}

// # Social graph mutations — all idempotent, all no-ops against self.

func (s *State) Follow(targetID string) {
	if targetID == s.ID {
		return
	}
	if s.Following.Add(targetID) {
		s.Profile.FollowingCount++
	}
}

func (s *State) Unfollow(targetID string) {
	if targetID == s.ID {
		return
	}
	if s.Following.Remove(targetID) {
		s.Profile.FollowingCount = decFloor0(s.Profile.FollowingCount)
	}
}

func (s *State) AddFollower(followerID string) {
	if followerID == s.ID {
		return
	}
	if s.Followers.Add(followerID) {
		s.Profile.FollowerCount++
	}
}

func (s *State) RemoveFollower(followerID string) {
	if followerID == s.ID {
		return
	}
	if s.Followers.Remove(followerID) {
		s.Profile.FollowerCount = decFloor0(s.Profile.FollowerCount)
	}
}

// Block adds targetID to blocked and severs any follow relationship in
// either direction. The symmetric removal of the reverse follow edge
// (targetID no longer following s) is the caller's (service's)
// responsibility — it requires a call into targetID's own UserActor.
func (s *State) Block(targetID string) {
	if targetID == s.ID {
		return
	}
	s.Blocked.Add(targetID)
	s.Unfollow(targetID)
	s.RemoveFollower(targetID)
}

func (s *State) Unblock(targetID string) {
	s.Blocked.Remove(targetID)
}

func (s *State) IsFollowing(targetID string) bool { return s.Following.Has(targetID) }
func (s *State) IsBlocked(targetID string) bool    { return s.Blocked.Has(targetID) }

// # Liked posts (MRU list, capped)

func (s *State) AddLikedPost(postID string) {
	for _, id := range s.LikedPosts {
		if id == postID {
			return
		}
	}
	s.LikedPosts = append([]string{postID}, s.LikedPosts...)
	if len(s.LikedPosts) > MaxLikedPosts {
		s.LikedPosts = s.LikedPosts[:MaxLikedPosts]
	}
}

func (s *State) RemoveLikedPost(postID string) {
	out := s.LikedPosts[:0]
	for _, id := range s.LikedPosts {
		if id != postID {
			out = append(out, id)
		}
	}
	s.LikedPosts = out
}

// # Post count

func (s *State) IncrementPostCount() { s.Profile.PostCount++ }
func (s *State) DecrementPostCount() { s.Profile.PostCount = decFloor0(s.Profile.PostCount) }
func (s *State) ResetPostCount()     { s.Profile.PostCount = 0 }

// SyncCounts rewrites followingCount/followerCount from set cardinality —
// the self-healing operation spec.md §4.D names.
func (s *State) SyncCounts() {
	s.Profile.FollowingCount = s.Following.Len()
	s.Profile.FollowerCount = s.Followers.Len()
}

// # Moderation

func (s *State) Ban(reason string, now time.Time) {
	s.Profile.IsBanned = true
	s.Profile.BannedReason = reason
	bannedAt := now
	s.Profile.BannedAt = &bannedAt
}

func (s *State) Unban() {
	s.Profile.IsBanned = false
	s.Profile.BannedReason = ""
	s.Profile.BannedAt = nil
}

func (s *State) SetAdmin(admin bool) { s.Profile.IsAdmin = admin }

// # Credentials

func (s *State) SetPasswordHash(hash string) { s.PasswordHash = hash }
func (s *State) MarkVerified()               { s.Profile.IsVerified = true }

// # Settings normalisation — trim, lowercase, dedupe by (word,scope), drop
// expired, cap at MaxMutedWords. Applied on every read AND write per spec.

func (s *State) NormalizeMutedWords(now time.Time) {
	s.Settings.MutedWords = NormalizeMutedWords(s.Settings.MutedWords, now)
}

// NormalizeMutedWords is exported as a pure function so the home-feed
// filter can apply the identical rule to a value read out-of-band.
func NormalizeMutedWords(words []MutedWord, now time.Time) []MutedWord {
	seen := make(map[string]struct{}, len(words))
	out := make([]MutedWord, 0, len(words))

	for _, w := range words {
		word := textnorm.Fold(strings.TrimSpace(w.Word))
		if word == "" {
			continue
		}
		if w.ExpiresAt != nil && w.ExpiresAt.Before(now) {
			continue
		}
		key := word + "\x00" + string(w.Scope)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, MutedWord{Word: word, Scope: w.Scope, ExpiresAt: w.ExpiresAt})
		if len(out) >= MaxMutedWords {
			break
		}
	}
	return out
}

// ToContext builds the batched [Context] read.
func (s *State) ToContext() Context {
	now := time.Now()
	return Context{
		Blocked:    s.Blocked.Items(),
		MutedWords: NormalizeMutedWords(s.Settings.MutedWords, now),
		Following:  s.Following.Items(),
	}
}

func decFloor0(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
