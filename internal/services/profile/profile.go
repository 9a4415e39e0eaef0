// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package profile implements the public-profile and social-graph surface of
spec.md §6's `/api/users/*` routes: viewing and editing one's own profile
and settings, viewing another account's public profile, and the
follow/unfollow/block/unblock mutations plus their list endpoints.

Credential concerns (signup, login, password) stay in the auth package;
this package only ever reads/writes UserActor's profile, settings, and
social-graph fields.
*/
package profile

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chrischabot/the-wire/internal/domain/user"
	"github.com/chrischabot/the-wire/internal/platform/apperr"
	"github.com/chrischabot/the-wire/internal/platform/config"
	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/kv"
	"github.com/chrischabot/the-wire/pkg/pointer"
)

// Service implements the profile/social-graph use cases.
type Service struct {
	users  *user.Actor
	store  kv.Store
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs a Service from its collaborators.
func New(users *user.Actor, store kv.Store, cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{users: users, store: store, cfg: cfg, logger: logger}
}

// PublicProfile is the view returned for any account other than the
// viewer's own — no email, no settings.
type PublicProfile struct {
	ID             string    `json:"id"`
	Handle         string    `json:"handle"`
	DisplayName    string    `json:"displayName"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	Website        string    `json:"website"`
	AvatarURL      string    `json:"avatarUrl"`
	BannerURL      string    `json:"bannerUrl"`
	JoinedAt       time.Time `json:"joinedAt"`
	FollowerCount  int       `json:"followerCount"`
	FollowingCount int       `json:"followingCount"`
	PostCount      int       `json:"postCount"`
	IsVerified     bool      `json:"isVerified"`
	IsAdmin        bool      `json:"isAdmin"`
	IsFollowing    *bool     `json:"isFollowing,omitempty"`
	IsBlocked      *bool     `json:"isBlocked,omitempty"`
}

// MeProfile is the view returned for GET /api/users/me: the public fields
// plus the account's private credentials-adjacent metadata.
type MeProfile struct {
	PublicProfile
	Email    string       `json:"email"`
	Settings SettingsView `json:"settings"`
}

// SettingsView is the JSON shape of GET/PUT /api/users/me/settings.
type SettingsView struct {
	EmailNotifications bool             `json:"emailNotifications"`
	PrivateAccount     bool             `json:"privateAccount"`
	MutedWords         []user.MutedWord `json:"mutedWords"`
}

// Summary is the lightweight view returned in followers/following/blocked
// listings — enough for a client to render a row without a second fetch
// per entry.
type Summary struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

func newPublicProfile(s *user.State) PublicProfile {
	return PublicProfile{
		ID:             s.ID,
		Handle:         s.Handle,
		DisplayName:    s.Profile.DisplayName,
		Bio:            s.Profile.Bio,
		Location:       s.Profile.Location,
		Website:        s.Profile.Website,
		AvatarURL:      s.Profile.AvatarURL,
		BannerURL:      s.Profile.BannerURL,
		JoinedAt:       s.Profile.JoinedAt,
		FollowerCount:  s.Profile.FollowerCount,
		FollowingCount: s.Profile.FollowingCount,
		PostCount:      s.Profile.PostCount,
		IsVerified:     s.Profile.IsVerified,
		IsAdmin:        s.Profile.IsAdmin,
	}
}

func newSettingsView(s *user.State) SettingsView {
	return SettingsView{
		EmailNotifications: s.Settings.EmailNotifications,
		PrivateAccount:     s.Settings.PrivateAccount,
		MutedWords:         s.Settings.MutedWords,
	}
}

func handleIndexKey(handle string) string {
	return constants.KeyPrefixHandleIdx + strings.ToLower(strings.TrimSpace(handle))
}

// resolveHandle looks up the user id owning handle.
func (s *Service) resolveHandle(ctx context.Context, handle string) (string, error) {
	raw, found, err := s.store.Get(ctx, handleIndexKey(handle))
	if err != nil {
		return "", apperr.Transient(err)
	}
	if !found {
		return "", apperr.NotFound("User")
	}
	return string(raw), nil
}

// GetMe returns userID's own profile view, including settings and email.
func (s *Service) GetMe(ctx context.Context, userID string) (*MeProfile, error) {
	st, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MeProfile{PublicProfile: newPublicProfile(st), Email: st.Email, Settings: newSettingsView(st)}, nil
}

// GetByHandle returns handle's public profile. viewerID is optional
// (empty for an anonymous request); when set, IsFollowing/IsBlocked are
// populated from the viewer's own social graph.
func (s *Service) GetByHandle(ctx context.Context, handle, viewerID string) (*PublicProfile, error) {
	userID, err := s.resolveHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	st, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := newPublicProfile(st)

	if viewerID != "" && viewerID != userID {
		following, err := s.users.IsFollowing(ctx, viewerID, userID)
		if err == nil {
			view.IsFollowing = &following
		}
		blocked, err := s.users.IsBlocked(ctx, viewerID, userID)
		if err == nil {
			view.IsBlocked = &blocked
		}
	}
	return &view, nil
}

// UpdateProfileInput carries the caller-editable profile fields; a nil
// pointer leaves the existing value untouched.
type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string
	Location    *string
	Website     *string
	AvatarURL   *string
	BannerURL   *string
}

// UpdateProfile applies a partial update to userID's profile fields.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*MeProfile, error) {
	st, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.UpdateProfile(ctx, userID, func(p *user.Profile) {
		p.DisplayName = pointer.Fallback(in.DisplayName, p.DisplayName)
		p.Bio = pointer.Fallback(in.Bio, p.Bio)
		p.Location = pointer.Fallback(in.Location, p.Location)
		p.Website = pointer.Fallback(in.Website, p.Website)
		p.AvatarURL = pointer.Fallback(in.AvatarURL, p.AvatarURL)
		p.BannerURL = pointer.Fallback(in.BannerURL, p.BannerURL)
	}); err != nil {
		return nil, err
	}

	return s.GetMe(ctx, st.ID)
}

// UpdateSettingsInput carries the caller-editable settings fields; a nil
// pointer leaves the existing value untouched. MutedWords, when non-nil,
// fully replaces the existing list (normalised on write).
type UpdateSettingsInput struct {
	EmailNotifications *bool
	PrivateAccount     *bool
	MutedWords         []user.MutedWord
}

// UpdateSettings applies a partial update to userID's settings.
func (s *Service) UpdateSettings(ctx context.Context, userID string, in UpdateSettingsInput) (*SettingsView, error) {
	if in.MutedWords != nil && len(in.MutedWords) > user.MaxMutedWords {
		return nil, apperr.ValidationError("Too many muted words", apperr.FieldError{
			Field:   "mutedWords",
			Message: "exceeds the maximum allowed entries",
		})
	}

	set, err := s.users.UpdateSettings(ctx, userID, func(st *user.Settings) {
		st.EmailNotifications = pointer.Fallback(in.EmailNotifications, st.EmailNotifications)
		st.PrivateAccount = pointer.Fallback(in.PrivateAccount, st.PrivateAccount)
		if in.MutedWords != nil {
			st.MutedWords = in.MutedWords
		}
	})
	if err != nil {
		return nil, err
	}
	return &SettingsView{EmailNotifications: set.EmailNotifications, PrivateAccount: set.PrivateAccount, MutedWords: set.MutedWords}, nil
}

// # Social graph

// Follow makes followerID follow the account behind targetHandle.
// Rejected if targetHandle has blocked followerID (spec.md §3 S3).
func (s *Service) Follow(ctx context.Context, followerID, targetHandle string) error {
	targetID, err := s.resolveHandle(ctx, targetHandle)
	if err != nil {
		return err
	}
	if targetID == followerID {
		return apperr.ValidationError("Cannot follow yourself", apperr.FieldError{Field: "handle", Message: "cannot target your own account"})
	}

	blocked, err := s.users.IsBlocked(ctx, targetID, followerID)
	if err != nil {
		return err
	}
	if blocked {
		return apperr.Forbidden("This account has blocked you")
	}

	if err := s.users.Follow(ctx, followerID, targetID); err != nil {
		return err
	}
	return s.users.AddFollower(ctx, targetID, followerID)
}

// Unfollow withdraws followerID's follow of targetHandle.
func (s *Service) Unfollow(ctx context.Context, followerID, targetHandle string) error {
	targetID, err := s.resolveHandle(ctx, targetHandle)
	if err != nil {
		return err
	}
	if err := s.users.Unfollow(ctx, followerID, targetID); err != nil {
		return err
	}
	return s.users.RemoveFollower(ctx, targetID, followerID)
}

// Block makes blockerID block targetHandle, severing any existing follow
// edge in both directions (spec.md §3 S3: block removes follow).
func (s *Service) Block(ctx context.Context, blockerID, targetHandle string) error {
	targetID, err := s.resolveHandle(ctx, targetHandle)
	if err != nil {
		return err
	}
	if targetID == blockerID {
		return apperr.ValidationError("Cannot block yourself", apperr.FieldError{Field: "handle", Message: "cannot target your own account"})
	}

	if err := s.users.Block(ctx, blockerID, targetID); err != nil {
		return err
	}
	// Block() on the blocker's own state already severed its own
	// following/followers edges toward target; the symmetric edges on
	// target's side require a second call into target's UserActor.
	if err := s.users.Unfollow(ctx, targetID, blockerID); err != nil {
		s.logger.ErrorContext(ctx, "block_reverse_unfollow_failed", slog.String("target_id", targetID), slog.Any("err", err))
	}
	if err := s.users.RemoveFollower(ctx, targetID, blockerID); err != nil {
		s.logger.ErrorContext(ctx, "block_reverse_remove_follower_failed", slog.String("target_id", targetID), slog.Any("err", err))
	}
	return nil
}

// Unblock lifts blockerID's block of targetHandle.
func (s *Service) Unblock(ctx context.Context, blockerID, targetHandle string) error {
	targetID, err := s.resolveHandle(ctx, targetHandle)
	if err != nil {
		return err
	}
	return s.users.Unblock(ctx, blockerID, targetID)
}

// # Listings — offset/limit over the social-graph sets, capped by
// cfg.MaxPaginationLimit.

func (s *Service) Followers(ctx context.Context, handle string, offset, limit int) ([]Summary, error) {
	userID, err := s.resolveHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	st, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, paginate(st.Followers.Items(), offset, s.clampLimit(limit)))
}

func (s *Service) Following(ctx context.Context, handle string, offset, limit int) ([]Summary, error) {
	userID, err := s.resolveHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	st, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, paginate(st.Following.Items(), offset, s.clampLimit(limit)))
}

// Blocked lists userID's own blocked accounts — never exposed for another
// account, so it takes a userID directly rather than a handle.
func (s *Service) Blocked(ctx context.Context, userID string, offset, limit int) ([]Summary, error) {
	st, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, paginate(st.Blocked.Items(), offset, s.clampLimit(limit)))
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 || limit > s.cfg.MaxPaginationLimit {
		return s.cfg.DefaultFeedPageSize
	}
	return limit
}

func paginate(ids []string, offset, limit int) []string {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}

func (s *Service) summarize(ctx context.Context, ids []string) ([]Summary, error) {
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		st, err := s.users.Get(ctx, id)
		if err != nil {
			continue // a member may have deactivated; skip rather than fail the page
		}
		out = append(out, Summary{ID: st.ID, Handle: st.Handle, DisplayName: st.Profile.DisplayName, AvatarURL: st.Profile.AvatarURL})
	}
	return out, nil
}
