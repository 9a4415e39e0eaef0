// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package auth implements The Wire's identity lifecycle: signup, login,
refresh-token rotation, logout, and password recovery, all addressed
through UserActor and the shared KV store rather than a relational users
table.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chrischabot/the-wire/internal/domain/user"
	"github.com/chrischabot/the-wire/internal/platform/apperr"
	"github.com/chrischabot/the-wire/internal/platform/config"
	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/kv"
	"github.com/chrischabot/the-wire/internal/platform/sec"
	"github.com/chrischabot/the-wire/pkg/uuid"
)

// TokenProvider issues signed access tokens. Defined here (rather than
// depended on concretely) so the service is testable against a fake.
type TokenProvider interface {
	GenerateAccessToken(userID, handle string, admin, banned bool, timeToLive time.Duration) (string, error)
}

// Service implements the account lifecycle use cases.
type Service struct {
	users    *user.Actor
	store    kv.Store
	sessions *sessionStore
	tokens   TokenProvider
	cfg      *config.Config
	logger   *slog.Logger
}

// NewService constructs a new [Service] with its collaborators.
func NewService(users *user.Actor, store kv.Store, tokens TokenProvider, cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		store:    store,
		sessions: newSessionStore(store),
		tokens:   tokens,
		cfg:      cfg,
		logger:   logger,
	}
}

func handleIndexKey(handle string) string { return constants.KeyPrefixHandleIdx + strings.ToLower(handle) }
func emailIndexKey(email string) string   { return constants.KeyPrefixEmailIdx + strings.ToLower(email) }

// # Registration

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Handle      string
	Email       string
	Password    string
	DisplayName string
}

// Register validates uniqueness, hashes the password, creates the
// UserActor, wires spec-level signup side effects (auto-follow seeds,
// first-admin bootstrap), and returns the public account view.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AccountView, error) {
	handle := strings.ToLower(strings.TrimSpace(in.Handle))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, reserved := reservedHandles[handle]; reserved {
		return nil, apperr.Conflict("This handle is reserved")
	}

	if _, found, err := s.store.Get(ctx, handleIndexKey(handle)); err != nil {
		return nil, apperr.Transient(err)
	} else if found {
		return nil, apperr.Conflict("Handle is already taken")
	}

	if _, found, err := s.store.Get(ctx, emailIndexKey(email)); err != nil {
		return nil, apperr.Transient(err)
	} else if found {
		return nil, apperr.Conflict("Email is already registered")
	}

	hashedPassword, err := sec.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	userID := uuid.New()
	st := user.NewState(userID, handle, email, hashedPassword, time.Now())
	st.Profile.DisplayName = in.DisplayName
	// The first account to claim the configured admin handle is granted
	// admin at signup; every account after it is an ordinary member even
	// if it somehow also matches (handle uniqueness already rules that
	// out in practice, since the index claim below would have failed).
	if s.cfg.InitialAdminHandle != "" && handle == strings.ToLower(s.cfg.InitialAdminHandle) {
		st.Profile.IsAdmin = true
	}

	if err := s.users.Initialize(ctx, userID, st); err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, handleIndexKey(handle), []byte(userID), 0); err != nil {
		return nil, apperr.Transient(err)
	}
	if err := s.store.Put(ctx, emailIndexKey(email), []byte(userID), 0); err != nil {
		return nil, apperr.Transient(err)
	}

	s.autoFollowSeeds(ctx, userID)

	return NewAccountView(st), nil
}

// autoFollowSeeds follows every handle in cfg.AutoFollowSeeds() on behalf
// of the new account. Failures are logged, not fatal — a missing seed
// handle (not yet onboarded, e.g.) must never block signup.
func (s *Service) autoFollowSeeds(ctx context.Context, userID string) {
	for _, handle := range s.cfg.AutoFollowSeeds() {
		raw, found, err := s.store.Get(ctx, handleIndexKey(handle))
		if err != nil || !found {
			continue
		}
		seedID := string(raw)
		if seedID == userID {
			continue
		}
		if err := s.users.Follow(ctx, userID, seedID); err != nil {
			s.logger.WarnContext(ctx, "auto_follow_seed_failed", slog.String("handle", handle), slog.Any("err", err))
			continue
		}
		if err := s.users.AddFollower(ctx, seedID, userID); err != nil {
			s.logger.WarnContext(ctx, "auto_follow_seed_follower_failed", slog.String("handle", handle), slog.Any("err", err))
		}
	}
}

// # Login

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login     string // handle or email
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession is a successfully established session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	Account               *AccountView
}

// Login verifies credentials and issues a fresh access/refresh token pair.
// Banned accounts are rejected outright — a ban takes effect immediately,
// not just once the current access token expires.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginSession, error) {
	userID, err := s.resolveLogin(ctx, in.Login)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	st, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if !sec.CheckPasswordHash(in.Password, st.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}
	if st.Profile.IsBanned {
		return nil, apperr.Forbidden("This account has been suspended")
	}

	return s.issueSession(ctx, st, in.UserAgent, in.IPAddress)
}

// resolveLogin looks up a handle-or-email login identifier against both
// indices, handle first since it is the more common login field.
func (s *Service) resolveLogin(ctx context.Context, login string) (string, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if raw, found, err := s.store.Get(ctx, handleIndexKey(login)); err == nil && found {
		return string(raw), nil
	}
	raw, found, err := s.store.Get(ctx, emailIndexKey(login))
	if err != nil {
		return "", apperr.Transient(err)
	}
	if !found {
		return "", apperr.NotFound("Account")
	}
	return string(raw), nil
}

func (s *Service) issueSession(ctx context.Context, st *user.State, userAgent, ipAddress string) (*LoginSession, error) {
	ttl := time.Duration(s.cfg.AccessTokenTTL) * time.Hour
	accessToken, err := s.tokens.GenerateAccessToken(st.ID, st.Handle, st.Profile.IsAdmin, st.Profile.IsBanned, ttl)
	if err != nil {
		return nil, fmt.Errorf("auth: generate access token: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth: generate refresh token: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(RefreshTokenTTL)
	sess := &Session{
		ID:        uuid.New(),
		UserID:    st.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.create(ctx, sess); err != nil {
		return nil, apperr.Transient(err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		Account:               NewAccountView(st),
	}, nil
}

// # Session lifecycle

// Logout revokes the session behind refreshToken. Idempotent: an already
// revoked or unknown token is treated as a successful logout.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	sess, err := s.sessions.findByTokenHash(ctx, sec.HashToken(refreshToken))
	if err != nil {
		return nil
	}
	return s.sessions.revoke(ctx, sess)
}

// RefreshSession rotates a refresh token: the presented token is revoked
// regardless of outcome, and a brand new pair is issued, preventing replay
// of a stolen refresh token past its first reuse.
func (s *Service) RefreshSession(ctx context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {
	sess, err := s.sessions.findByTokenHash(ctx, sec.HashToken(refreshToken))
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}
	_ = s.sessions.revoke(ctx, sess)

	st, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Account no longer exists")
	}
	if st.Profile.IsBanned {
		return nil, apperr.Forbidden("This account has been suspended")
	}

	return s.issueSession(ctx, st, userAgent, ipAddress)
}

// # Password recovery

// RequestPasswordReset issues a reset token for email if an account owns
// it. The error is intentionally swallowed for an unknown email — the
// caller always responds as if the email was sent, preventing account
// enumeration.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	raw, found, err := s.store.Get(ctx, emailIndexKey(email))
	if err != nil || !found {
		return nil
	}
	userID := string(raw)

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return fmt.Errorf("auth: generate reset token: %w", err)
	}
	return putOneShotToken(ctx, s.store, constants.KeyPrefixResetToken, token, userID, ResetTokenTTL)
}

// ResetPassword completes the forgot-password flow: verifies the token,
// replaces the password hash, and revokes every live session belonging to
// the account as a security cleanup.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := getOneShotToken(ctx, s.store, constants.KeyPrefixResetToken, token, "Reset token is invalid or expired")
	if err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}

	if _, err := s.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}

	_ = s.sessions.revokeAll(ctx, userID)
	_ = deleteOneShotToken(ctx, s.store, constants.KeyPrefixResetToken, token)
	return nil
}

// ChangePassword lets an authenticated user rotate their own password,
// revoking every OTHER live session so a stolen device is cut off.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, currentRefreshToken string) error {
	st, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !sec.CheckPasswordHash(currentPassword, st.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if _, err := s.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}

	_ = s.sessions.revokeOthers(ctx, userID, sec.HashToken(currentRefreshToken))
	return nil
}

// VerifyEmail marks an account's email verified using a one-shot token.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := getOneShotToken(ctx, s.store, constants.KeyPrefixVerifyTok, token, "Verification token is invalid or expired")
	if err != nil {
		return err
	}
	if _, err := s.users.MarkVerified(ctx, userID); err != nil {
		return err
	}
	return deleteOneShotToken(ctx, s.store, constants.KeyPrefixVerifyTok, token)
}

// Me returns the authenticated account's public view.
func (s *Service) Me(ctx context.Context, userID string) (*AccountView, error) {
	st, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewAccountView(st), nil
}

// SendVerificationEmail issues a fresh verification token for an
// authenticated, not-yet-verified account.
func (s *Service) SendVerificationEmail(ctx context.Context, userID string) (string, error) {
	token, err := sec.GenerateSecureToken(VerificationTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth: generate verification token: %w", err)
	}
	if err := putOneShotToken(ctx, s.store, constants.KeyPrefixVerifyTok, token, userID, VerificationTokenTTL); err != nil {
		return "", apperr.Transient(err)
	}
	return token, nil
}
