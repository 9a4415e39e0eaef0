// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package auth implements signup, login, refresh-token sessions, and password
recovery on top of UserActor (Component D) and the KV store.

There is no separate "users table": a UserActor's [user.State] already holds
handle, email, and password hash, so this package's job is the identity
envelope around it — handle/email uniqueness indices, refresh-token
sessions, and one-shot reset/verification tokens — not a parallel account
record.
*/
package auth

import (
	"time"

	"github.com/chrischabot/the-wire/internal/domain/user"
)

// # View Types

// AccountView is the client-facing projection of a UserActor's state. It
// never carries PasswordHash, unlike [user.State] whose JSON tags are only
// safe for store round-trips.
type AccountView struct {
	ID             string    `json:"id"`
	Handle         string    `json:"handle"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName"`
	Bio            string    `json:"bio"`
	AvatarURL      string    `json:"avatarUrl"`
	BannerURL      string    `json:"bannerUrl"`
	JoinedAt       time.Time `json:"joinedAt"`
	FollowerCount  int       `json:"followerCount"`
	FollowingCount int       `json:"followingCount"`
	PostCount      int       `json:"postCount"`
	IsVerified     bool      `json:"isVerified"`
	IsAdmin        bool      `json:"isAdmin"`
}

// NewAccountView projects a UserActor [user.State] into its public view.
func NewAccountView(s *user.State) *AccountView {
	return &AccountView{
		ID:             s.ID,
		Handle:         s.Handle,
		Email:          s.Email,
		DisplayName:    s.Profile.DisplayName,
		Bio:            s.Profile.Bio,
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

// Session is a refresh-token session. Its presence in the store IS its
// validity: the store key carries RefreshTokenTTL, and revocation is
// physical deletion rather than an IsRevoked flag — there is no session
// table to soft-invalidate a row in.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"userAgent"`
	IPAddress string    `json:"ipAddress"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// # Field Identifiers

const (
	FieldHandle          = "handle"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "displayName"
	FieldLogin           = "login"
	FieldToken           = "token"
	FieldCurrentPassword = "currentPassword"
	FieldNewPassword     = "newPassword"
	FieldAccessToken     = "accessToken"
	FieldTokenType       = "tokenType"
	FieldExpiresIn       = "expiresIn"
	FieldUser            = "user"
	FieldMessage         = "message"
)
