// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package auth provides the HTTP delivery layer for the account lifecycle:
signup, login, refresh, logout, and password recovery.
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chrischabot/the-wire/internal/platform/apperr"
	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/middleware"
	requestutil "github.com/chrischabot/the-wire/internal/platform/request"
	"github.com/chrischabot/the-wire/internal/platform/respond"
	"github.com/chrischabot/the-wire/internal/platform/validate"
)

// Handler implements the account-lifecycle HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] mounted at /api/auth.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/signup", h.register)
	router.Post("/login", h.login)
	router.Post("/refresh", h.refresh)
	router.Post("/verify-email", h.verifyEmail)
	router.Post("/reset/request", h.forgotPassword)
	router.Post("/reset/confirm", h.resetPassword)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
		r.Post("/change-password", h.changePassword)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Handle      string `json:"handle"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// register handles POST /api/auth/signup.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := requestutil.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldHandle, in.Handle).
		MinLen(FieldHandle, in.Handle, MinHandleLength).
		MaxLen(FieldHandle, in.Handle, MaxHandleLength).
		Required(FieldEmail, in.Email).
		Email(FieldEmail, in.Email).
		Required(FieldPassword, in.Password).
		MinLen(FieldPassword, in.Password, 8)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	account, err := h.service.Register(r.Context(), RegisterInput{
		Handle:      in.Handle,
		Email:       in.Email,
		Password:    in.Password,
		DisplayName: in.DisplayName,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Created(w, account)
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := requestutil.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldLogin, in.Login).Required(FieldPassword, in.Password)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	session, err := h.service.Login(r.Context(), LoginInput{
		Login:     in.Login,
		Password:  in.Password,
		UserAgent: r.UserAgent(),
		IPAddress: middleware.RealIP(r),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	setRefreshCookie(w, session.RefreshToken, session.RefreshTokenExpiresAt)
	respond.OK(w, map[string]any{
		"accessToken": session.AccessToken,
		"user":        session.Account,
	})
}

// logout handles POST /api/auth/logout.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(constants.RefreshTokenCookieName); err == nil && cookie.Value != "" {
		_ = h.service.Logout(r.Context(), cookie.Value)
	}
	clearRefreshCookie(w)
	respond.NoContent(w)
}

// refresh handles POST /api/auth/refresh.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(w, r, apperr.Unauthorized("Missing refresh token in cookies"))
		return
	}

	session, err := h.service.RefreshSession(r.Context(), cookie.Value, r.UserAgent(), middleware.RealIP(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	setRefreshCookie(w, session.RefreshToken, session.RefreshTokenExpiresAt)
	respond.OK(w, map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int64(time.Until(session.RefreshTokenExpiresAt).Seconds()),
	})
}

// verifyEmail handles POST /api/auth/verify-email.
func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var in verifyEmailRequest
	if err := requestutil.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, validate.ErrInvalidJSON)
		return
	}
	if in.Token == "" {
		respond.Error(w, r, validate.RequiredError(FieldToken, "is required"))
		return
	}

	if err := h.service.VerifyEmail(r.Context(), in.Token); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]string{FieldMessage: "Email verified successfully"})
}

// forgotPassword handles POST /api/auth/reset/request.
func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotPasswordRequest
	if err := requestutil.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, in.Email).Email(FieldEmail, in.Email)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), in.Email); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]string{FieldMessage: "If this email is registered, a reset link has been sent."})
}

// resetPassword handles POST /api/auth/reset/confirm.
func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetPasswordRequest
	if err := requestutil.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, in.Token).
		Required(FieldPassword, in.Password).
		MinLen(FieldPassword, in.Password, 8)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), in.Token, in.Password); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]string{FieldMessage: "Password updated successfully"})
}

// changePassword handles POST /api/auth/change-password.
func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	claims, err := requestutil.RequiredClaims(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	cookie, err := r.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(w, r, apperr.Unauthorized("Missing active session cookie"))
		return
	}

	var in changePasswordRequest
	if err := requestutil.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, in.CurrentPassword).
		Required(FieldNewPassword, in.NewPassword).
		MinLen(FieldNewPassword, in.NewPassword, 8)
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	err = h.service.ChangePassword(r.Context(), claims.UserID, in.CurrentPassword, in.NewPassword, cookie.Value)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, map[string]string{FieldMessage: "Password changed successfully"})
}

// me handles GET /api/auth/me.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, err := requestutil.RequiredClaims(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	account, err := h.service.Me(r.Context(), claims.UserID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, account)
}

func setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  expiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
