// Copyright (c) 2026 The Wire. All rights reserved.

package profile

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chrischabot/the-wire/internal/domain/user"
	"github.com/chrischabot/the-wire/internal/platform/middleware"
	requestutil "github.com/chrischabot/the-wire/internal/platform/request"
	"github.com/chrischabot/the-wire/internal/platform/respond"
	"github.com/chrischabot/the-wire/internal/platform/validate"
)

// Handler implements the /api/users HTTP surface.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] mounted at /api/users.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{handle}", h.getByHandle)
	router.Get("/{handle}/followers", h.followers)
	router.Get("/{handle}/following", h.following)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", h.getMe)
		r.Put("/me", h.updateMe)
		r.Get("/me/settings", h.getSettings)
		r.Put("/me/settings", h.updateSettings)
		r.Get("/me/blocked", h.blocked)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BlockBanned)
			r.Post("/{handle}/follow", h.follow)
			r.Delete("/{handle}/follow", h.unfollow)
			r.Post("/{handle}/block", h.block)
			r.Delete("/{handle}/block", h.unblock)
		})
	})

	return router
}

// getMe handles GET /api/users/me.
func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	view, err := h.service.GetMe(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, view)
}

// getByHandle handles GET /api/users/:handle.
func (h *Handler) getByHandle(w http.ResponseWriter, r *http.Request) {
	viewerID := ""
	if claims := requestutil.Claims(r); claims != nil {
		viewerID = claims.UserID
	}
	view, err := h.service.GetByHandle(r.Context(), requestutil.ID(r, "handle"), viewerID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, view)
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
	AvatarURL   *string `json:"avatarUrl"`
	BannerURL   *string `json:"bannerUrl"`
}

// updateMe handles PUT /api/users/me.
func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var in updateProfileRequest
	if err := requestutil.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	if in.Bio != nil {
		v.MaxLen("bio", *in.Bio, 280)
	}
	if in.DisplayName != nil {
		v.MaxLen("displayName", *in.DisplayName, 50)
	}
	if err := v.Err(); err != nil {
		respond.Error(w, r, err)
		return
	}

	view, err := h.service.UpdateProfile(r.Context(), userID, UpdateProfileInput{
		DisplayName: in.DisplayName,
		Bio:         in.Bio,
		Location:    in.Location,
		Website:     in.Website,
		AvatarURL:   in.AvatarURL,
		BannerURL:   in.BannerURL,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, view)
}

// getSettings handles GET /api/users/me/settings.
func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	me, err := h.service.GetMe(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, me.Settings)
}

type updateSettingsRequest struct {
	EmailNotifications *bool            `json:"emailNotifications"`
	PrivateAccount     *bool            `json:"privateAccount"`
	MutedWords         []user.MutedWord `json:"mutedWords"`
}

// updateSettings handles PUT /api/users/me/settings.
func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var in updateSettingsRequest
	if err := requestutil.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, validate.ErrInvalidJSON)
		return
	}

	view, err := h.service.UpdateSettings(r.Context(), userID, UpdateSettingsInput{
		EmailNotifications: in.EmailNotifications,
		PrivateAccount:     in.PrivateAccount,
		MutedWords:         in.MutedWords,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, view)
}

// follow handles POST /api/users/:handle/follow.
func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.service.Follow(r.Context(), userID, requestutil.ID(r, "handle")); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// unfollow handles DELETE /api/users/:handle/follow.
func (h *Handler) unfollow(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.service.Unfollow(r.Context(), userID, requestutil.ID(r, "handle")); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// block handles POST /api/users/:handle/block.
func (h *Handler) block(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.service.Block(r.Context(), userID, requestutil.ID(r, "handle")); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// unblock handles DELETE /api/users/:handle/block.
func (h *Handler) unblock(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.service.Unblock(r.Context(), userID, requestutil.ID(r, "handle")); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// followers handles GET /api/users/:handle/followers.
func (h *Handler) followers(w http.ResponseWriter, r *http.Request) {
	offset, limit := parseOffsetLimit(r)
	list, err := h.service.Followers(r.Context(), requestutil.ID(r, "handle"), offset, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, list)
}

// following handles GET /api/users/:handle/following.
func (h *Handler) following(w http.ResponseWriter, r *http.Request) {
	offset, limit := parseOffsetLimit(r)
	list, err := h.service.Following(r.Context(), requestutil.ID(r, "handle"), offset, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, list)
}

// blocked handles GET /api/users/me/blocked.
func (h *Handler) blocked(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	offset, limit := parseOffsetLimit(r)
	list, err := h.service.Blocked(r.Context(), userID, offset, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, list)
}

func parseOffsetLimit(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return offset, limit
}
