// Copyright (c) 2026 The Wire. All rights reserved.

package postsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chrischabot/the-wire/internal/platform/middleware"
	requestutil "github.com/chrischabot/the-wire/internal/platform/request"
	"github.com/chrischabot/the-wire/internal/platform/respond"
	"github.com/chrischabot/the-wire/internal/platform/validate"
)

// Handler implements the /api/posts HTTP surface.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] mounted at /api/posts.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{id}", h.get)
	router.Get("/{id}/thread", h.thread)
	router.Get("/{id}/replies", h.replies)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth, middleware.BlockBanned)
		r.Post("/", h.create)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/like", h.like)
		r.Delete("/{id}/like", h.unlike)
		r.Post("/{id}/repost", h.repost)
		r.Delete("/{id}/repost", h.unrepost)
	})

	return router
}

type createRequest struct {
	Content   string   `json:"content"`
	MediaURLs []string `json:"mediaUrls,omitempty"`
	ReplyToID string   `json:"replyToId,omitempty"`
	QuoteOfID string   `json:"quoteOfId,omitempty"`
}

// create handles POST /api/posts.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var in createRequest
	if err := requestutil.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, validate.ErrInvalidJSON)
		return
	}

	p, err := h.service.Create(r.Context(), CreateInput{
		AuthorID:  userID,
		Content:   in.Content,
		MediaURLs: in.MediaURLs,
		ReplyToID: in.ReplyToID,
		QuoteOfID: in.QuoteOfID,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Created(w, p)
}

// get handles GET /api/posts/:id.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), requestutil.ID(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, p)
}

// thread handles GET /api/posts/:id/thread.
func (h *Handler) thread(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.Thread(r.Context(), requestutil.ID(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, posts)
}

// replies handles GET /api/posts/:id/replies.
func (h *Handler) replies(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.Replies(r.Context(), requestutil.ID(r, "id"), h.service.cfg.MaxPaginationLimit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, posts)
}

// delete handles DELETE /api/posts/:id.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	claims, err := requestutil.RequiredClaims(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), claims.UserID, requestutil.ID(r, "id"), claims.IsPrivileged()); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}

// like handles POST /api/posts/:id/like.
func (h *Handler) like(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	p, err := h.service.Like(r.Context(), userID, requestutil.ID(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, p)
}

// unlike handles DELETE /api/posts/:id/like.
func (h *Handler) unlike(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	p, err := h.service.Unlike(r.Context(), userID, requestutil.ID(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, p)
}

// repost handles POST /api/posts/:id/repost.
func (h *Handler) repost(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	p, err := h.service.Repost(r.Context(), userID, requestutil.ID(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Created(w, p)
}

// unrepost handles DELETE /api/posts/:id/repost.
func (h *Handler) unrepost(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.service.Unrepost(r.Context(), userID, requestutil.ID(r, "id")); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.NoContent(w)
}
