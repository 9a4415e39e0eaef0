// Copyright (c) 2026 The Wire. All rights reserved.

package homefeed

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chrischabot/the-wire/internal/platform/middleware"
	requestutil "github.com/chrischabot/the-wire/internal/platform/request"
	"github.com/chrischabot/the-wire/internal/platform/respond"
)

// Handler implements the /api/feed HTTP surface: home, chronological, and
// global timelines.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] mounted at /api/feed.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/global", h.global)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/home", h.home)
		r.Get("/chronological", h.chronological)
	})

	return router
}

// feedResponse mirrors spec.md §6's feed envelope literally: posts, cursor,
// hasMore, independent of the outer {success,data} wrapper.
type feedResponse struct {
	Posts   any  `json:"posts"`
	Cursor  any  `json:"cursor"`
	HasMore bool `json:"hasMore"`
}

// home handles GET /api/feed/home.
func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limit := parseLimit(r)

	page, err := h.service.Home(r.Context(), userID, cursor, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, feedResponse{Posts: page.Posts, Cursor: nullableCursor(page.Cursor), HasMore: page.HasMore})
}

// chronological handles GET /api/feed/chronological.
func (h *Handler) chronological(w http.ResponseWriter, r *http.Request) {
	userID, err := requestutil.RequiredUserID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limit := parseLimit(r)

	page, err := h.service.Chronological(r.Context(), userID, cursor, limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, feedResponse{Posts: page.Posts, Cursor: nullableCursor(page.Cursor), HasMore: page.HasMore})
}

// global handles GET /api/feed/global. Anonymous access is allowed: the
// page carries no viewer-specific filtering.
func (h *Handler) global(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)

	posts, err := h.service.Global(r.Context(), limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, feedResponse{Posts: posts, Cursor: nil, HasMore: false})
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func nullableCursor(cursor string) any {
	if cursor == "" {
		return nil
	}
	return cursor
}
