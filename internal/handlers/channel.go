package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/middleware"
)

// ChannelHandler serves the derived channel profile and watch history views.
type ChannelHandler struct {
	Queries QueryEngine
}

// Profile handles GET /api/v1/users/c/{username}. Authentication is optional
// and only affects the isSubscribed flag.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	profile, err := h.Queries.ChannelProfile(ctx, middleware.UserIDFrom(ctx), r.PathValue("username"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, profile, "user channel fetched successfully")
}

// History handles GET /api/v1/users/history.
func (h ChannelHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	entries, err := h.Queries.WatchHistory(ctx, middleware.UserIDFrom(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, entries, "watch history fetched successfully")
}
