package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Sessions: deps.Sessions}
	channels := ChannelHandler{Queries: deps.Queries}

	requireAuth := middleware.RequireAuth(deps.Tokens)
	optionalAuth := middleware.OptionalAuth(deps.Tokens)

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/users/register", users.Register)
	mux.HandleFunc("/api/v1/users/login", users.Login)
	mux.HandleFunc("/api/v1/users/refresh-token", users.RefreshToken)

	mux.Handle("/api/v1/users/logout", requireAuth(http.HandlerFunc(users.Logout)))
	mux.Handle("/api/v1/users/change-password", requireAuth(http.HandlerFunc(users.ChangePassword)))
	mux.Handle("/api/v1/users/current-user", requireAuth(http.HandlerFunc(users.CurrentUser)))
	mux.Handle("/api/v1/users/update-account-details", requireAuth(http.HandlerFunc(users.UpdateAccountDetails)))
	mux.Handle("/api/v1/users/update-avatar", requireAuth(http.HandlerFunc(users.UpdateAvatar)))
	mux.Handle("/api/v1/users/cover-image", requireAuth(http.HandlerFunc(users.UpdateCoverImage)))

	mux.Handle("/api/v1/users/c/{username}", optionalAuth(http.HandlerFunc(channels.Profile)))
	mux.Handle("/api/v1/users/history", requireAuth(http.HandlerFunc(channels.History)))
}
