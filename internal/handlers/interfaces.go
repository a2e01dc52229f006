package handlers

import (
	"context"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
)

// SessionService captures the account and session lifecycle operations the
// user handlers require.
type SessionService interface {
	Register(ctx context.Context, input auth.RegisterInput) (models.PublicUser, error)
	Login(ctx context.Context, input auth.LoginInput) (models.PublicUser, models.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (models.PublicUser, error)
	UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (models.PublicUser, error)
	UpdateAvatar(ctx context.Context, userID string, file *auth.FileRef) (models.PublicUser, error)
	UpdateCoverImage(ctx context.Context, userID string, file *auth.FileRef) (models.PublicUser, error)
}

// QueryEngine answers the derived channel and history views.
type QueryEngine interface {
	ChannelProfile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions SessionService
	Queries  QueryEngine
	Tokens   *auth.TokenIssuer
}
