package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetRefreshToken(ctx context.Context, id, token string) error
	SwapRefreshToken(ctx context.Context, id, current, next string) error
	ClearRefreshToken(ctx context.Context, id string) error
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}
