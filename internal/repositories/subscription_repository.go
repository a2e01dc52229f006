package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// SubscriptionRepository defines the data access contract for subscription
// edges.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int64, error)
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// VideoRepository defines the data access contract for video records.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
}
