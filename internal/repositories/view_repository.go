package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// ViewRepository serves the derived read-only views consumed by the
// aggregation query engine. Each view is a single join-and-shape query so the
// result is one consistent snapshot.
type ViewRepository interface {
	ChannelProfile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error)
}
