package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresViewRepository computes the derived social-graph and history views.
type PostgresViewRepository struct {
	pool db.Pool
}

// NewPostgresViewRepository constructs a view repository backed by PostgreSQL.
func NewPostgresViewRepository(pool db.Pool) *PostgresViewRepository {
	return &PostgresViewRepository{pool: pool}
}

// ChannelProfile resolves a channel by username and decorates it with
// subscriber counts and the viewer's subscription status. An empty viewerID
// (anonymous viewer) simply yields is_subscribed = false.
func (r *PostgresViewRepository) ChannelProfile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            u.full_name,
            u.username,
            u.avatar_url,
            u.cover_image_url,
            u.email,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscribers_count,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
            EXISTS (
                SELECT 1 FROM subscriptions s
                WHERE s.channel_id = u.id AND s.subscriber_id = $2
            ) AS is_subscribed
        FROM users u
        WHERE u.username = $1
    `, username, viewerID)

	var profile models.ChannelProfile
	if err := row.Scan(
		&profile.FullName, &profile.Username, &profile.AvatarURL,
		&profile.CoverImageURL, &profile.Email,
		&profile.SubscribersCount, &profile.ChannelsSubscribedToCount,
		&profile.IsSubscribed,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	return profile, nil
}

// WatchHistory resolves the user's watch history into video records with the
// owner projection embedded, preserving most-recent-first insertion order.
// The LEFT JOINs keep the user row visible even with an empty history, so a
// zero-row result means the user record itself is missing.
func (r *PostgresViewRepository) WatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT
            v.id, v.title, v.description, v.thumbnail_url, v.video_url, v.duration, v.views,
            o.full_name, o.username, o.avatar_url
        FROM users u
        LEFT JOIN watch_history wh ON wh.user_id = u.id
        LEFT JOIN videos v ON v.id = wh.video_id
        LEFT JOIN users o ON o.id = v.owner_id
        WHERE u.id = $1
        ORDER BY wh.id DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	entries := []models.WatchEntry{}
	found := false
	for rows.Next() {
		found = true

		var (
			videoID       sql.NullString
			title         sql.NullString
			description   sql.NullString
			thumbnailURL  sql.NullString
			videoURL      sql.NullString
			duration      sql.NullFloat64
			views         sql.NullInt64
			ownerFullName sql.NullString
			ownerUsername sql.NullString
			ownerAvatar   sql.NullString
		)

		if err := rows.Scan(
			&videoID, &title, &description, &thumbnailURL, &videoURL, &duration, &views,
			&ownerFullName, &ownerUsername, &ownerAvatar,
		); err != nil {
			return nil, fmt.Errorf("scan watch history row: %w", err)
		}

		// A NULL video id is the user row surviving the LEFT JOIN with an
		// empty history.
		if !videoID.Valid {
			continue
		}

		entries = append(entries, models.WatchEntry{
			ID:           videoID.String,
			Title:        title.String,
			Description:  description.String,
			ThumbnailURL: thumbnailURL.String,
			VideoURL:     videoURL.String,
			Duration:     duration.Float64,
			Views:        views.Int64,
			Owner: models.VideoOwner{
				FullName:  ownerFullName.String,
				Username:  ownerUsername.String,
				AvatarURL: ownerAvatar.String,
			},
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	if !found {
		return nil, ErrNotFound
	}

	return entries, nil
}

var _ ViewRepository = (*PostgresViewRepository)(nil)
