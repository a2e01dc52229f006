package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	now := time.Now().UTC()
	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, '', $8, $8)
    `, user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.CoverImageURL, user.PasswordHash, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByLogin fetches a user whose username or email equals the identifier.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, identifier string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, identifier)
}

// FindByUsernameOrEmail fetches a user matching either field. Used for the
// registration conflict check in a single lookup.
func (r *PostgresUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $2`, username, email)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, query, args...)

	var user models.User
	if err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.AvatarURL, &user.CoverImageURL, &user.PasswordHash,
		&user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// UpdateProfile changes the full name and email, returning the updated record.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error) {
	return r.updateReturning(ctx, `
        UPDATE users
        SET full_name = $2, email = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, email)
}

// UpdateAvatar replaces the avatar URL, returning the updated record.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) (models.User, error) {
	return r.updateReturning(ctx, `
        UPDATE users
        SET avatar_url = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns, id, avatarURL)
}

// UpdateCoverImage replaces the cover image URL, returning the updated record.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id, coverImageURL string) (models.User, error) {
	return r.updateReturning(ctx, `
        UPDATE users
        SET cover_image_url = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING `+userColumns, id, coverImageURL)
}

func (r *PostgresUserRepository) updateReturning(ctx context.Context, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, query, args...)

	var user models.User
	if err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.AvatarURL, &user.CoverImageURL, &user.PasswordHash,
		&user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `
        UPDATE users
        SET password_hash = $2, updated_at = NOW()
        WHERE id = $1
    `, id, passwordHash)
}

// SetRefreshToken overwrites the stored refresh token unconditionally. This is
// a token-only write: no other field is touched or validated.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, `
        UPDATE users
        SET refresh_token = $2
        WHERE id = $1
    `, id, token)
}

// SwapRefreshToken replaces the stored refresh token only when it still equals
// current. ErrNotFound means the token was already rotated (or the user is
// gone) and the caller lost the race.
func (r *PostgresUserRepository) SwapRefreshToken(ctx context.Context, id, current, next string) error {
	return r.exec(ctx, `
        UPDATE users
        SET refresh_token = $3
        WHERE id = $1 AND refresh_token = $2
    `, id, current, next)
}

// ClearRefreshToken empties the stored refresh token.
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.exec(ctx, `
        UPDATE users
        SET refresh_token = ''
        WHERE id = $1
    `, id)
}

// AppendWatchHistory records a view at the head of the user's history.
// Duplicate video ids are allowed; ordering comes from the insert sequence.
func (r *PostgresUserRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, NOW())
    `, userID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert watch history: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) exec(ctx context.Context, query string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresSubscriptionRepository persists channel subscription edges.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository
// backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Create stores a new subscription edge. Edges are intentionally not unique:
// counting treats each row independently.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.SubscriberID, sub.ChannelID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// CountForChannel returns how many edges point at the channel.
func (r *PostgresSubscriptionRepository) CountForChannel(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountForSubscriber returns how many channels the user follows.
func (r *PostgresSubscriptionRepository) CountForSubscriber(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

// Exists reports whether at least one edge links subscriber to channel.
func (r *PostgresSubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
        )
    `, subscriberID, channelID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("select subscription exists: %w", err)
	}

	return exists, nil
}

func (r *PostgresSubscriptionRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int64
	if err := conn.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return n, nil
}

// PostgresVideoRepository persists video records. The identity core reads
// these; writes exist for the video service, seeds, and tests.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, thumbnail_url, video_url, duration, views, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.ThumbnailURL, video.VideoURL, video.Duration, video.Views, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video record.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, title, description, thumbnail_url, video_url, duration, views, created_at
        FROM videos
        WHERE id = $1
    `, id)

	var video models.Video
	if err := row.Scan(
		&video.ID, &video.OwnerID, &video.Title, &video.Description,
		&video.ThumbnailURL, &video.VideoURL, &video.Duration, &video.Views, &video.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
