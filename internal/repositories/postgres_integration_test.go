package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidtube/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.Username != "alice" || fetched.Email != "alice@example.com" {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}
	if fetched.RefreshToken != "" {
		t.Fatalf("new users must have no refresh token, got %q", fetched.RefreshToken)
	}

	byUsername, err := repo.FindByLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	byEmail, err := repo.FindByLogin(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byUsername.ID != user.ID || byEmail.ID != user.ID {
		t.Fatalf("login lookups disagree: %q vs %q", byUsername.ID, byEmail.ID)
	}

	if _, err := repo.FindByLogin(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown identifier, got %v", err)
	}

	// Either field matching is enough for the registration conflict probe.
	if _, err := repo.FindByUsernameOrEmail(ctx, "alice", "other@example.com"); err != nil {
		t.Fatalf("find by username or email (username match): %v", err)
	}
	if _, err := repo.FindByUsernameOrEmail(ctx, "other", "alice@example.com"); err != nil {
		t.Fatalf("find by username or email (email match): %v", err)
	}
	if _, err := repo.FindByUsernameOrEmail(ctx, "other", "other@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for no match, got %v", err)
	}
}

func TestPostgresUserRepository_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	createTestUser(t, repo, "alice")

	dupUsername := models.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		Email:        "different@example.com",
		FullName:     "Another Alice",
		PasswordHash: "hash",
	}
	if err := repo.Create(ctx, dupUsername); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate username, got %v", err)
	}

	dupEmail := models.User{
		ID:           uuid.NewString(),
		Username:     "different",
		Email:        "alice@example.com",
		FullName:     "Another Alice",
		PasswordHash: "hash",
	}
	if err := repo.Create(ctx, dupEmail); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate email, got %v", err)
	}
}

func TestPostgresUserRepository_Updates(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")
	createTestUser(t, repo, "bob")

	updated, err := repo.UpdateProfile(ctx, user.ID, "Alice Renamed", "renamed@example.com")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FullName != "Alice Renamed" || updated.Email != "renamed@example.com" {
		t.Fatalf("profile update not returned: %+v", updated)
	}

	// Stealing another user's email trips the unique constraint.
	if _, err := repo.UpdateProfile(ctx, user.ID, "Alice Renamed", "bob@example.com"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on email collision, got %v", err)
	}

	if _, err := repo.UpdateProfile(ctx, uuid.NewString(), "Nobody", "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}

	withAvatar, err := repo.UpdateAvatar(ctx, user.ID, "https://media.test/avatars/new.png")
	if err != nil {
		t.Fatalf("update avatar: %v", err)
	}
	if withAvatar.AvatarURL != "https://media.test/avatars/new.png" {
		t.Fatalf("avatar update not returned: %+v", withAvatar)
	}

	withCover, err := repo.UpdateCoverImage(ctx, user.ID, "https://media.test/covers/new.png")
	if err != nil {
		t.Fatalf("update cover image: %v", err)
	}
	if withCover.CoverImageURL != "https://media.test/covers/new.png" {
		t.Fatalf("cover update not returned: %+v", withCover)
	}

	if err := repo.UpdatePassword(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find after password update: %v", err)
	}
	if fetched.PasswordHash != "new-hash" {
		t.Fatalf("password hash not persisted: %+v", fetched)
	}

	if err := repo.UpdatePassword(ctx, uuid.NewString(), "hash"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestPostgresUserRepository_RefreshTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	if err := repo.SetRefreshToken(ctx, user.ID, "token-1"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	if err := repo.SwapRefreshToken(ctx, user.ID, "token-1", "token-2"); err != nil {
		t.Fatalf("swap refresh token: %v", err)
	}

	// The superseded value no longer matches; the swap must lose.
	if err := repo.SwapRefreshToken(ctx, user.ID, "token-1", "token-3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for stale swap, got %v", err)
	}

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find after swap: %v", err)
	}
	if fetched.RefreshToken != "token-2" {
		t.Fatalf("stale swap must not overwrite, got %q", fetched.RefreshToken)
	}

	if err := repo.ClearRefreshToken(ctx, user.ID); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find after clear: %v", err)
	}
	if fetched.RefreshToken != "" {
		t.Fatalf("refresh token not cleared, got %q", fetched.RefreshToken)
	}

	if err := repo.SwapRefreshToken(ctx, user.ID, "token-2", "token-4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound swapping after clear, got %v", err)
	}
}

func TestPostgresSubscriptionRepository_CountsAndExists(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	subs := NewPostgresSubscriptionRepository(testPool)

	channel := createTestUser(t, users, "channel")
	fan1 := createTestUser(t, users, "fan1")
	fan2 := createTestUser(t, users, "fan2")

	for _, subscriber := range []models.User{fan1, fan2, fan2} {
		sub := models.Subscription{
			ID:           uuid.NewString(),
			SubscriberID: subscriber.ID,
			ChannelID:    channel.ID,
		}
		if err := subs.Create(ctx, sub); err != nil {
			t.Fatalf("create subscription: %v", err)
		}
	}

	// Duplicate edges are legal and each row counts.
	count, err := subs.CountForChannel(ctx, channel.ID)
	if err != nil {
		t.Fatalf("count for channel: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 subscriber edges, got %d", count)
	}

	count, err = subs.CountForSubscriber(ctx, fan2.ID)
	if err != nil {
		t.Fatalf("count for subscriber: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 subscribed edges, got %d", count)
	}

	exists, err := subs.Exists(ctx, fan1.ID, channel.ID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected edge to exist")
	}

	exists, err = subs.Exists(ctx, channel.ID, fan1.ID)
	if err != nil {
		t.Fatalf("exists reversed: %v", err)
	}
	if exists {
		t.Fatal("edge direction must matter")
	}

	orphan := models.Subscription{ID: uuid.NewString(), SubscriberID: uuid.NewString(), ChannelID: channel.ID}
	if err := subs.Create(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown subscriber, got %v", err)
	}
}

func TestPostgresVideoRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)

	owner := createTestUser(t, users, "creator")
	video := createTestVideo(t, videos, owner.ID, "First upload")

	fetched, err := videos.FindByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if fetched.Title != "First upload" || fetched.OwnerID != owner.ID {
		t.Fatalf("unexpected video fetched: %+v", fetched)
	}

	if _, err := videos.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing video, got %v", err)
	}

	orphan := video
	orphan.ID = uuid.NewString()
	orphan.OwnerID = uuid.NewString()
	if err := videos.Create(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown owner, got %v", err)
	}
}

func TestPostgresViewRepository_ChannelProfile(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	subs := NewPostgresSubscriptionRepository(testPool)
	views := NewPostgresViewRepository(testPool)

	channel := createTestUser(t, users, "channel")
	fan := createTestUser(t, users, "fan")
	other := createTestUser(t, users, "other")

	edges := []models.Subscription{
		{ID: uuid.NewString(), SubscriberID: fan.ID, ChannelID: channel.ID},
		{ID: uuid.NewString(), SubscriberID: other.ID, ChannelID: channel.ID},
		{ID: uuid.NewString(), SubscriberID: channel.ID, ChannelID: fan.ID},
	}
	for _, edge := range edges {
		if err := subs.Create(ctx, edge); err != nil {
			t.Fatalf("create subscription: %v", err)
		}
	}

	profile, err := views.ChannelProfile(ctx, fan.ID, "channel")
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscribersCount != 2 {
		t.Fatalf("expected 2 subscribers, got %d", profile.SubscribersCount)
	}
	if profile.ChannelsSubscribedToCount != 1 {
		t.Fatalf("expected 1 subscribed channel, got %d", profile.ChannelsSubscribedToCount)
	}
	if !profile.IsSubscribed {
		t.Fatal("fan must be reported as subscribed")
	}
	if profile.Username != "channel" || profile.Email != "channel@example.com" {
		t.Fatalf("unexpected profile fields: %+v", profile)
	}

	anonymous, err := views.ChannelProfile(ctx, "", "channel")
	if err != nil {
		t.Fatalf("anonymous channel profile: %v", err)
	}
	if anonymous.IsSubscribed {
		t.Fatal("anonymous viewer must not be subscribed")
	}
	if anonymous.SubscribersCount != 2 {
		t.Fatalf("counts must not depend on the viewer, got %d", anonymous.SubscribersCount)
	}

	if _, err := views.ChannelProfile(ctx, "", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown channel, got %v", err)
	}
}

func TestPostgresViewRepository_WatchHistory(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	views := NewPostgresViewRepository(testPool)

	owner := createTestUser(t, users, "creator")
	watcher := createTestUser(t, users, "watcher")
	idle := createTestUser(t, users, "idle")

	first := createTestVideo(t, videos, owner.ID, "First video")
	second := createTestVideo(t, videos, owner.ID, "Second video")

	// Watch first, then second, then first again. Duplicates stay.
	for _, videoID := range []string{first.ID, second.ID, first.ID} {
		if err := users.AppendWatchHistory(ctx, watcher.ID, videoID); err != nil {
			t.Fatalf("append watch history: %v", err)
		}
	}

	entries, err := views.WatchHistory(ctx, watcher.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ID != first.ID || entries[1].ID != second.ID || entries[2].ID != first.ID {
		t.Fatalf("history not most-recent-first: %+v", entries)
	}
	for _, entry := range entries {
		if entry.Owner.Username != "creator" || entry.Owner.FullName != "Creator Person" {
			t.Fatalf("owner projection missing: %+v", entry)
		}
	}

	empty, err := views.WatchHistory(ctx, idle.ID)
	if err != nil {
		t.Fatalf("empty watch history: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", empty)
	}

	if _, err := views.WatchHistory(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}

	if err := users.AppendWatchHistory(ctx, watcher.ID, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown video, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE watch_history, subscriptions, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Creator Person",
		AvatarURL:    "https://media.test/avatars/" + username + ".png",
		PasswordHash: "password-hash",
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string) models.Video {
	t.Helper()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        title,
		Description:  "a test video",
		ThumbnailURL: "https://media.test/thumbs/t.png",
		VideoURL:     "https://media.test/videos/v.mp4",
		Duration:     12.5,
		Views:        7,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video %s: %v", title, err)
	}
	return video
}
