package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// UserStore captures the persistence operations the session manager needs.
type UserStore interface {
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
}

// MediaStorage uploads a binary object and returns its public URL.
type MediaStorage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// FileRef is a strongly typed upload descriptor produced by the HTTP boundary
// from a multipart form field.
type FileRef struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// RegisterInput carries the fields required to create an account. CoverImage
// is optional; Avatar is not.
type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *FileRef
	CoverImage *FileRef
}

// LoginInput identifies a user by username or email plus password.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Manager orchestrates the session token lifecycle and account mutations over
// the credential store, the token issuer, and the media storage collaborator.
type Manager struct {
	users  UserStore
	tokens *TokenIssuer
	media  MediaStorage
}

// NewManager constructs a session Manager.
func NewManager(users UserStore, tokens *TokenIssuer, media MediaStorage) *Manager {
	if users == nil || tokens == nil || media == nil {
		panic("auth: manager dependencies must not be nil")
	}
	return &Manager{users: users, tokens: tokens, media: media}
}

// Register validates the input, uploads the avatar (and optionally the cover
// image), and persists a new user. The returned projection never contains the
// password hash or refresh token.
func (m *Manager) Register(ctx context.Context, input RegisterInput) (models.PublicUser, error) {
	logger := logging.FromContext(ctx)

	fullName := strings.TrimSpace(input.FullName)
	email := strings.TrimSpace(input.Email)
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if fullName == "" || email == "" || username == "" || strings.TrimSpace(input.Password) == "" {
		return models.PublicUser{}, apperr.E(apperr.KindValidation, "all fields are required")
	}

	if _, err := m.users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		return models.PublicUser{}, apperr.E(apperr.KindConflict, "user with email or username already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.PublicUser{}, apperr.Wrap(apperr.KindInternal, "unable to verify existing accounts", err)
	}

	if input.Avatar == nil {
		return models.PublicUser{}, apperr.E(apperr.KindValidation, "avatar file is required")
	}

	avatarURL, err := m.upload(ctx, "avatars", input.Avatar)
	if err != nil {
		return models.PublicUser{}, apperr.Wrap(apperr.KindUpload, "avatar upload failed", err)
	}

	// Cover image failure is non-fatal: the account is simply created
	// without one.
	var coverURL string
	if input.CoverImage != nil {
		coverURL, err = m.upload(ctx, "covers", input.CoverImage)
		if err != nil {
			logger.Warn("cover image upload failed, continuing without", "error", err)
			coverURL = ""
		}
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return models.PublicUser{}, apperr.Wrap(apperr.KindInternal, "failed to secure password", err)
	}

	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  hashed,
	}

	if err := m.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.PublicUser{}, apperr.E(apperr.KindConflict, "user with email or username already exists")
		}
		return models.PublicUser{}, apperr.Wrap(apperr.KindInternal, "failed to create account", err)
	}

	created, err := m.users.FindByID(ctx, user.ID)
	if err != nil {
		return models.PublicUser{}, apperr.Wrap(apperr.KindInternal, "something went wrong while registering the user", err)
	}

	return created.Public(), nil
}

// Login verifies credentials and issues a fresh token pair, persisting the
// refresh token as the single valid copy for this user.
func (m *Manager) Login(ctx context.Context, input LoginInput) (models.PublicUser, models.TokenPair, error) {
	identifier := strings.ToLower(strings.TrimSpace(input.Username))
	if identifier == "" {
		identifier = strings.TrimSpace(input.Email)
	}
	if identifier == "" {
		return models.PublicUser{}, models.TokenPair{}, apperr.E(apperr.KindValidation, "username or email is required")
	}

	user, err := m.users.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PublicUser{}, models.TokenPair{}, apperr.E(apperr.KindNotFound, "user does not exist")
		}
		return models.PublicUser{}, models.TokenPair{}, apperr.Wrap(apperr.KindInternal, "login failed", err)
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return models.PublicUser{}, models.TokenPair{}, apperr.E(apperr.KindAuth, "invalid user credentials")
	}

	pair, err := m.issuePair(ctx, user)
	if err != nil {
		return models.PublicUser{}, models.TokenPair{}, err
	}

	return user.Public(), pair, nil
}

// Logout clears the stored refresh token. Calling it twice is not an error.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if err := m.users.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return apperr.Wrap(apperr.KindInternal, "logout failed", err)
	}
	return nil
}

// Refresh rotates a refresh token: the presented token must both verify and
// match the stored copy, and the swap to the replacement is atomic so a
// superseded token can never rotate again.
func (m *Manager) Refresh(ctx context.Context, incoming string) (models.TokenPair, error) {
	logger := logging.FromContext(ctx)

	if strings.TrimSpace(incoming) == "" {
		return models.TokenPair{}, apperr.E(apperr.KindAuth, "unauthorized request")
	}

	claims, err := m.tokens.VerifyRefresh(incoming)
	if err != nil {
		logger.Warn("refresh token rejected", "error", err)
		return models.TokenPair{}, apperr.E(apperr.KindAuth, "invalid refresh token")
	}

	user, err := m.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return models.TokenPair{}, apperr.E(apperr.KindAuth, "invalid refresh token")
	}

	if incoming != user.RefreshToken {
		return models.TokenPair{}, apperr.E(apperr.KindAuth, "refresh token is expired or used")
	}

	accessToken, accessExp, err := m.tokens.IssueAccessToken(user)
	if err != nil {
		return models.TokenPair{}, apperr.Wrap(apperr.KindInternal, "failed to issue tokens", err)
	}
	refreshToken, refreshExp, err := m.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return models.TokenPair{}, apperr.Wrap(apperr.KindInternal, "failed to issue tokens", err)
	}

	if err := m.users.SwapRefreshToken(ctx, user.ID, incoming, refreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// A concurrent refresh won the rotation; this caller must
			// re-authenticate.
			return models.TokenPair{}, apperr.E(apperr.KindAuth, "refresh token is expired or used")
		}
		return models.TokenPair{}, apperr.Wrap(apperr.KindInternal, "failed to rotate refresh token", err)
	}

	return models.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ChangePassword verifies the old password before re-hashing and persisting
// the new one.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperr.E(apperr.KindValidation, "new password is required")
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "change password failed", err)
	}

	if !CheckPassword(oldPassword, user.PasswordHash) {
		return apperr.E(apperr.KindAuth, "invalid password")
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to secure password", err)
	}

	if err := m.users.UpdatePassword(ctx, userID, hashed); err != nil {
		return apperr.Wrap(apperr.KindInternal, "change password failed", err)
	}
	return nil
}

// CurrentUser returns the sanitized account record.
func (m *Manager) CurrentUser(ctx context.Context, userID string) (models.PublicUser, error) {
	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PublicUser{}, apperr.E(apperr.KindNotFound, "user not found")
		}
		return models.PublicUser{}, apperr.Wrap(apperr.KindInternal, "fetch current user failed", err)
	}
	return user.Public(), nil
}

// UpdateAccountDetails changes the full name and email, both required.
func (m *Manager) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (models.PublicUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return models.PublicUser{}, apperr.E(apperr.KindValidation, "all fields are required")
	}

	user, err := m.users.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			return models.PublicUser{}, apperr.E(apperr.KindConflict, "email already in use")
		case errors.Is(err, repositories.ErrNotFound):
			return models.PublicUser{}, apperr.E(apperr.KindNotFound, "user not found")
		}
		return models.PublicUser{}, apperr.Wrap(apperr.KindInternal, "update account details failed", err)
	}
	return user.Public(), nil
}

// UpdateAvatar uploads a replacement avatar and persists its URL.
func (m *Manager) UpdateAvatar(ctx context.Context, userID string, file *FileRef) (models.PublicUser, error) {
	if file == nil {
		return models.PublicUser{}, apperr.E(apperr.KindValidation, "avatar file missing")
	}

	url, err := m.upload(ctx, "avatars", file)
	if err != nil {
		return models.PublicUser{}, apperr.Wrap(apperr.KindUpload, "error while uploading avatar", err)
	}

	user, err := m.users.UpdateAvatar(ctx, userID, url)
	if err != nil {
		return models.PublicUser{}, apperr.Wrap(apperr.KindInternal, "update avatar failed", err)
	}
	return user.Public(), nil
}

// UpdateCoverImage uploads a replacement cover image and persists its URL.
func (m *Manager) UpdateCoverImage(ctx context.Context, userID string, file *FileRef) (models.PublicUser, error) {
	if file == nil {
		return models.PublicUser{}, apperr.E(apperr.KindValidation, "cover image file missing")
	}

	url, err := m.upload(ctx, "covers", file)
	if err != nil {
		return models.PublicUser{}, apperr.Wrap(apperr.KindUpload, "error while uploading cover image", err)
	}

	user, err := m.users.UpdateCoverImage(ctx, userID, url)
	if err != nil {
		return models.PublicUser{}, apperr.Wrap(apperr.KindInternal, "update cover image failed", err)
	}
	return user.Public(), nil
}

func (m *Manager) issuePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	accessToken, accessExp, err := m.tokens.IssueAccessToken(user)
	if err != nil {
		return models.TokenPair{}, apperr.Wrap(apperr.KindInternal, "failed to issue tokens", err)
	}
	refreshToken, refreshExp, err := m.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return models.TokenPair{}, apperr.Wrap(apperr.KindInternal, "failed to issue tokens", err)
	}

	// Token-only write: full field validation is not re-run here.
	if err := m.users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return models.TokenPair{}, apperr.Wrap(apperr.KindInternal, "failed to persist refresh token", err)
	}

	return models.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *Manager) upload(ctx context.Context, folder string, file *FileRef) (string, error) {
	ctx, span := logging.StartSpan(ctx, "auth.media_upload")
	defer span.End()

	r, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", file.Name, err)
	}
	defer r.Close()

	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), path.Ext(file.Name))
	return m.media.Save(ctx, key, file.ContentType, r)
}
