package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
)

// maxUploadMemory bounds how much of a multipart body is buffered in memory.
const maxUploadMemory = 32 << 20

// UserHandler implements the account and session endpoints.
type UserHandler struct {
	Sessions SessionService
}

// Register handles POST /api/v1/users/register. The body is multipart with
// an avatar file (required, at most one) and an optional coverImage file.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.KindValidation, "invalid multipart form", err))
		return
	}

	avatar, err := formFile(r, "avatar")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	coverImage, err := formFile(r, "coverImage")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	input := auth.RegisterInput{
		FullName:   r.FormValue("fullName"),
		Email:      r.FormValue("email"),
		Username:   r.FormValue("username"),
		Password:   r.FormValue("password"),
		Avatar:     avatar,
		CoverImage: coverImage,
	}

	user, err := h.Sessions.Register(ctx, input)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusCreated, user, "user registered successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	user, pair, err := h.Sessions.Login(ctx, auth.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// Login reports unknown identifiers as 400.
		if apperr.KindOf(err) == apperr.KindNotFound {
			respondError(ctx, w, apperr.E(apperr.KindValidation, apperr.Message(err)))
			return
		}
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, pair.AccessToken, pair.AccessExpiresAt, pair.RefreshToken, pair.RefreshExpiresAt)
	respond(ctx, w, http.StatusOK, map[string]any{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	if err := h.Sessions.Logout(ctx, middleware.UserIDFrom(ctx)); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearSessionCookies(w)
	respond(ctx, w, http.StatusOK, map[string]any{}, "user logged out successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken handles POST /api/v1/users/refresh-token. The incoming token
// is read from the refreshToken cookie or from the body.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	var incoming string
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(ctx, w, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
			return
		}
		incoming = req.RefreshToken
	}

	pair, err := h.Sessions.Refresh(ctx, incoming)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, pair.AccessToken, pair.AccessExpiresAt, pair.RefreshToken, pair.RefreshExpiresAt)
	respond(ctx, w, http.StatusOK, map[string]any{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "access token refreshed successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword handles PATCH /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	if err := h.Sessions.ChangePassword(ctx, middleware.UserIDFrom(ctx), req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, map[string]any{}, "password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	user, err := h.Sessions.CurrentUser(ctx, middleware.UserIDFrom(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, user, "current user fetched successfully")
}

type updateDetailsRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// UpdateAccountDetails handles PATCH /api/v1/users/update-account-details.
func (h UserHandler) UpdateAccountDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.KindValidation, "invalid request body", err))
		return
	}

	user, err := h.Sessions.UpdateAccountDetails(ctx, middleware.UserIDFrom(ctx), req.FullName, req.Email)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, user, "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/update-avatar with a single
// avatar file.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.Sessions.UpdateAvatar, "avatar updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image with a single
// coverImage file.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.Sessions.UpdateCoverImage, "cover image updated successfully")
}

func (h UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID string, file *auth.FileRef) (models.PublicUser, error),
	message string,
) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.KindValidation, "invalid multipart form", err))
		return
	}

	file, err := formFile(r, field)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := update(ctx, middleware.UserIDFrom(ctx), file)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, user, message)
}
