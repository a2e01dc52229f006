package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
)

// apiResponse is the envelope wrapping every successful response body.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError is the envelope wrapping every failed response body.
type apiError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// respondError converts a typed failure into the error envelope. This is the
// single point where service errors become HTTP responses.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := logging.FromContext(ctx)

	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	message := apperr.Message(err)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}

	writeJSON(ctx, w, status, apiError{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     []string{},
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// setSessionCookies delivers the token pair as httpOnly same-site cookies.
// The tokens are also echoed in the JSON body for non-cookie clients.
func setSessionCookies(w http.ResponseWriter, accessToken string, accessExp time.Time, refreshToken string, refreshExp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		Expires:  refreshExp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
