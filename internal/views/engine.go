// Package views builds the derived read-only projections of the social graph:
// channel profiles and resolved watch history. It reads the store, never
// writes it.
package views

import (
	"context"
	"errors"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// ViewStore serves the two aggregate views from the underlying store.
type ViewStore interface {
	ChannelProfile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error)
}

// Engine answers profile and history queries over a ViewStore.
type Engine struct {
	store ViewStore
}

// NewEngine constructs an aggregation query engine.
func NewEngine(store ViewStore) *Engine {
	if store == nil {
		panic("views: view store must not be nil")
	}
	return &Engine{store: store}
}

// ChannelProfile returns the channel view for the given username. viewerID
// may be empty for anonymous viewers, in which case IsSubscribed is false.
func (e *Engine) ChannelProfile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, apperr.E(apperr.KindValidation, "username is missing")
	}

	ctx, span := logging.StartSpan(ctx, "views.channel_profile")
	defer span.End()

	profile, err := e.store.ChannelProfile(ctx, viewerID, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ChannelProfile{}, apperr.E(apperr.KindNotFound, "channel does not exist")
		}
		return models.ChannelProfile{}, apperr.Wrap(apperr.KindInternal, "fetch channel profile failed", err)
	}

	return profile, nil
}

// WatchHistory resolves the caller's watch history, most recent first. An
// empty history is an empty slice, not an error; a missing user record is an
// invariant violation since the caller is authenticated.
func (e *Engine) WatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error) {
	ctx, span := logging.StartSpan(ctx, "views.watch_history")
	defer span.End()

	entries, err := e.store.WatchHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.E(apperr.KindInternal, "user record not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "fetch watch history failed", err)
	}

	return entries, nil
}
