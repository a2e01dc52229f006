package app

import (
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(pool db.Pool, cfg config.Config, media auth.MediaStorage) handlers.Dependencies {
	users := repositories.NewPostgresUserRepository(pool)
	aggregates := repositories.NewPostgresViewRepository(pool)
	tokens := auth.NewTokenIssuer(
		cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
	)

	return handlers.Dependencies{
		Sessions: auth.NewManager(users, tokens, media),
		Queries:  views.NewEngine(aggregates),
		Tokens:   tokens,
	}
}
