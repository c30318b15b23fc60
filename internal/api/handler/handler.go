package handler

import (
	"duochat/backend/internal/auth"
	"duochat/backend/internal/chathub"
	"duochat/backend/internal/media"
	"duochat/backend/internal/storage"

	"github.com/rs/zerolog"
)

// Handler holds everything the HTTP and WebSocket endpoints need.
type Handler struct {
	Hub    *chathub.ManagerService
	Store  storage.Storage
	Tokens *auth.TokenManager
	Media  media.Resolver
	Logger zerolog.Logger

	// SecureCookies marks the session cookie Secure (production only).
	SecureCookies bool
}

func NewHandler(hub *chathub.ManagerService, store storage.Storage, tokens *auth.TokenManager, resolver media.Resolver, logger zerolog.Logger) *Handler {
	return &Handler{
		Hub:    hub,
		Store:  store,
		Tokens: tokens,
		Media:  resolver,
		Logger: logger.With().Str("component", "api").Logger(),
	}
}
