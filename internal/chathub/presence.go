package chathub

import (
	"github.com/rs/zerolog"
)

// Presence pushes the full online set to every registered connection.
type Presence struct {
	registry *Registry
	pusher   Pusher
	logger   zerolog.Logger
}

func NewPresence(registry *Registry, pusher Pusher, logger zerolog.Logger) *Presence {
	return &Presence{
		registry: registry,
		pusher:   pusher,
		logger:   logger.With().Str("component", "presence").Logger(),
	}
}

// Broadcast sends the current snapshot and returns how many connections
// accepted it. A failing connection is logged and skipped.
func (p *Presence) Broadcast() int {
	entries := p.registry.Entries()
	online := sortedKeys(entries)

	delivered := 0
	for _, user := range online {
		connID := entries[user]
		if err := p.pusher.PushPresence(connID, online); err != nil {
			p.logger.Warn().Err(err).
				Str("user_id", user).
				Str("conn_id", connID).
				Msg("presence push failed")
			continue
		}
		delivered++
	}

	p.logger.Debug().Int("online", len(online)).Int("delivered", delivered).Msg("presence broadcast")
	return delivered
}
