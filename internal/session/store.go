// Package session persists per-sender dialogue state between webhook
// deliveries. Two implementations are provided: an in-process store with
// TTL eviction for single-instance deployments, and a Redis-backed store
// for deployments that need state to survive restarts.
package session

import (
	"context"

	"github.com/citamedica/evolution-bridge/internal/bot"
)

// Store loads and saves dialogue sessions keyed by sender ID.
type Store interface {
	// Load returns the session for senderID, or nil when none exists.
	Load(ctx context.Context, senderID string) (*bot.Session, error)
	// Save persists the session for senderID, refreshing its TTL.
	Save(ctx context.Context, senderID string, sess *bot.Session) error
	// Delete removes the session for senderID. Deleting an absent
	// session is not an error.
	Delete(ctx context.Context, senderID string) error
}
