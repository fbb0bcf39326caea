package tailscale

import (
	"context"
	"time"
)

// TokenStorage persists an OAuth access token across process restarts. It is
// consulted before any network exchange and written after each successful
// one, so a restarted client can reuse a still-valid token.
//
// Implementations are treated as eventually consistent: a missing or stale
// entry simply triggers a fresh exchange, and load failures are logged
// rather than surfaced. The tokenstore package provides memory, file, and
// Redis implementations.
type TokenStorage interface {
	// Load returns the stored access token and its absolute expiry. An
	// empty token with a nil error means nothing is stored.
	Load(ctx context.Context) (accessToken string, expiry time.Time, err error)

	// Save stores the access token together with its absolute expiry.
	Save(ctx context.Context, accessToken string, expiry time.Time) error
}
