// Package credentials loads, refreshes and persists per-sender OAuth tokens.
package credentials

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Authorizer obtains tokens from the provider.
type Authorizer interface {
	// Refresh exchanges tok's refresh token for a fresh access token.
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
	// Authorize runs the interactive consent flow.
	Authorize(ctx context.Context) (*oauth2.Token, error)
}

// Manager hands out valid tokens for a sender.
type Manager struct {
	cache *Cache
	auth  Authorizer
	log   zerolog.Logger
}

func NewManager(cache *Cache, auth Authorizer, log zerolog.Logger) *Manager {
	return &Manager{cache: cache, auth: auth, log: log}
}

// Token returns a usable token for sender, refreshing or re-authorizing as
// needed. Any newly obtained token is written back to the cache.
func (m *Manager) Token(ctx context.Context, sender string) (*oauth2.Token, error) {
	key := Key(sender)
	log := m.log.With().Str("key", key).Logger()

	tok, err := m.cache.Load(key)
	if err != nil {
		return nil, err
	}
	if tok.Valid() {
		log.Debug().Time("expiry", tok.Expiry).Msg("using cached token")
		return tok, nil
	}

	switch {
	case tok != nil && tok.RefreshToken != "":
		refreshed, rerr := m.auth.Refresh(ctx, tok)
		if rerr == nil {
			log.Info().Msg("refreshed token")
			tok = refreshed
			break
		}
		log.Warn().Err(rerr).Msg("token refresh failed, starting authorization")
		fallthrough
	default:
		log.Info().Str("sender", sender).Msg("authorization required")
		tok, err = m.auth.Authorize(ctx)
		if err != nil {
			return nil, fmt.Errorf("authorize %s: %w", sender, err)
		}
	}

	if err := m.cache.Save(key, tok); err != nil {
		return nil, err
	}
	return tok, nil
}
