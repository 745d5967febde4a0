package shipping

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/velmora-shop/vendor-relay/internal/adapter/cdek"
)

// Token is a vendor bearer token with its absolute expiry.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenStore persists the vendor token between requests. Implementations
// must be safe for concurrent use.
type TokenStore interface {
	// Get returns the stored token and whether one was found.
	Get(ctx context.Context) (Token, bool, error)
	// Set overwrites the stored token.
	Set(ctx context.Context, token Token) error
}

// TokenSource resolves a vendor token, reusing the stored one while it has
// more than the safety margin of validity left.
//
// Refreshes are deliberately not coalesced: two concurrent requests that both
// see a stale token each perform their own exchange, and the last writer
// wins. The vendor tolerates duplicate exchanges and both callers end up
// with a valid token.
type TokenSource struct {
	client cdek.Client
	store  TokenStore
	margin time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewTokenSource wires dependencies. A non-positive margin disables the
// safety buffer.
func NewTokenSource(client cdek.Client, store TokenStore, margin time.Duration, logger *zap.Logger) *TokenSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if margin < 0 {
		margin = 0
	}
	return &TokenSource{
		client: client,
		store:  store,
		margin: margin,
		now:    time.Now,
		logger: logger,
	}
}

// Resolve returns a token with at least the safety margin of remaining
// validity, exchanging credentials with the vendor when the stored one is
// absent or too close to expiry.
func (s *TokenSource) Resolve(ctx context.Context) (string, error) {
	stored, found, err := s.store.Get(ctx)
	if err != nil {
		// A broken store degrades to a refresh per request, it must not
		// fail the caller.
		s.logger.Warn("token store read failed", zap.Error(err))
	} else if found && s.now().Before(stored.ExpiresAt.Add(-s.margin)) {
		return stored.Value, nil
	}

	auth, err := s.client.Authenticate(ctx)
	if err != nil {
		return "", err
	}

	token := Token{
		Value:     auth.AccessToken,
		ExpiresAt: s.now().Add(time.Duration(auth.ExpiresIn) * time.Second),
	}
	if err := s.store.Set(ctx, token); err != nil {
		s.logger.Warn("token store write failed", zap.Error(err))
	}
	return token.Value, nil
}
