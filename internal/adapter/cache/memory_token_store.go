// Package cache provides TokenStore implementations for the shipping relay.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/velmora-shop/vendor-relay/internal/shipping"
)

// MemoryTokenStore keeps the vendor token in process memory for the process
// lifetime. The mutex only guards the value/expiry pair; it does not
// serialize refreshes.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token shipping.Token
	set   bool
	now   func() time.Time
}

var _ shipping.TokenStore = (*MemoryTokenStore)(nil)

// NewMemoryTokenStore constructs an empty in-process store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{now: time.Now}
}

// Get returns the stored token. Already-expired tokens are reported as
// misses.
func (s *MemoryTokenStore) Get(context.Context) (shipping.Token, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set || !s.now().Before(s.token.ExpiresAt) {
		return shipping.Token{}, false, nil
	}
	return s.token, true, nil
}

// Set overwrites the stored token.
func (s *MemoryTokenStore) Set(_ context.Context, token shipping.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	return nil
}
