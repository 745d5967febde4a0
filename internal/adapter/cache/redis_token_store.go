package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/velmora-shop/vendor-relay/internal/shipping"
)

const redisTokenKey = "shipping:vendor_token"

// RedisTokenStore shares the vendor token between relay replicas. Used when
// REDIS_ADDR is configured; otherwise the in-process store applies.
type RedisTokenStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

var _ shipping.TokenStore = (*RedisTokenStore)(nil)

// NewRedisTokenStore constructs a Redis-backed token store.
func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client, now: time.Now}
}

// Get loads and decodes the shared token. A missing or expired key is a miss.
func (s *RedisTokenStore) Get(ctx context.Context) (shipping.Token, bool, error) {
	bytes, err := s.client.Get(ctx, redisTokenKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return shipping.Token{}, false, nil
		}
		return shipping.Token{}, false, fmt.Errorf("load token: %w", err)
	}
	var token shipping.Token
	if err := json.Unmarshal(bytes, &token); err != nil {
		return shipping.Token{}, false, fmt.Errorf("decode token: %w", err)
	}
	if !s.now().Before(token.ExpiresAt) {
		return shipping.Token{}, false, nil
	}
	return token, true, nil
}

// Set stores the token with a TTL matching its remaining validity, so Redis
// drops it on its own once expired.
func (s *RedisTokenStore) Set(ctx context.Context, token shipping.Token) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := s.client.Set(ctx, redisTokenKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}
