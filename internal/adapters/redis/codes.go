// internal/adapters/redis/codes.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

// incrementIfPresent bumps the attempt counter without resurrecting an expired code.
var incrementIfPresent = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// CodeStore keeps one OTP hash per key as a hash {hash, attempts} with a TTL.
type CodeStore struct {
	client *redis.Client
}

func NewCodeStore(client *redis.Client) *CodeStore {
	return &CodeStore{client: client}
}

func (s *CodeStore) SaveCode(ctx context.Context, key string, hash []byte, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "hash", hash, "attempts", 0)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save code: %w", err)
	}
	return nil
}

func (s *CodeStore) LoadCode(ctx context.Context, key string) ([]byte, int, error) {
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("load code: %w", err)
	}
	hash, ok := vals["hash"]
	if !ok {
		return nil, 0, domain.ErrOtpExpired
	}
	attempts, err := strconv.Atoi(vals["attempts"])
	if err != nil {
		attempts = 0
	}
	return []byte(hash), attempts, nil
}

func (s *CodeStore) IncrementAttempts(ctx context.Context, key string) (int, error) {
	n, err := incrementIfPresent.Run(ctx, s.client, []string{key}).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	if n < 0 {
		return 0, domain.ErrOtpExpired
	}
	return n, nil
}

func (s *CodeStore) DeleteCode(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}
