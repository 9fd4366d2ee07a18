package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contact-relay/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisWindowStore é o contador durável, compartilhado por todas as instâncias.
//
// Uma string por (chave, bucket): "<prefix>:<ip>:<bucket>" com TTL um pouco maior
// que a janela. GET seguido de SET, sem INCR atômico: sob rajadas concorrentes o
// limite pode errar por pouco para mais ou para menos, o que é aceito.
type RedisWindowStore struct {
	rdb    redis.Cmdable
	prefix string
	rule   domain.Rule
	grace  time.Duration
}

type RedisWindowOption func(*RedisWindowStore)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

// WithExpiryGrace define quanto o TTL excede a janela.
func WithExpiryGrace(d time.Duration) RedisWindowOption {
	return func(s *RedisWindowStore) { s.grace = d }
}

func NewRedisWindowStore(rdb redis.Cmdable, rule domain.Rule, opts ...RedisWindowOption) *RedisWindowStore {
	s := &RedisWindowStore{
		rdb:    rdb,
		prefix: "rl",
		rule:   rule,
		grace:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisWindowStore) key(key domain.Key, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, key, s.rule.Bucket(now))
}

// Hit implementa domain.CounterStore.
func (s *RedisWindowStore) Hit(ctx context.Context, key domain.Key, now time.Time) (domain.Decision, error) {
	k := s.key(key, now)

	current, err := s.rdb.Get(ctx, k).Int()
	if errors.Is(err, redis.Nil) {
		current = 0
	} else if err != nil {
		return domain.Decision{}, fmt.Errorf("read counter %s: %w", k, err)
	}

	if current >= s.rule.Max {
		return domain.Decision{
			Allowed:    false,
			Count:      current,
			RetryAfter: s.rule.BucketEnd(now).Sub(now),
		}, nil
	}

	if err := s.rdb.Set(ctx, k, current+1, s.rule.Window+s.grace).Err(); err != nil {
		return domain.Decision{}, fmt.Errorf("write counter %s: %w", k, err)
	}
	return domain.Decision{Allowed: true, Count: current + 1}, nil
}
