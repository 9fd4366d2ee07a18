package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"contact-relay/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava desfechos do relay em hashes no Redis:
//
//	<prefix>:total              outcome -> contagem (cumulativo, não expira)
//	<prefix>:status             status  -> contagem (cumulativo, não expira)
//	<prefix>:minute:<yyyymmddhhmm> outcome -> contagem (expira em ttl)
type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica apenas nas chaves por minuto.
	ttl time.Duration
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "relay:stats",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	outcome := strings.TrimSpace(ev.Outcome)
	if outcome == "" {
		outcome = "unknown"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", outcome, 1)
	if ev.Status != 0 {
		pipe.HIncrBy(ctx, s.prefix+":status", strconv.Itoa(ev.Status), 1)
	}

	minuteKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, minuteKey, outcome, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, minuteKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record stats: %w", err)
	}
	return nil
}
