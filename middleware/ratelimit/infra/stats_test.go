package infra

import (
	"context"
	"net/http"
	"testing"
	"time"

	"contact-relay/middleware/ratelimit/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStatsStore_CountsByOutcomeAndStatus(t *testing.T) {
	s := NewMemoryStatsStore()
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Outcome: "sent", Status: http.StatusOK})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: "spam", Status: http.StatusBadRequest})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: "spam", Status: http.StatusBadRequest})

	assert.Equal(t, int64(3), s.Total())
	assert.Equal(t, map[string]int64{"sent": 1, "spam": 2}, s.ByOutcome())
	assert.Equal(t, map[int]int64{200: 1, 400: 2}, s.ByStatus())
}

func TestRedisStatsStore_WritesHashes(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	s := NewRedisStatsStore(rdb, WithStatsPrefix("relay:stats:"), WithStatsTTL(time.Hour))
	at := time.Date(2026, 10, 15, 12, 34, 0, 0, time.UTC)

	require.NoError(t, s.Record(context.Background(), domain.StatsEvent{Outcome: "rate_limited", Status: 429, At: at}))
	require.NoError(t, s.Record(context.Background(), domain.StatsEvent{Outcome: "rate_limited", Status: 429, At: at}))

	assert.Equal(t, "2", mr.HGet("relay:stats:total", "rate_limited"))
	assert.Equal(t, "2", mr.HGet("relay:stats:status", "429"))
	assert.Equal(t, "2", mr.HGet("relay:stats:minute:202610151234", "rate_limited"))
	assert.Equal(t, time.Hour, mr.TTL("relay:stats:minute:202610151234"))
}

func TestRedisStatsStore_NilIsNoop(t *testing.T) {
	var s *RedisStatsStore
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{Outcome: "sent"}))
}
