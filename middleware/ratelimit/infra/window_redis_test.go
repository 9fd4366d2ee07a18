package infra

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisWindowStore_SixthHitInWindowIsDenied(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	s := NewRedisWindowStore(rdb, contactRule)
	ctx := context.Background()
	now := time.Unix(1_200, 0) // bucket 2

	for i := 0; i < 5; i++ {
		dec, err := s.Hit(ctx, "1.2.3.4", now)
		require.NoError(t, err)
		assert.True(t, dec.Allowed, "hit %d", i+1)
	}

	dec, err := s.Hit(ctx, "1.2.3.4", now.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 5, dec.Count)
	assert.Equal(t, 570*time.Second, dec.RetryAfter)

	v, err := mr.Get("rl:1.2.3.4:2")
	require.NoError(t, err)
	assert.Equal(t, "5", v, "denied hit must not increment")
	assert.Equal(t, 660*time.Second, mr.TTL("rl:1.2.3.4:2"))
}

func TestRedisWindowStore_NextBucketStartsFresh(t *testing.T) {
	_, rdb := newMiniRedis(t)
	s := NewRedisWindowStore(rdb, contactRule)
	ctx := context.Background()
	now := time.Unix(1_200, 0)

	for i := 0; i < 5; i++ {
		_, err := s.Hit(ctx, "ip", now)
		require.NoError(t, err)
	}

	dec, err := s.Hit(ctx, "ip", now.Add(600*time.Second))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, 1, dec.Count)
}

func TestRedisWindowStore_OtherIPUnaffected(t *testing.T) {
	_, rdb := newMiniRedis(t)
	s := NewRedisWindowStore(rdb, contactRule)
	ctx := context.Background()
	now := time.Unix(1_200, 0)

	for i := 0; i < 5; i++ {
		_, _ = s.Hit(ctx, "a", now)
	}

	dec, err := s.Hit(ctx, "b", now)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestRedisWindowStore_PrefixAndGrace(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	s := NewRedisWindowStore(rdb, contactRule, WithWindowPrefix("contact:rl:"), WithExpiryGrace(0))

	_, err := s.Hit(context.Background(), "ip", time.Unix(0, 0))
	require.NoError(t, err)

	assert.True(t, mr.Exists("contact:rl:ip:0"))
	assert.Equal(t, 600*time.Second, mr.TTL("contact:rl:ip:0"))
}

func TestRedisWindowStore_ReturnsErrorWhenRedisFails(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	s := NewRedisWindowStore(rdb, contactRule)
	mr.SetError("LOADING redis is loading")

	_, err := s.Hit(context.Background(), "ip", time.Unix(0, 0))
	assert.Error(t, err)
}
