package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis keeps values in a map and records TTLs.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) SetEx(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

type report struct {
	Total float64 `json:"total"`
}

func TestReportsRoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := newReports(rdb, 0)
	user := uuid.New()

	var got report
	slot, hit, err := c.Get(ctx, user, "summary", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "finance:report:"+user.String()+":0:summary", slot)

	require.NoError(t, c.Set(ctx, slot, report{Total: 42}))
	_, hit, err = c.Get(ctx, user, "summary", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42.0, got.Total)

	for _, ttl := range rdb.ttls {
		assert.Equal(t, DefaultTTL, ttl)
	}
}

// fill stores v through the miss path, like a reader does.
func fill(t *testing.T, c *Reports, user uuid.UUID, key string, v report) {
	t.Helper()
	slot, _, err := c.Get(context.Background(), user, key, &report{})
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), slot, v))
}

func TestReportsInvalidateIsPerUser(t *testing.T) {
	ctx := context.Background()
	c := newReports(newFakeRedis(), time.Minute)
	alice, bob := uuid.New(), uuid.New()

	fill(t, c, alice, "stats", report{Total: 1})
	fill(t, c, bob, "stats", report{Total: 2})
	require.NoError(t, c.Invalidate(ctx, alice))

	var got report
	_, hit, err := c.Get(ctx, alice, "stats", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = c.Get(ctx, bob, "stats", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2.0, got.Total)
}

func TestReportsResultComputedBeforeInvalidateIsNotServed(t *testing.T) {
	ctx := context.Background()
	c := newReports(newFakeRedis(), time.Minute)
	user := uuid.New()

	// A reader misses and starts computing; a write lands meanwhile.
	slot, hit, err := c.Get(ctx, user, "summary", &report{})
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, c.Invalidate(ctx, user))
	require.NoError(t, c.Set(ctx, slot, report{Total: 1}))

	var got report
	fresh, hit, err := c.Get(ctx, user, "summary", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotEqual(t, slot, fresh)

	require.NoError(t, c.Set(ctx, fresh, report{Total: 2}))
	_, hit, err = c.Get(ctx, user, "summary", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2.0, got.Total)
}

func TestReportsErrors(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	c := newReports(rdb, time.Minute)

	slot, _, err := c.Get(ctx, uuid.New(), "summary", &report{})
	assert.Error(t, err)
	assert.Empty(t, slot)
	assert.Error(t, c.Set(ctx, "finance:report:x:0:summary", report{}))
	assert.Error(t, c.Set(ctx, "", report{}))
	assert.Error(t, c.Invalidate(ctx, uuid.New()))
}
