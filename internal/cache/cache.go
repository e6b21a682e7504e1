// Package cache keeps report results in Redis. Every user has a generation
// counter that is part of each key; bumping it orphans the user's entries,
// which then expire on their own.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "finance"

// DefaultTTL matches how long the dashboard tolerates stale reports.
const DefaultTTL = 60 * time.Second

type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Reports caches JSON encoded reports per user.
type Reports struct {
	rdb client
	ttl time.Duration
}

// New creates a report cache on rdb. A non-positive ttl selects DefaultTTL.
func New(rdb *redis.Client, ttl time.Duration) *Reports {
	return newReports(rdb, ttl)
}

func newReports(rdb client, ttl time.Duration) *Reports {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Reports{rdb: rdb, ttl: ttl}
}

func generationKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:gen:%s", keyPrefix, userID)
}

func (r *Reports) reportKey(ctx context.Context, userID uuid.UUID, key string) (string, error) {
	gen, err := r.rdb.Get(ctx, generationKey(userID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		gen = "0"
	case err != nil:
		return "", fmt.Errorf("read generation: %w", err)
	}
	return fmt.Sprintf("%s:report:%s:%s:%s", keyPrefix, userID, gen, key), nil
}

// Get decodes the cached report into dst and reports whether it was found.
// The returned slot names the entry for the generation current at read time;
// pass it to Set so a report computed across an Invalidate is stored under
// the generation it was computed for and never served afterwards.
func (r *Reports) Get(ctx context.Context, userID uuid.UUID, key string, dst any) (string, bool, error) {
	slot, err := r.reportKey(ctx, userID, key)
	if err != nil {
		return "", false, err
	}
	data, err := r.rdb.Get(ctx, slot).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return slot, false, nil
	case err != nil:
		return slot, false, fmt.Errorf("get %s: %w", slot, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return slot, false, fmt.Errorf("decode %s: %w", slot, err)
	}
	return slot, true, nil
}

// Set stores v in slot for the configured TTL.
func (r *Reports) Set(ctx context.Context, slot string, v any) error {
	if slot == "" {
		return errors.New("empty cache slot")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", slot, err)
	}
	if err := r.rdb.SetEx(ctx, slot, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", slot, err)
	}
	return nil
}

// Invalidate drops every cached report of the user.
func (r *Reports) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := r.rdb.Incr(ctx, generationKey(userID)).Err(); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}
