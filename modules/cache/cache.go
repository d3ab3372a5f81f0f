// Package cache is the optional Redis layer in front of task list queries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

var (
	opsTotal *prometheus.CounterVec
	opsOnce  sync.Once
)

// operations returns the task_cache_operations_total{op,result} counter.
func operations() *prometheus.CounterVec {
	opsOnce.Do(func() {
		opsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "task_cache_operations_total",
				Help: "Task cache operations by kind and result",
			},
			[]string{"op", "result"}, // result: hit, miss, ok, error
		)
	})
	return opsTotal
}

// Cache stores JSON-encoded query results under a key prefix with one TTL.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  *counters
	ops    *prometheus.CounterVec
}

type counters struct {
	hits, misses, sets, deletes, errors atomic.Uint64
}

// StatsSnapshot is reported in the cache module's health details.
type StatsSnapshot struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hit_rate"`
	TotalGets uint64  `json:"total_gets"`
}

// New wraps client. Keys are stored as prefix+key.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		stats:  &counters{},
		ops:    operations(),
	}
}

func (c *Cache) fail(op string, err error) error {
	c.stats.errors.Add(1)
	c.ops.WithLabelValues(op, "error").Inc()
	return fmt.Errorf("cache %s: %w", op, err)
}

// Get decodes the cached value into dest. A miss is (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.stats.misses.Add(1)
		c.ops.WithLabelValues("get", "miss").Inc()
		return false, nil
	case err != nil:
		return false, c.fail("get", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, c.fail("get", err)
	}

	c.stats.hits.Add(1)
	c.ops.WithLabelValues("get", "hit").Inc()
	return true, nil
}

// Set stores value with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return c.fail("set", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return c.fail("set", err)
	}

	c.stats.sets.Add(1)
	c.ops.WithLabelValues("set", "ok").Inc()
	return nil
}

// Delete removes one key. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return c.fail("delete", err)
	}
	c.stats.deletes.Add(1)
	c.ops.WithLabelValues("delete", "ok").Inc()
	return nil
}

// DeletePattern removes every key under the prefix matching a Redis glob.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, c.prefix+pattern, scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	var removed uint64
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		removed += uint64(len(batch))
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return c.fail("delete_pattern", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return c.fail("delete_pattern", err)
	}
	if err := flush(); err != nil {
		return c.fail("delete_pattern", err)
	}

	c.stats.deletes.Add(removed)
	c.ops.WithLabelValues("delete_pattern", "ok").Inc()
	return nil
}

// GetStats returns the counters since the cache was created.
func (c *Cache) GetStats() StatsSnapshot {
	hits := c.stats.hits.Load()
	misses := c.stats.misses.Load()
	gets := hits + misses

	snap := StatsSnapshot{
		Hits:      hits,
		Misses:    misses,
		Sets:      c.stats.sets.Load(),
		Deletes:   c.stats.deletes.Load(),
		Errors:    c.stats.errors.Load(),
		TotalGets: gets,
	}
	if gets > 0 {
		snap.HitRate = float64(hits) / float64(gets) * 100
	}
	return snap
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
