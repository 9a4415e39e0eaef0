// Copyright (c) 2026 The Wire. All rights reserved.

package kv

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultScanCount is the Redis SCAN COUNT hint. It is a hint, not a hard
// limit — SCAN may return more or fewer keys per call — so List loops until
// it has collected `limit` keys or Redis reports the scan is exhausted.
const defaultScanCount = 100

// RedisStore implements [Store] on top of a single Redis database. It is
// grounded on the teacher's internal/platform/redis client (connection
// pooling, dial/read/write timeouts) and internal/users/auth's Redis
// repositories (key-prefix-per-concern, TTL via SET EX, redis.Nil handling),
// generalised from a purpose-built token store into a reusable adapter.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-connected Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string, bool, error) {
	var scanCursor uint64
	if cursor != "" {
		parsed, err := parseCursor(cursor)
		if err != nil {
			return nil, "", false, err
		}
		scanCursor = parsed
	}

	keys := make([]string, 0, limit)
	for {
		batch, next, err := s.client.Scan(ctx, scanCursor, prefix+"*", defaultScanCount).Result()
		if err != nil {
			return nil, "", false, err
		}

		keys = append(keys, batch...)
		scanCursor = next

		// Redis signals scan completion with cursor 0.
		if scanCursor == 0 {
			return truncate(keys, limit), "", true, nil
		}
		if len(keys) >= limit {
			return truncate(keys, limit), formatCursor(scanCursor), false, nil
		}
	}
}

func (s *RedisStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (s *RedisStore) ZRevRange(ctx context.Context, key string, offset, limit int) ([]ScoredMember, error) {
	stop := int64(offset + limit - 1)
	if limit < 0 {
		stop = -1 // through the end of the set
	}
	results, err := s.client.ZRevRangeWithScores(ctx, key, int64(offset), stop).Result()
	if err != nil {
		return nil, err
	}

	members := make([]ScoredMember, 0, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		members = append(members, ScoredMember{Member: member, Score: z.Score})
	}
	return members, nil
}

func (s *RedisStore) ZRem(ctx context.Context, key string, member string) error {
	return s.client.ZRem(ctx, key, member).Err()
}

func (s *RedisStore) ZCard(ctx context.Context, key string) (int64, error) {
	return s.client.ZCard(ctx, key).Result()
}

func truncate(keys []string, limit int) []string {
	if len(keys) > limit {
		return keys[:limit]
	}
	return keys
}

func parseCursor(cursor string) (uint64, error) {
	return strconv.ParseUint(cursor, 10, 64)
}

func formatCursor(cursor uint64) string {
	return strconv.FormatUint(cursor, 10)
}
