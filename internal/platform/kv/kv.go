// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package kv defines the Key-Value Store adapter (Component A) that every
entity actor and service uses as its single system of record.

There is no relational database in The Wire: actors persist their entire
state as an opaque blob under one key, indices are maintained as separate
keys, and sorted/ranked collections live as KV-native sorted sets. This
keeps the storage model uniform across users, posts, feeds, and the ranker's
cached result sets — one [Store] interface, one Redis-backed implementation.

Architecture:

  - Store: a narrow Get/Put/Delete/List/sorted-set interface, independent of
    any particular backend.
  - RedisStore: the only implementation, built on [github.com/redis/go-redis/v9].
  - TTL: zero means "no expiry"; callers pass it explicitly per key.

This package is the storage boundary: nothing above it knows it is Redis.
*/
package kv

import (
	"context"
	"time"
)

// Store is the narrow persistence interface every actor and service depends
// on. Implementations must be safe for concurrent use.
type Store interface {
	// Get fetches the raw value at key. The second return value is false if
	// the key does not exist; in that case err is nil.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Put writes value at key. A ttl of zero means the key never expires.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns up to limit keys starting with prefix, resuming from
	// cursor (empty string starts from the beginning). done is true once
	// the scan has no more keys to return; next is the cursor to resume
	// from otherwise.
	List(ctx context.Context, prefix string, limit int, cursor string) (keys []string, next string, done bool, err error)

	// ZAdd adds member to the sorted set at key with the given score,
	// overwriting the member's score if it is already present. Used by
	// postsvc for the user-posts:{authorId} and replies:{postId} indices,
	// and by auth for each user's refresh-session index.
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRevRange returns up to limit members of the sorted set at key,
	// ordered from highest to lowest score, starting at offset.
	ZRevRange(ctx context.Context, key string, offset, limit int) ([]ScoredMember, error)

	// ZRem removes member from the sorted set at key.
	ZRem(ctx context.Context, key string, member string) error

	// ZCard returns the cardinality of the sorted set at key. postsvc uses
	// it to decide when a capped index needs trimming.
	ZCard(ctx context.Context, key string) (int64, error)
}

// ScoredMember is one entry of a sorted-set range query.
type ScoredMember struct {
	Member string
	Score  float64
}
