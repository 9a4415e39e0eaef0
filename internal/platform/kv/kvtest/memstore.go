// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package kvtest provides an in-memory [kv.Store] for unit tests that need a
real store (actors, services) without a live Redis instance — mirroring the
teacher's own pattern of depending on narrow interfaces rather than concrete
infrastructure types at the call site.
*/
package kvtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chrischabot/the-wire/internal/platform/kv"
)

// Store is a goroutine-safe, in-memory implementation of [kv.Store]. TTLs
// are recorded but never expired — tests run well within any real TTL.
type Store struct {
	mu      sync.Mutex
	values  map[string][]byte
	sets    map[string]map[string]float64
}

// New constructs an empty in-memory [Store].
func New() *Store {
	return &Store{
		values: make(map[string][]byte),
		sets:   make(map[string]map[string]float64),
	}
}

var _ kv.Store = (*Store)(nil)

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.values[key] = cp
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *Store) List(_ context.Context, prefix string, limit int, cursor string) ([]string, string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	sort.Strings(matched)

	start := 0
	if cursor != "" {
		for i, k := range matched {
			if k > cursor {
				start = i
				break
			}
		}
	}

	end := start + limit
	done := true
	next := ""
	if end < len(matched) {
		done = false
		next = matched[end-1]
	}
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], next, done, nil
}

func (s *Store) ZAdd(_ context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]float64)
		s.sets[key] = set
	}
	set[member] = score
	return nil
}

func (s *Store) ZRevRange(_ context.Context, key string, offset, limit int) ([]kv.ScoredMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[key]
	members := make([]kv.ScoredMember, 0, len(set))
	for m, score := range set {
		members = append(members, kv.ScoredMember{Member: m, Score: score})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score == members[j].Score {
			return members[i].Member < members[j].Member
		}
		return members[i].Score > members[j].Score
	})

	if offset >= len(members) {
		return nil, nil
	}
	end := len(members)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return members[offset:end], nil
}

func (s *Store) ZRem(_ context.Context, key string, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.sets[key]; ok {
		delete(set, member)
	}
	return nil
}

func (s *Store) ZCard(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sets[key])), nil
}
