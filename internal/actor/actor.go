// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package actor implements the Entity Actor runtime (Component C): a
per-(namespace,name) serialized-execution host that every domain actor
(UserActor, PostActor, FeedActor) is built on.

# Architecture

Each (namespace, name) pair — e.g. ("user", "alice"), ("post", "<id>") —
gets exactly one [cell], created lazily on first access and kept in memory
for the life of the process. A cell's own mutex means calls to the *same*
entity serialize, while calls to *different* entities never block each
other: there is deliberately no global lock.

This is a direct generalisation of the teacher's
internal/platform/middleware.RateLimit, which keeps a
sync.Mutex-guarded map[string]*rateLimitClient of per-IP token buckets,
created lazily and swept by a background goroutine. Here the map holds
per-entity cells instead of per-IP limiters, and the cell lifecycle
(load → init-if-missing → mutate → persist) replaces the limiter's simple
Allow() check.

# Lifecycle

A handler passed to [Host.Call] receives the entity's current state bytes
(nil if uninitialized) and returns a response, the new state, and whether
to persist it. Persistence always goes through the injected [kv.Store] —
cells hold no state once the process exits, so a cold Call reloads from
the store before running the handler.
*/
package actor

import (
	"context"
	"errors"
	"sync"

	"github.com/chrischabot/the-wire/internal/platform/kv"
)

// ErrNotInitialized is returned by a handler that requires existing state
// but found none.
var ErrNotInitialized = errors.New("actor: entity not initialized")

// ErrAlreadyInitialized is returned by a handler that must not overwrite
// an existing entity (e.g. user signup against a taken handle).
var ErrAlreadyInitialized = errors.New("actor: entity already initialized")

// Handler is the unit of work a [Host.Call] executes while holding the
// target entity's lock. state is nil if the entity has never been
// persisted. Returning persist=false leaves the store untouched (read-only
// operations skip a needless write).
type Handler func(ctx context.Context, state []byte) (resp any, newState []byte, persist bool, err error)

// cell is the serialization unit for one entity: every Call routed to the
// same (namespace, name) acquires this mutex before touching the entity.
type cell struct {
	mu sync.Mutex
}

// Host owns the registry of live cells and the backing store every cell's
// state round-trips through.
type Host struct {
	store kv.Store

	mu    sync.Mutex
	cells map[string]*cell
}

// NewHost constructs a Host backed by store.
func NewHost(store kv.Store) *Host {
	return &Host{
		store: store,
		cells: make(map[string]*cell),
	}
}

// Call loads the entity at key(namespace, name), runs handler while holding
// that entity's exclusive lock, and persists the result if requested.
func (h *Host) Call(ctx context.Context, namespace, name string, handler Handler) (any, error) {
	c := h.cellFor(namespace, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(namespace, name)

	state, found, err := h.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		state = nil
	}

	resp, newState, persist, err := handler(ctx, state)
	if err != nil {
		return resp, err
	}

	if persist {
		if err := h.store.Put(ctx, key, newState, 0); err != nil {
			return resp, err
		}
	}

	return resp, nil
}

// cellFor returns the cell for (namespace, name), creating it under the
// registry lock if it does not exist yet. The registry lock is held only
// long enough to look up or insert the map entry — never while running a
// handler — so two different entities can run their handlers concurrently.
func (h *Host) cellFor(namespace, name string) *cell {
	registryKey := namespace + "\x00" + name

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.cells[registryKey]
	if !ok {
		c = &cell{}
		h.cells[registryKey] = c
	}
	return c
}

// Key builds the KV key for an entity. Exported so services can compute
// the same key outside of a Call (e.g. to check existence via a plain
// store.Get before deciding whether to route a Call at all).
func Key(namespace, name string) string {
	return namespace + ":" + name
}
