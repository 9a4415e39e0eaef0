// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package mq defines the Queue adapter (Component B): an at-least-once,
batch-delivering FIFO queue that decouples post creation from write-time
fan-out.

Architecture:

  - Queue: Send enqueues one message; Consume drives a batch-delivery loop
    until ctx is cancelled.
  - RedisStreamQueue: the only implementation, on Redis Streams consumer
    groups (XADD/XREADGROUP/XACK/XAUTOCLAIM), which gives at-least-once,
    batched, retry-on-timeout delivery without a separate broker.

Idempotency is the consumer's responsibility (spec invariant: fan-out
entries are keyed by (follower, post) so redelivery is a no-op), not the
queue's.
*/
package mq

import "context"

// Message is one queued unit of work together with an opaque ID the
// consumer must acknowledge via the batch callback's return.
type Message struct {
	ID      string
	Payload []byte
}

// Queue is the narrow interface services depend on.
type Queue interface {
	// Send enqueues payload for delivery.
	Send(ctx context.Context, payload []byte) error

	// Consume blocks, delivering messages in batches of up to maxBatchSize
	// to handle. Messages handle returns nil for are acknowledged; if handle
	// returns an error, none of the batch is acknowledged and every message
	// in it is redelivered (to this or another consumer) after the
	// visibility timeout elapses. Consume returns when ctx is cancelled.
	Consume(ctx context.Context, maxBatchSize int, handle func(batch []Message) error) error
}
