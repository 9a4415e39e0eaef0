// Copyright (c) 2026 The Wire. All rights reserved.

package mq

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// claimIdleThreshold is how long a pending entry may sit unacknowledged
// before another consumer is allowed to reclaim and redeliver it.
const claimIdleThreshold = 30 * time.Second

// reclaimInterval is how often Consume checks for timed-out pending
// entries left behind by a crashed consumer.
const reclaimInterval = 10 * time.Second

// RedisStreamQueue implements [Queue] on a Redis Stream with a single
// consumer group. Grounded on the same go-redis client the teacher already
// depends on for token storage; the stream + consumer-group primitives are
// the idiomatic Redis analogue of the broker the fan-out examples in the
// pack (ritiksahni/twitter-fan-out, DimaJoyti/go-coffee) put in front of
// their delivery workers.
type RedisStreamQueue struct {
	client       *redis.Client
	stream       string
	group        string
	consumerName string
	logger       *slog.Logger
}

// NewRedisStreamQueue creates the consumer group if it does not already
// exist (MKSTREAM so the stream itself is created lazily) and returns a
// ready-to-use queue.
func NewRedisStreamQueue(ctx context.Context, client *redis.Client, stream, group, consumerName string, logger *slog.Logger) (*RedisStreamQueue, error) {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	// BUSYGROUP means the group already exists — not an error on restart.
	if err != nil && !isBusyGroupErr(err) {
		return nil, err
	}

	return &RedisStreamQueue{
		client:       client,
		stream:       stream,
		group:        group,
		consumerName: consumerName,
		logger:       logger,
	}, nil
}

func (q *RedisStreamQueue) Send(ctx context.Context, payload []byte) error {
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{"payload": payload},
	}).Err()
}

func (q *RedisStreamQueue) Consume(ctx context.Context, maxBatchSize int, handle func(batch []Message) error) error {
	reclaimTicker := time.NewTicker(reclaimInterval)
	defer reclaimTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-reclaimTicker.C:
			if err := q.reclaimTimedOut(ctx, maxBatchSize, handle); err != nil {
				q.logger.ErrorContext(ctx, "mq_reclaim_failed", slog.Any("error", err))
			}
		default:
		}

		entries, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: q.consumerName,
			Streams:  []string{q.stream, ">"},
			Count:    int64(maxBatchSize),
			Block:    2 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			q.logger.ErrorContext(ctx, "mq_read_failed", slog.Any("error", err))
			continue
		}

		for _, stream := range entries {
			q.deliverAndAck(ctx, stream.Messages, handle)
		}
	}
}

// deliverAndAck converts raw stream entries into [Message]s, invokes
// handle once per batch, and acknowledges the whole batch only if handle
// succeeds. On partial failure, nothing is acknowledged — per spec.md's
// partial-batch-failure rule, the unprocessed tail (here: the whole batch,
// since Redis Streams acknowledges atomically) is simply redelivered after
// the visibility timeout via reclaimTimedOut.
func (q *RedisStreamQueue) deliverAndAck(ctx context.Context, raw []redis.XMessage, handle func(batch []Message) error) {
	if len(raw) == 0 {
		return
	}

	batch := make([]Message, 0, len(raw))
	for _, m := range raw {
		payload, _ := m.Values["payload"].(string)
		batch = append(batch, Message{ID: m.ID, Payload: []byte(payload)})
	}

	if err := handle(batch); err != nil {
		q.logger.ErrorContext(ctx, "mq_batch_handler_failed", slog.Any("error", err), slog.Int("batch_size", len(batch)))
		return
	}

	ids := make([]string, 0, len(batch))
	for _, m := range batch {
		ids = append(ids, m.ID)
	}
	if err := q.client.XAck(ctx, q.stream, q.group, ids...).Err(); err != nil {
		q.logger.ErrorContext(ctx, "mq_ack_failed", slog.Any("error", err))
	}
}

// reclaimTimedOut claims pending entries idle longer than
// claimIdleThreshold (left behind by a consumer that crashed mid-batch)
// and redelivers them to this consumer.
func (q *RedisStreamQueue) reclaimTimedOut(ctx context.Context, maxBatchSize int, handle func(batch []Message) error) error {
	claimed, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: q.consumerName,
		MinIdle:  claimIdleThreshold,
		Start:    "0",
		Count:    int64(maxBatchSize),
	}).Result()
	if err != nil {
		return err
	}

	q.deliverAndAck(ctx, claimed, handle)
	return nil
}

func isBusyGroupErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}
