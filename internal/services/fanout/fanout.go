// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package fanout implements the write-time fan-out worker (Component H): the
consumer side of constants.TopicFanout, which turns one new post into a
FeedActor entry for every follower of its author.

Idempotency is the worker's responsibility per spec.md §4.B: FeedActor's
AddEntry already dedupes by postId, so redelivering a batch after a crash
or a queue timeout is always safe to retry in full.
*/
package fanout

import (
	"context"
	"encoding/json"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/chrischabot/the-wire/internal/domain/feed"
	"github.com/chrischabot/the-wire/internal/domain/user"
	"github.com/chrischabot/the-wire/internal/platform/mq"
	"github.com/chrischabot/the-wire/internal/services/postsvc"
)

// maxFanoutConcurrency bounds the number of concurrent FeedActor.AddEntry
// calls per delivered message, satisfying spec.md §5's "per-message
// concurrency is bounded" fan-out rule.
const maxFanoutConcurrency = 32

// Worker drains the fan-out queue and pushes feed entries to followers.
type Worker struct {
	queue mq.Queue
	users *user.Actor
	feeds *feed.Actor

	logger *slog.Logger
}

// New constructs a fan-out Worker from its collaborators.
func New(queue mq.Queue, users *user.Actor, feeds *feed.Actor, logger *slog.Logger) *Worker {
	return &Worker{queue: queue, users: users, feeds: feeds, logger: logger}
}

// Run blocks, consuming batches of fan-out messages until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, batchSize int) error {
	return w.queue.Consume(ctx, batchSize, func(batch []mq.Message) error {
		return w.handleBatch(ctx, batch)
	})
}

// handleBatch processes every message in the batch, returning the first
// error encountered so the whole batch is redelivered — each message's
// fan-out is itself idempotent, so reprocessing already-delivered entries
// is harmless.
func (w *Worker) handleBatch(ctx context.Context, batch []mq.Message) error {
	for _, m := range batch {
		var msg postsvc.FanoutMessage
		if err := json.Unmarshal(m.Payload, &msg); err != nil {
			w.logger.ErrorContext(ctx, "fanout_message_undecodable", slog.String("msg_id", m.ID), slog.Any("err", err))
			continue // a malformed message can never succeed; drop it rather than poison the queue forever
		}
		if err := w.fanoutOne(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// fanoutOne resolves msg.AuthorID's followers and appends a FeedActor entry
// for each, bounded to maxFanoutConcurrency concurrent actor calls.
func (w *Worker) fanoutOne(ctx context.Context, msg postsvc.FanoutMessage) error {
	author, err := w.users.Get(ctx, msg.AuthorID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFanoutConcurrency)

	for _, followerID := range author.Followers.Items() {
		followerID := followerID
		g.Go(func() error {
			entry := feed.Entry{PostID: msg.PostID, AuthorID: msg.AuthorID, Timestamp: msg.CreatedAt, Source: feed.SourceFollow}
			if err := w.feeds.AddEntry(gctx, followerID, entry); err != nil {
				w.logger.ErrorContext(gctx, "fanout_add_entry_failed",
					slog.String("follower_id", followerID), slog.String("post_id", msg.PostID), slog.Any("err", err))
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
