// Copyright (c) 2026 The Wire. All rights reserved.

package ranker

import (
	"context"
	"log/slog"
	"time"

	"github.com/chrischabot/the-wire/internal/domain/feed"
	"github.com/chrischabot/the-wire/internal/domain/post"
	"github.com/chrischabot/the-wire/internal/platform/constants"
)

// shouldCompact reports whether p is eligible for hard deletion: soft-deleted
// or taken down, and past the retention cutoff.
func shouldCompact(p post.Post, cutoff time.Time) bool {
	if p.IsDeleted && p.DeletedAt != nil && p.DeletedAt.Before(cutoff) {
		return true
	}
	if p.IsTakenDown && p.TakenDownAt != nil && p.TakenDownAt.Before(cutoff) {
		return true
	}
	return false
}

// RunHourlyGC scans the feed: namespace and drops entries older than
// FeedEntryRetentionDays, per spec.md §4.I's hourly maintenance pass.
func (r *Ranker) RunHourlyGC(ctx context.Context, feeds *feed.Actor) error {
	cutoff := time.Now().AddDate(0, 0, -r.cfg.FeedEntryRetentionDays)

	cursor := ""
	pruned := 0
	for {
		keys, next, done, err := r.store.List(ctx, constants.KeyPrefixFeed, scanBatchSize, cursor)
		if err != nil {
			return err
		}
		for _, key := range keys {
			userID := key[len(constants.KeyPrefixFeed):]
			entries, err := feeds.RawEntries(ctx, userID, 0)
			if err != nil {
				continue
			}
			for _, e := range entries {
				if e.Timestamp.Before(cutoff) {
					if err := feeds.RemoveEntry(ctx, userID, e.PostID); err == nil {
						pruned++
					}
				}
			}
		}
		if done {
			break
		}
		cursor = next
	}

	r.logger.InfoContext(ctx, "feed_gc_complete", slog.Int("pruned", pruned))
	return nil
}

// RunDailyGC hard-deletes post: records that have been soft-deleted or
// taken down for longer than RetentionTombstoneDays, per spec.md §4.I's
// daily maintenance pass.
func (r *Ranker) RunDailyGC(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -r.cfg.RetentionTombstoneDays)

	cursor := ""
	deleted := 0
	for {
		keys, next, done, err := r.store.List(ctx, constants.KeyPrefixPost, scanBatchSize, cursor)
		if err != nil {
			return err
		}
		for _, key := range keys {
			raw, found, err := r.store.Get(ctx, key)
			if err != nil || !found {
				continue
			}
			st, err := post.Unmarshal(raw)
			if err != nil {
				continue
			}
			if shouldCompact(st.Post, cutoff) {
				if err := r.store.Delete(ctx, key); err == nil {
					deleted++
				}
			}
		}
		if done {
			break
		}
		cursor = next
	}

	r.logger.InfoContext(ctx, "post_compaction_complete", slog.Int("deleted", deleted))
	return nil
}
