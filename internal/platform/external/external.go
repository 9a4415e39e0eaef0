// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package external defines the narrow collaborator interfaces spec.md §1
explicitly scopes out of the core: search indexing, mention/notification
delivery, and media handling. Only structured-logging no-op
implementations live here — a real deployment wires a real search engine
or push-notification service behind the same interface without touching
postsvc, which is the point of depending on an interface rather than a
concrete type (mirrors the teacher's own sec.TokenService being consumed
through middleware.TokenVerifier rather than directly).
*/
package external

import (
	"context"
	"log/slog"
	"regexp"
)

// SearchIndexer indexes or removes a post from full-text search. Out of
// core scope per spec.md §1; The Wire never ranks by full-text relevance.
type SearchIndexer interface {
	IndexPost(ctx context.Context, postID, content string) error
	RemovePost(ctx context.Context, postID string) error
}

// Notifier delivers an out-of-band notification to a user. Push/email
// transport is out of core scope; only the call site (who gets notified,
// when) is.
type Notifier interface {
	NotifyReply(ctx context.Context, parentAuthorID, postID string)
	NotifyQuote(ctx context.Context, quotedAuthorID, postID string)
	NotifyRepost(ctx context.Context, originalAuthorID, postID string)
	NotifyMention(ctx context.Context, mentionedHandle, postID string)
}

// LoggingSearchIndexer is the default SearchIndexer: it logs the intent
// and does nothing else. Swap for a real indexer (Elasticsearch, Meilisearch,
// a managed search API) by implementing SearchIndexer.
type LoggingSearchIndexer struct {
	Logger *slog.Logger
}

func (l *LoggingSearchIndexer) IndexPost(ctx context.Context, postID, content string) error {
	l.Logger.InfoContext(ctx, "search_index_post", slog.String("post_id", postID))
	return nil
}

func (l *LoggingSearchIndexer) RemovePost(ctx context.Context, postID string) error {
	l.Logger.InfoContext(ctx, "search_remove_post", slog.String("post_id", postID))
	return nil
}

// LoggingNotifier is the default Notifier: it logs the intent and does
// nothing else.
type LoggingNotifier struct {
	Logger *slog.Logger
}

func (l *LoggingNotifier) NotifyReply(ctx context.Context, parentAuthorID, postID string) {
	l.Logger.InfoContext(ctx, "notify_reply", slog.String("parent_author_id", parentAuthorID), slog.String("post_id", postID))
}

func (l *LoggingNotifier) NotifyQuote(ctx context.Context, quotedAuthorID, postID string) {
	l.Logger.InfoContext(ctx, "notify_quote", slog.String("quoted_author_id", quotedAuthorID), slog.String("post_id", postID))
}

func (l *LoggingNotifier) NotifyRepost(ctx context.Context, originalAuthorID, postID string) {
	l.Logger.InfoContext(ctx, "notify_repost", slog.String("original_author_id", originalAuthorID), slog.String("post_id", postID))
}

func (l *LoggingNotifier) NotifyMention(ctx context.Context, mentionedHandle, postID string) {
	l.Logger.InfoContext(ctx, "notify_mention", slog.String("handle", mentionedHandle), slog.String("post_id", postID))
}

// mentionPattern matches @handle tokens: 3-15 lowercase alphanumerics/
// underscores, mirroring the handle format validated at signup.
var mentionPattern = regexp.MustCompile(`@([a-z0-9_]{3,15})\b`)

// DetectMentions returns the distinct, lowercased handles mentioned in content.
func DetectMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if matches == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var handles []string
	for _, m := range matches {
		h := m[1]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		handles = append(handles, h)
	}
	return handles
}
