// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (KV store, queue, actor runtime) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for The Wire's API and worker processes.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Key-Value store and queue backend (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for session and identity signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`
	AccessTokenTTL int    `env:"TOKEN_TTL_HOURS" envDefault:"24"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// # Domain limits
	MaxNoteLength       int `env:"MAX_NOTE_LENGTH"        envDefault:"280"`
	MaxThreadDepth      int `env:"MAX_THREAD_DEPTH"       envDefault:"10"`
	MaxFeedEntries      int `env:"MAX_FEED_ENTRIES"       envDefault:"1000"`
	MaxPaginationLimit  int `env:"MAX_PAGINATION_LIMIT"   envDefault:"50"`
	DefaultFeedPageSize int `env:"DEFAULT_FEED_PAGE_SIZE" envDefault:"20"`
	MaxAutoFollowSeeds  int `env:"MAX_AUTO_FOLLOW_SEEDS"  envDefault:"20"`

	// AutoFollowSeedsRaw is a comma-separated list of handles every new
	// account is auto-followed to at signup. Parsed via AutoFollowSeeds().
	AutoFollowSeedsRaw string `env:"AUTO_FOLLOW_SEEDS" envDefault:""`

	// InitialAdminHandle is granted isAdmin=true the first time it signs up.
	InitialAdminHandle string `env:"INITIAL_ADMIN_HANDLE" envDefault:""`

	// # Ranking (Component I) — the tuned HN-score constants from the
	// scoring formula score = (likeCount*LikeW + replyCount*ReplyW +
	// repostCount*RepostW) / (ageHours + BaseOffset)^Exp.
	ScoringExp        float64 `env:"SCORING_EXP"         envDefault:"1.3"`
	ScoringBaseOffset float64 `env:"SCORING_BASE_OFFSET" envDefault:"4"`
	ScoringLikeW      float64 `env:"SCORING_LIKE_W"      envDefault:"1"`
	ScoringReplyW     float64 `env:"SCORING_REPLY_W"     envDefault:"10"`
	ScoringRepostW    float64 `env:"SCORING_REPOST_W"    envDefault:"3"`

	// DiversityWindow/DiversityMaxPerAuthor bound how many posts from one
	// author may appear within any sliding window of ranked output.
	DiversityWindow        int `env:"DIVERSITY_WINDOW"         envDefault:"5"`
	DiversityMaxPerAuthor  int `env:"DIVERSITY_MAX_PER_AUTHOR" envDefault:"2"`

	// # Retention / GC
	FeedEntryRetentionDays int `env:"FEED_ENTRY_RETENTION_DAYS" envDefault:"7"`
	RetentionTombstoneDays int `env:"RETENTION_TOMBSTONE_DAYS"  envDefault:"30"`

	// # Cache TTLs (seconds)
	CacheTTLProfileSeconds int `env:"CACHE_TTL_PROFILE_SECONDS" envDefault:"3600"`
	CacheTTLRankedSeconds  int `env:"CACHE_TTL_RANKED_SECONDS"  envDefault:"900"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the parsed, trimmed list of extra origins CORS
// should accept in production, beyond whatever the middleware allows by
// default.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}

	var origins []string
	for _, o := range strings.Split(c.ExtraOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		origins = append(origins, o)
	}
	return origins
}

// AutoFollowSeeds returns the parsed, trimmed list of seed handles new
// accounts are auto-followed to at signup, capped at MaxAutoFollowSeeds.
func (c *Config) AutoFollowSeeds() []string {
	if c.AutoFollowSeedsRaw == "" {
		return nil
	}

	var seeds []string
	for _, h := range strings.Split(c.AutoFollowSeedsRaw, ",") {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		seeds = append(seeds, h)
		if len(seeds) >= c.MaxAutoFollowSeeds {
			break
		}
	}
	return seeds
}
