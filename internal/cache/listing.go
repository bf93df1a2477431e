// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"llmaware/internal/models"
)

const (
	// listingKeyPrefix is the Valkey key prefix for cached listings.
	listingKeyPrefix = "listing:"

	// listingGenerationKey counts invalidations. It sits outside the
	// prefix so InvalidateAll never resets it.
	listingGenerationKey = "listing_generation"

	// DefaultListingTTL is how long an aggregated listing stays cached.
	DefaultListingTTL = time.Minute
)

// ListingCache stores aggregated post listings as JSON in Valkey.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a listing cache backed by the given Valkey client.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{client: client, ttl: ttl}
}

// Get returns the cached listing for key. ok is false on a miss.
func (lc *ListingCache) Get(ctx context.Context, key string) ([]models.PostListing, bool, error) {
	val, err := lc.client.Get(ctx, listingKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("listing cache get %s: %w", key, err)
	}

	var items []models.PostListing
	if err := json.Unmarshal(val, &items); err != nil {
		return nil, false, fmt.Errorf("listing cache decode %s: %w", key, err)
	}
	zap.L().Debug("listing cache hit", zap.String("key", key))
	return items, true, nil
}

// Generation returns the current invalidation generation. A missing
// counter reads as zero.
func (lc *ListingCache) Generation(ctx context.Context) (int64, error) {
	gen, err := lc.client.Get(ctx, listingGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("listing cache generation: %w", err)
	}
	return gen, nil
}

// Set stores items under key with the configured TTL, but only while the
// generation still equals generation. The check and the write run in one
// WATCH transaction, so an invalidation racing the write aborts it.
// stored reports whether the value was written.
func (lc *ListingCache) Set(ctx context.Context, key string, generation int64, items []models.PostListing) (bool, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return false, fmt.Errorf("listing cache encode %s: %w", key, err)
	}

	stored := false
	err = lc.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, listingGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, listingKeyPrefix+key, payload, lc.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, listingGenerationKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("listing cache set %s: %w", key, err)
	}
	return stored, nil
}

// InvalidateAll advances the generation, then removes every cached listing
// by scanning for the prefix. Loads that started before the call can no
// longer store their result.
func (lc *ListingCache) InvalidateAll(ctx context.Context) error {
	if err := lc.client.Incr(ctx, listingGenerationKey).Err(); err != nil {
		return fmt.Errorf("listing cache generation bump: %w", err)
	}

	var cursor uint64
	var deleted int
	for {
		keys, next, err := lc.client.Scan(ctx, cursor, listingKeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("listing cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("listing cache delete: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		zap.L().Debug("listing cache cleared", zap.Int("deleted", deleted))
	}
	return nil
}
