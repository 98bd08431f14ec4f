// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package keycache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/internetofwater/fcrepo/internal/config"
	log "github.com/sirupsen/logrus"
)

// the subset of the redis client the cache uses
type hashStore interface {
	HSetNX(ctx context.Context, key, field string, value interface{}) *redis.BoolCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.StringStringMapCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisKeyCache remembers which uuid was minted for which resource path
// during a transaction. Each transaction is one redis hash of uuid -> path
// keyed by the transaction id, so ending a transaction drops the whole hash.
type RedisKeyCache struct {
	store hashStore
	// zero means entries never expire
	ttl time.Duration
}

// NewRedisKeyCache connects to the redis server in conf and checks it answers
func NewRedisKeyCache(conf config.CacheConfig) (*RedisKeyCache, error) {
	if conf.Address == "" {
		return nil, fmt.Errorf("no redis address configured for the key cache")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         conf.Address,
		Password:     conf.Password,
		DB:           conf.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	cache := newKeyCache(client, conf.TTL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", conf.Address, err)
	}
	return cache, nil
}

func newKeyCache(store hashStore, ttl time.Duration) *RedisKeyCache {
	return &RedisKeyCache{store: store, ttl: ttl}
}

// Set records uuid -> path for the transaction. An existing entry for
// uuid is kept; the returned bool is false in that case.
func (c *RedisKeyCache) Set(ctx context.Context, transactionId, uuid, path string) (bool, error) {
	added, err := c.store.HSetNX(ctx, transactionId, uuid, path).Result()
	if err != nil {
		return false, fmt.Errorf("failed to cache %s for transaction %s: %w", uuid, transactionId, err)
	}
	if c.ttl > 0 {
		if err := c.store.Expire(ctx, transactionId, c.ttl).Err(); err != nil {
			return added, fmt.Errorf("failed to set expiry on transaction %s: %w", transactionId, err)
		}
	}
	return added, nil
}

// GetByUuid returns the path cached for uuid in the transaction
func (c *RedisKeyCache) GetByUuid(ctx context.Context, transactionId, uuid string) (string, bool, error) {
	path, err := c.store.HGet(ctx, transactionId, uuid).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// GetByPath returns the uuid cached for path in the transaction. When
// several uuids point at the same path the smallest one wins.
func (c *RedisKeyCache) GetByPath(ctx context.Context, transactionId, path string) (string, bool, error) {
	entries, err := c.store.HGetAll(ctx, transactionId).Result()
	if err != nil {
		return "", false, err
	}

	var matches []string
	for uuid, cachedPath := range entries {
		if cachedPath == path {
			matches = append(matches, uuid)
		}
	}
	if len(matches) == 0 {
		return "", false, nil
	}
	sort.Strings(matches)
	return matches[0], true, nil
}

// Delete drops every entry of the transaction
func (c *RedisKeyCache) Delete(ctx context.Context, transactionId string) error {
	removed, err := c.store.Del(ctx, transactionId).Result()
	if err != nil {
		return err
	}
	log.Debugf("deleted key cache of transaction %s (%d keys removed)", transactionId, removed)
	return nil
}

func (c *RedisKeyCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

func (c *RedisKeyCache) Close() error {
	return c.store.Close()
}
