package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pulsewatch:snapshot:"

// RedisStore keeps the latest snapshot per device in Redis, so several
// readers (and restarted monitors) share one view.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	// timeout bounds each Put/GetLatest round trip.
	timeout time.Duration
}

// NewRedisStore creates a Redis-backed store. A ttl <= 0 stores snapshots
// without expiration.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &RedisStore{
		client:  client,
		ttl:     ttl,
		timeout: 2 * time.Second,
	}, nil
}

// Ping verifies connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Put stores snap as the latest snapshot for its device.
func (r *RedisStore) Put(snap Snapshot) error {
	if snap.Device == "" {
		return errors.New("snapshot device cannot be empty")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, redisKeyPrefix+snap.Device, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// GetLatest returns the latest snapshot for device.
func (r *RedisStore) GetLatest(device string) (Snapshot, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	data, err := r.client.Get(ctx, redisKeyPrefix+device).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("redis get: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}
