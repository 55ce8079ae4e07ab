package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "authsim:"
	redisMaxAttempts = 3
)

// Redis stores values under authsim:<key> in a Redis database.
type Redis struct {
	rdb *redis.Client
}

// OpenRedis connects using a redis:// or rediss:// URL and pings the server.
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	r := NewRedis(redis.NewClient(opts))
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, storageErr("ping", "", err)
	}
	return r, nil
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.rdb.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get", key, err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, redisKey(key), value, 0).Err(); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, redisKey(key)).Err(); err != nil {
		return storageErr("delete", key, err)
	}
	return nil
}

// Update runs fn inside WATCH/MULTI and retries when another writer
// touched the key in between.
func (r *Redis) Update(ctx context.Context, key string, fn UpdateFunc) error {
	k := redisKey(key)
	var fnErr error

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		next, err := fn(current)
		if err != nil {
			fnErr = err
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, k)
			} else {
				pipe.Set(ctx, k, next, 0)
			}
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < redisMaxAttempts; attempt++ {
		fnErr = nil
		err = r.rdb.Watch(ctx, txf, k)
		if fnErr != nil {
			return fnErr
		}
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return storageErr("update", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
