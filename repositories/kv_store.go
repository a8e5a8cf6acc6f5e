package repositories

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/deltaone/deltaone-backend/models"
)

// KvStore is the storage contract required by the attestation registry and
// the score ledger: atomic create-if-absent with expiry, plain reads and
// writes, list append, and an atomic multi-write batch. Any key-value system
// offering a conditional create with TTL can satisfy it; correctness of
// replay protection rests entirely on CreateIfAbsent, never on in-process
// locks.
type KvStore interface {
	// CreateIfAbsent writes value under key only when the key does not exist,
	// with the given TTL. Returns false when the key was already present.
	CreateIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Get returns the value stored under key, or models.NotFoundError.
	Get(ctx context.Context, key string) ([]byte, error)

	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Append adds value at the tail of the list stored under key.
	Append(ctx context.Context, key string, value []byte) error

	// List returns all list entries under key in insertion order.
	List(ctx context.Context, key string) ([][]byte, error)

	// Batch applies all writes registered on the KvBatch atomically: either
	// every write lands or none does.
	Batch(ctx context.Context, ops func(b KvBatch)) error
}

type KvBatch interface {
	Set(key string, value []byte)
	Append(key string, value []byte)
}

type RedisKvStore struct {
	client *RedisClient
}

func NewRedisKvStore(client *RedisClient) RedisKvStore {
	return RedisKvStore{client: client}
}

func (store RedisKvStore) CreateIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	created, err := store.client.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, errors.Wrapf(models.ErrStoreUnavailable, "conditional create on %s: %v", key, err)
	}
	return created, nil
}

func (store RedisKvStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := store.client.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.Wrapf(models.NotFoundError, "key %s", key)
		}
		return nil, errors.Wrapf(models.ErrStoreUnavailable, "get %s: %v", key, err)
	}
	return out, nil
}

func (store RedisKvStore) Set(ctx context.Context, key string, value []byte) error {
	if err := store.client.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrapf(models.ErrStoreUnavailable, "set %s: %v", key, err)
	}
	return nil
}

func (store RedisKvStore) Delete(ctx context.Context, key string) error {
	if err := store.client.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(models.ErrStoreUnavailable, "delete %s: %v", key, err)
	}
	return nil
}

func (store RedisKvStore) Append(ctx context.Context, key string, value []byte) error {
	if err := store.client.client.RPush(ctx, key, value).Err(); err != nil {
		return errors.Wrapf(models.ErrStoreUnavailable, "append to %s: %v", key, err)
	}
	return nil
}

func (store RedisKvStore) List(ctx context.Context, key string) ([][]byte, error) {
	entries, err := store.client.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(models.ErrStoreUnavailable, "list %s: %v", key, err)
	}

	out := make([][]byte, len(entries))
	for i, entry := range entries {
		out[i] = []byte(entry)
	}
	return out, nil
}

func (store RedisKvStore) Batch(ctx context.Context, ops func(b KvBatch)) error {
	_, err := store.client.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		ops(redisKvBatch{ctx: ctx, pipe: p})
		return nil
	})
	if err != nil {
		return errors.Wrapf(models.ErrStoreUnavailable, "batch write: %v", err)
	}
	return nil
}

type redisKvBatch struct {
	ctx  context.Context
	pipe redis.Pipeliner
}

func (b redisKvBatch) Set(key string, value []byte) {
	b.pipe.Set(b.ctx, key, value, 0)
}

func (b redisKvBatch) Append(key string, value []byte) {
	b.pipe.RPush(b.ctx, key, value)
}
