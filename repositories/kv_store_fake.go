package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/deltaone/deltaone-backend/models"
)

// KvStoreFake is an in-memory KvStore used in tests. TTL handling is driven
// by the injectable clock so expiry can be simulated without sleeping.
type KvStoreFake struct {
	mu     sync.Mutex
	values map[string]fakeEntry
	lists  map[string][][]byte
	now    func() time.Time
}

type fakeEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewKvStoreFake() *KvStoreFake {
	return &KvStoreFake{
		values: make(map[string]fakeEntry),
		lists:  make(map[string][][]byte),
		now:    time.Now,
	}
}

func (store *KvStoreFake) SetClock(now func() time.Time) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.now = now
}

func (store *KvStoreFake) expired(entry fakeEntry) bool {
	return !entry.expiresAt.IsZero() && !store.now().Before(entry.expiresAt)
}

func (store *KvStoreFake) CreateIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if entry, ok := store.values[key]; ok && !store.expired(entry) {
		return false, nil
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = store.now().Add(ttl)
	}
	store.values[key] = fakeEntry{value: value, expiresAt: expiresAt}
	return true, nil
}

func (store *KvStoreFake) Get(ctx context.Context, key string) ([]byte, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry, ok := store.values[key]
	if !ok || store.expired(entry) {
		return nil, errors.Wrapf(models.NotFoundError, "key %s", key)
	}
	return entry.value, nil
}

func (store *KvStoreFake) Set(ctx context.Context, key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.values[key] = fakeEntry{value: value}
	return nil
}

func (store *KvStoreFake) Delete(ctx context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.values, key)
	return nil
}

func (store *KvStoreFake) Append(ctx context.Context, key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.lists[key] = append(store.lists[key], value)
	return nil
}

func (store *KvStoreFake) List(ctx context.Context, key string) ([][]byte, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	entries := store.lists[key]
	out := make([][]byte, len(entries))
	copy(out, entries)
	return out, nil
}

func (store *KvStoreFake) Batch(ctx context.Context, ops func(b KvBatch)) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	ops(fakeKvBatch{store: store})
	return nil
}

type fakeKvBatch struct {
	store *KvStoreFake
}

func (b fakeKvBatch) Set(key string, value []byte) {
	b.store.values[key] = fakeEntry{value: value}
}

func (b fakeKvBatch) Append(key string, value []byte) {
	b.store.lists[key] = append(b.store.lists[key], value)
}
