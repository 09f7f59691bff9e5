package cachestore

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bucket provides typed access to one namespace of a Store. All records
// written through a bucket share the bucket's TTL.
type Bucket[T any] struct {
	store     *Store
	namespace string
	ttl       time.Duration
}

// NewBucket creates a typed bucket over the given namespace. A ttl of zero
// or less makes every record permanent.
func NewBucket[T any](store *Store, namespace string, ttl time.Duration) *Bucket[T] {
	return &Bucket[T]{
		store:     store,
		namespace: namespace,
		ttl:       ttl,
	}
}

// Get returns the record stored under key, if any. Callers decide what to
// do with stale records via Record.Valid.
func (b *Bucket[T]) Get(key string) (Record[T], bool, error) {
	var rec Record[T]

	raw, ok, err := b.store.Get(b.namespace, key)
	if err != nil || !ok {
		return rec, false, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, false, fmt.Errorf("failed to parse cache record %s/%s: %w", b.namespace, key, err)
	}
	return rec, true, nil
}

// Set writes payload under key with the bucket's TTL, stamped at now.
func (b *Bucket[T]) Set(key string, payload T, now time.Time) error {
	raw, err := json.Marshal(NewRecord(payload, b.ttl, now))
	if err != nil {
		return fmt.Errorf("failed to marshal cache record %s/%s: %w", b.namespace, key, err)
	}
	return b.store.Set(b.namespace, key, raw)
}
