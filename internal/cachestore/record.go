package cachestore

import "time"

// Record is a cached payload together with its freshness metadata.
// A TTL of zero or less means the record never expires.
type Record[T any] struct {
	WrittenAt time.Time     `json:"writtenAt"`
	TTL       time.Duration `json:"ttl"`
	Payload   T             `json:"payload"`
}

// NewRecord creates a record written at now with the given TTL.
func NewRecord[T any](payload T, ttl time.Duration, now time.Time) Record[T] {
	return Record[T]{
		WrittenAt: now,
		TTL:       ttl,
		Payload:   payload,
	}
}

// Valid reports whether the record is still fresh at the given time.
// Validity is a read-time check; expired records stay in storage until
// overwritten by a refresh.
func (r Record[T]) Valid(now time.Time) bool {
	if r.TTL <= 0 {
		return true
	}
	return now.Sub(r.WrittenAt) < r.TTL
}
