// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store is the durable append log for vice-blocks, round votes,
// and tx votes, keyed by tip (spec.md §4.3). It is backed by
// github.com/syndtr/goleveldb, the embedded KV store this example pack
// standardizes on.
package store

// Batch groups writes so they are flushed as a single durable unit — "a
// write returns only after the batch is flushed" (spec.md §4.3's
// durability contract).
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Size() int
	Write() error
	Reset()
}

// KV is the minimal key-value database contract the Store is built on.
type KV interface {
	Reader
	Writer
	NewBatch() Batch
	// Iterate calls fn for every key with the given prefix, in key order,
	// until fn returns false or the keyspace is exhausted.
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
	Close() error
}

// Reader reads from a KV database.
type Reader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// Writer writes to a KV database.
type Writer interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}
