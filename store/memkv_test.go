// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"bytes"
	"sort"
	"sync"
)

// memKV is an in-memory KV for tests, avoiding a real LevelDB file per
// test case while exercising the same Store code path LevelDB does.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Has(key []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *memKV) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *memKV) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *memKV) NewBatch() Batch {
	return &memBatch{kv: m}
}

func (m *memKV) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	m.mu.Lock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	snapshot := make(map[string][]byte, len(keys))
	for _, k := range keys {
		snapshot[k] = m.data[k]
	}
	m.mu.Unlock()

	for _, k := range keys {
		if !fn([]byte(k), snapshot[k]) {
			break
		}
	}
	return nil
}

func (m *memKV) Close() error { return nil }

type memOp struct {
	key    []byte
	value  []byte
	delete bool
}

type memBatch struct {
	kv  *memKV
	ops []memOp
}

func (b *memBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, memOp{key: key, value: value})
	return nil
}

func (b *memBatch) Delete(key []byte) error {
	b.ops = append(b.ops, memOp{key: key, delete: true})
	return nil
}

func (b *memBatch) Size() int { return len(b.ops) }

func (b *memBatch) Write() error {
	for _, op := range b.ops {
		if op.delete {
			_ = b.kv.Delete(op.key)
			continue
		}
		_ = b.kv.Put(op.key, op.value)
	}
	b.ops = nil
	return nil
}

func (b *memBatch) Reset() { b.ops = nil }
