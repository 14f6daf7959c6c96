// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/wiremsg"
)

// ErrNotFound is returned by KV.Get (and surfaced through Find*) when a
// key is absent.
var ErrNotFound = errors.New("store: not found")

const (
	prefixViceBlock = byte(wiremsg.KindViceBlock)
	prefixRoundVote = byte(wiremsg.KindRoundVote)
	prefixTxVote    = byte(wiremsg.KindTxVote)
)

// Store is the durable append log of vice-blocks, round votes, and tx
// votes, each keyed by tip||hash (spec.md §4.3). The Controller writes
// each persisted message through its own WriteBatch and flushes it before
// the handler returns; the writes of one handler or one Voter output are
// not grouped into a single batch.
type Store struct {
	kv KV
}

// New wraps kv as a Store.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

func key(prefix byte, tip, hash dposids.BlockHash) []byte {
	k := make([]byte, 1+len(tip)+len(hash))
	k[0] = prefix
	n := copy(k[1:], tip[:])
	copy(k[1+n:], hash[:])
	return k
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("store: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("store: decode: %w", err)
	}
	return nil
}

// NewBatch starts a new write batch whose puts are flushed together by
// Write.
func (s *Store) NewBatch() *WriteBatch {
	return &WriteBatch{b: s.kv.NewBatch()}
}

// WriteBatch groups the puts made through it until Write is called.
type WriteBatch struct {
	b Batch
}

func (wb *WriteBatch) PutViceBlock(tip dposids.BlockHash, b wiremsg.ViceBlock) error {
	data, err := encode(b)
	if err != nil {
		return err
	}
	return wb.b.Put(key(prefixViceBlock, tip, b.Hash), data)
}

func (wb *WriteBatch) PutRoundVote(tip dposids.BlockHash, rv wiremsg.RoundVote) error {
	data, err := encode(rv)
	if err != nil {
		return err
	}
	return wb.b.Put(key(prefixRoundVote, tip, rv.Hash()), data)
}

func (wb *WriteBatch) PutTxVote(tip dposids.BlockHash, tv wiremsg.TxVote) error {
	data, err := encode(tv)
	if err != nil {
		return err
	}
	return wb.b.Put(key(prefixTxVote, tip, tv.Hash()), data)
}

// Write flushes the batch. The Store's durability contract: a caller that
// sees Write return nil may treat every Put in the batch as durable.
func (wb *WriteBatch) Write() error {
	return wb.b.Write()
}

// FindViceBlock looks up a vice-block by (tip, hash).
func (s *Store) FindViceBlock(tip, hash dposids.BlockHash) (wiremsg.ViceBlock, error) {
	var b wiremsg.ViceBlock
	data, err := s.kv.Get(key(prefixViceBlock, tip, hash))
	if err != nil {
		return b, err
	}
	err = decode(data, &b)
	return b, err
}

// FindRoundVote looks up a round vote by (tip, hash).
func (s *Store) FindRoundVote(tip, hash dposids.BlockHash) (wiremsg.RoundVote, error) {
	var rv wiremsg.RoundVote
	data, err := s.kv.Get(key(prefixRoundVote, tip, hash))
	if err != nil {
		return rv, err
	}
	err = decode(data, &rv)
	return rv, err
}

// FindTxVote looks up a tx vote by (tip, hash).
func (s *Store) FindTxVote(tip, hash dposids.BlockHash) (wiremsg.TxVote, error) {
	var tv wiremsg.TxVote
	data, err := s.kv.Get(key(prefixTxVote, tip, hash))
	if err != nil {
		return tv, err
	}
	err = decode(data, &tv)
	return tv, err
}

// LoadViceBlocks calls fn for every persisted vice-block under tip, for
// startup reconstruction of the Voter's in-memory state.
func (s *Store) LoadViceBlocks(tip dposids.BlockHash, fn func(wiremsg.ViceBlock)) error {
	return s.kv.Iterate(tipPrefix(prefixViceBlock, tip), func(_, value []byte) bool {
		var b wiremsg.ViceBlock
		if decode(value, &b) == nil {
			fn(b)
		}
		return true
	})
}

// LoadRoundVotes calls fn for every persisted round vote under tip.
func (s *Store) LoadRoundVotes(tip dposids.BlockHash, fn func(wiremsg.RoundVote)) error {
	return s.kv.Iterate(tipPrefix(prefixRoundVote, tip), func(_, value []byte) bool {
		var rv wiremsg.RoundVote
		if decode(value, &rv) == nil {
			fn(rv)
		}
		return true
	})
}

// LoadTxVotes calls fn for every persisted tx vote under tip.
func (s *Store) LoadTxVotes(tip dposids.BlockHash, fn func(wiremsg.TxVote)) error {
	return s.kv.Iterate(tipPrefix(prefixTxVote, tip), func(_, value []byte) bool {
		var tv wiremsg.TxVote
		if decode(value, &tv) == nil {
			fn(tv)
		}
		return true
	})
}

// LoadAllViceBlocks calls fn for every persisted vice-block across every
// tip, for full startup reconstruction of the Voter's in-memory state
// (spec.md §4.3's durability contract: "on crash the Voter must be
// reconstructible from the store").
func (s *Store) LoadAllViceBlocks(fn func(wiremsg.ViceBlock)) error {
	return s.kv.Iterate([]byte{prefixViceBlock}, func(_, value []byte) bool {
		var b wiremsg.ViceBlock
		if decode(value, &b) == nil {
			fn(b)
		}
		return true
	})
}

// LoadAllRoundVotes calls fn for every persisted round vote across every
// tip.
func (s *Store) LoadAllRoundVotes(fn func(wiremsg.RoundVote)) error {
	return s.kv.Iterate([]byte{prefixRoundVote}, func(_, value []byte) bool {
		var rv wiremsg.RoundVote
		if decode(value, &rv) == nil {
			fn(rv)
		}
		return true
	})
}

// LoadAllTxVotes calls fn for every persisted tx vote across every tip.
func (s *Store) LoadAllTxVotes(fn func(wiremsg.TxVote)) error {
	return s.kv.Iterate([]byte{prefixTxVote}, func(_, value []byte) bool {
		var tv wiremsg.TxVote
		if decode(value, &tv) == nil {
			fn(tv)
		}
		return true
	})
}

func tipPrefix(prefix byte, tip dposids.BlockHash) []byte {
	k := make([]byte, 1+len(tip))
	k[0] = prefix
	copy(k[1:], tip[:])
	return k
}

// EraseByTip deletes every entry across all three tables for tip, used
// when pruning a tip that has fallen outside the retention window.
func (s *Store) EraseByTip(tip dposids.BlockHash) error {
	batch := s.kv.NewBatch()
	for _, prefix := range []byte{prefixViceBlock, prefixRoundVote, prefixTxVote} {
		if err := s.kv.Iterate(tipPrefix(prefix, tip), func(key, _ []byte) bool {
			_ = batch.Delete(key)
			return true
		}); err != nil {
			return err
		}
	}
	if batch.Size() == 0 {
		return nil
	}
	return batch.Write()
}

// Close closes the underlying KV.
func (s *Store) Close() error {
	return s.kv.Close()
}
