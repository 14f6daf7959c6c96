// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validator exposes the narrow adapter through which the Voter
// reaches the underlying chain: transaction and block validity, and
// archiving eligibility. The Voter stays purely computational; all I/O and
// chain-state access happens through this interface (SPEC_FULL.md §4.1).
package validator

import (
	"github.com/luxfi/dpos/dposids"
)

// Tx is the minimal shape the Voter needs of a transaction: its id, for
// indexing and vote subjects.
type Tx struct {
	ID dposids.TxId
}

// Block is the minimal shape the Voter needs of a candidate vice-block.
type Block struct {
	Hash      dposids.BlockHash
	PrevBlock dposids.BlockHash
	Txs       []dposids.TxId
}

// Validator validates transactions and candidate blocks against current
// chain state, and advises on dPoS state eviction. Injected into the
// Voter at construction; the Voter is parametric over this capability.
type Validator interface {
	// ValidateTx reports whether tx parses, its inputs exist, and its
	// scripts succeed against the pre-tip UTXO state.
	ValidateTx(tx Tx) (ok bool, reject error)

	// ValidateBlock reports whether block's header, prevBlock,
	// timestamp, and commitment to its tx set are well-formed. If
	// checkTxs is true, every tx in the block is also checked against
	// ValidateTx; knownTxs lets the caller skip re-checking
	// already-validated transactions.
	ValidateBlock(block Block, knownTxs map[dposids.TxId]bool, checkTxs bool) (ok bool, reject error)

	// AllowArchiving reports whether tip is deep enough that its dPoS
	// state may be evicted.
	AllowArchiving(tip dposids.BlockHash) bool
}
