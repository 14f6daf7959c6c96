// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validator

import (
	"github.com/luxfi/dpos/dposids"
)

// ChainReader is the slice of a real node's chain/UTXO subsystem that a
// production Validator would call into. It is intentionally tiny: actual
// header, script, and UTXO validation is out of scope for this module
// (spec.md §1 Non-goals) and lives in the node repository.
type ChainReader interface {
	HasTx(id dposids.TxId) bool
	TipDepth(tip dposids.BlockHash) (depth uint64, known bool)
}

// Chain adapts a ChainReader into a Validator. It demonstrates the wiring
// shape a real node would use; the validity checks themselves are left as
// a documented boundary rather than implemented here.
type Chain struct {
	Reader ChainReader

	// ArchiveDepth is how many blocks behind the head a tip must be
	// before AllowArchiving reports true.
	ArchiveDepth uint64
}

func (c *Chain) ValidateTx(tx Tx) (bool, error) {
	// TODO(node integration): delegate to the UTXO/script engine once
	// this layer is wired into a real chain; until then every tx the
	// chain reader has already accepted is considered valid here.
	return c.Reader.HasTx(tx.ID), nil
}

func (c *Chain) ValidateBlock(block Block, knownTxs map[dposids.TxId]bool, checkTxs bool) (bool, error) {
	if !checkTxs {
		return true, nil
	}
	for _, txID := range block.Txs {
		if knownTxs[txID] {
			continue
		}
		if ok, err := c.ValidateTx(Tx{ID: txID}); !ok {
			return false, err
		}
	}
	return true, nil
}

func (c *Chain) AllowArchiving(tip dposids.BlockHash) bool {
	depth, known := c.Reader.TipDepth(tip)
	return known && depth > c.ArchiveDepth
}
