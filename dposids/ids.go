// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dposids defines the fixed-width identifiers shared across the
// finality layer: block hashes, transaction ids, vote hashes, and
// masternode ids. All are 256-bit opaque byte strings, represented as
// aliases over github.com/luxfi/ids so they interoperate with the rest of
// the stack's hashing, encoding, and string formatting.
package dposids

import (
	"github.com/luxfi/ids"
)

// BlockHash identifies a block, vice or finalized, by its 256-bit hash.
type BlockHash = ids.ID

// TxId identifies a transaction by its 256-bit hash.
type TxId = ids.ID

// VoteHash identifies a signed p2p vote message by the hash of its
// canonical serialization, used for dedup/relay and as a store key.
type VoteHash = ids.ID

// MasternodeId identifies a committee member. It is recovered from a
// vote's signature and is tied 1:1 to an operator key.
type MasternodeId = ids.NodeID

// Round numbers a voting attempt for a tip. Round 0 means "no round yet";
// the first real round is 1.
type Round uint32

// Empty is the all-zero hash, used as the sentinel NO/PASS subject.
var Empty = ids.Empty
