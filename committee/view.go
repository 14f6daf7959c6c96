// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package committee declares the external collaborator the finality layer
// reads masternode membership from. The core never maintains the
// registry itself — it only asks "who is on the committee at height H"
// and "what is my operator identity."
package committee

import (
	"context"

	"github.com/luxfi/dpos/dposids"
)

// View answers committee-membership questions against the underlying
// masternode registry. Implementations are expected to be cheap and
// synchronous from the caller's perspective; the controller caches lookups
// per tip (see SPEC_FULL.md §4.4).
type View interface {
	// IsMember reports whether id was an active committee member at the
	// given height.
	IsMember(ctx context.Context, height uint64, id dposids.MasternodeId) (bool, error)

	// Size returns the committee size at the given height. dPoS is
	// enabled only when this equals the configured TeamSize.
	Size(ctx context.Context, height uint64) (int, error)

	// HeightOf resolves a tip hash to its chain height by walking the
	// chain index backward from the head. Returns false if the tip is
	// not known.
	HeightOf(ctx context.Context, tip dposids.BlockHash) (uint64, bool, error)

	// MyOperatorID returns the local node's own masternode identity, if
	// this node is configured to vote.
	MyOperatorID() (dposids.MasternodeId, bool)
}
