// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package controller drives the Voter from peer and chain input: a
// single-threaded ~500ms event loop plus ingress handlers that
// authenticate, forward to the Voter, sign/persist/relay its output, and
// submit finalized blocks (spec.md §4.4).
package controller

import (
	"context"

	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/validator"
	"github.com/luxfi/dpos/wiremsg"
)

// ChainTip is the out-of-scope chain collaborator the Controller reads
// tip/height/IBD status from (spec.md §1 Non-goals: chain storage and
// header validation live outside this module).
type ChainTip interface {
	// TipHash returns the chain's current head.
	TipHash(ctx context.Context) (dposids.BlockHash, error)
	// TipHeight returns the chain height of the given tip, walking the
	// chain index backward from the head if necessary.
	TipHeight(ctx context.Context, tip dposids.BlockHash) (uint64, error)
	// HeadHeight returns the current chain head's height, for the
	// 100-block retention window calculation.
	HeadHeight(ctx context.Context) (uint64, error)
	// IsInitialBlockDownload reports whether the chain is still
	// syncing; the Controller becomes ready delayIBD seconds after this
	// first reports false.
	IsInitialBlockDownload(ctx context.Context) (bool, error)
}

// BlockProcessor is the out-of-scope block-submission entry point. On a
// Voter blockToSubmit output with enough harvested signatures, the
// Controller hands the assembled block here.
type BlockProcessor interface {
	SubmitBlock(ctx context.Context, block validator.Block, signatures [][]byte) error
}

// Broadcaster is the out-of-scope p2p transport the Controller relays
// accepted inventory through (spec.md §1 Non-goals: transport framing is
// out of scope; this is the seam it plugs into).
type Broadcaster interface {
	BroadcastViceBlock(ctx context.Context, msg wiremsg.ViceBlock)
	BroadcastRoundVote(ctx context.Context, msg wiremsg.RoundVote)
	BroadcastTxVote(ctx context.Context, msg wiremsg.TxVote)
}
