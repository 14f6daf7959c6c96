// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package voter implements the pure state machine at the center of the
// finality layer: it ingests tips, vice-blocks, transactions, and votes,
// and emits votes and, at quorum, a block to submit. It performs no I/O;
// all chain-state access happens through a validator.Validator injected
// at construction (SPEC_FULL.md §4.2).
package voter

import (
	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/validator"
)

// Decision is a closed YES/NO/PASS enum, represented as a sum type rather
// than a bare integer (SPEC_FULL.md §9).
type Decision uint8

const (
	NO Decision = iota
	PASS
	YES
)

func (d Decision) String() string {
	switch d {
	case YES:
		return "YES"
	case NO:
		return "NO"
	case PASS:
		return "PASS"
	default:
		return "UNKNOWN"
	}
}

// VoteChoice pairs a decision with its subject: a vice-block hash for a
// round vote, or a TxId for a tx vote. NO/PASS round votes carry the
// zero-hash sentinel subject.
type VoteChoice struct {
	Decision Decision
	Subject  dposids.BlockHash
}

// RoundVote is a single committee member's round vote.
type RoundVote struct {
	Tip    dposids.BlockHash
	Voter  dposids.MasternodeId
	Round  dposids.Round
	Choice VoteChoice
}

// TxVote is a single committee member's vote on a transaction.
type TxVote struct {
	Tip    dposids.BlockHash
	Voter  dposids.MasternodeId
	Round  dposids.Round
	Choice VoteChoice // Subject is the TxId
}

// TxVotingStats is the per-round tally for a single transaction, as
// returned by CalcTxVotingStats.
type TxVotingStats struct {
	Yes  int
	No   int
	Pass int
}

// Output is returned by every public Voter operation. Errors is non-empty
// when the input violated an invariant (ErrInvariantViolation) or, from
// ApplyTx, when the local voter's per-round tx-vote limit was reached
// (ErrTxVoteLimitExceeded). The Voter never mutates state on an invariant
// violation, and the caller must treat that whole output as rejected.
type Output struct {
	RoundVotes    []RoundVote
	TxVotes       []TxVote
	BlockToSubmit *validator.Block
	Errors        []error
}

func (o Output) Empty() bool {
	return len(o.RoundVotes) == 0 && len(o.TxVotes) == 0 && o.BlockToSubmit == nil && len(o.Errors) == 0
}
