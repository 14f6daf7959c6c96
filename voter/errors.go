// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package voter

import "errors"

// ErrInvariantViolation is reported via Output.Errors when an input would
// violate invariant 1 or 2 (at most one round/tx vote per voter per
// round[, txid]). The first vote wins; this marks the conflicting second
// one as a Byzantine equivocation (spec.md §4.2, §7).
var ErrInvariantViolation = errors.New("voter: invariant violation (equivocation)")

// ErrUnknownSubject names a round vote whose YES subject does not
// correspond to any vice-block known for that tip. ApplyRoundVote does not
// report it: such a vote is recorded and tallied like any other.
var ErrUnknownSubject = errors.New("voter: round vote subject is not a known vice-block")

// ErrTxVoteLimitExceeded is reported by ApplyTx when the local voter has
// already cast config.Params.MaxTxVotesFromVoter tx votes in the current
// round. Tx votes from other masternodes are counted but not limited.
var ErrTxVoteLimitExceeded = errors.New("voter: tx vote limit exceeded for this round")

// The following sentinels name the remaining rows of spec.md §7's error
// taxonomy. None of them are ever returned from a Voter method — the
// Voter never throws — but the Controller's ingress and dispatch paths
// wrap them via zap.Error when logging a silent drop, so the taxonomy is
// still inspectable with errors.Is against a captured log record.
var (
	// ErrMalformedWire marks a wire message dropped for a bad signature
	// or an unrecoverable signer.
	ErrMalformedWire = errors.New("voter: malformed wire message")

	// ErrNotCommitteeMember marks a validly-signed vote dropped because
	// its signer was not a committee member at the vote's tip.
	ErrNotCommitteeMember = errors.New("voter: signer is not a committee member at tip")

	// ErrStaleTip marks a vote dropped because its tip is not one the
	// Voter currently retains state for.
	ErrStaleTip = errors.New("voter: tip is not retained")

	// ErrQuorumShort marks a blockToSubmit discarded because fewer than
	// MinQuorum signatures had been harvested for it. The Voter marks the
	// tip finalized when it emits a blockToSubmit and does not emit it
	// again.
	ErrQuorumShort = errors.New("voter: fewer than minQuorum signatures harvested")
)
