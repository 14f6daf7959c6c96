// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package voter

import (
	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/validator"
)

// Voter is the core finality state machine. It is never entered
// concurrently: the Controller serializes all calls behind a single core
// lock (spec.md §5); Voter itself holds no lock.
type Voter struct {
	amIVoter bool
	me       dposids.MasternodeId

	currentTip dposids.BlockHash
	tips       map[dposids.BlockHash]*tipState

	minQuorum   int
	numOfVoters int

	maxTxVotesFromVoter  int
	maxNotVotedTxsToKeep int

	val validator.Validator
}

// New returns a Voter with no current tip; call UpdateTip before
// submitting vice-blocks or votes. maxNotVotedTxsToKeep bounds, per tip,
// how many not-yet-committed known txs ApplyTx retains before forgetting
// the oldest (config.Params.MaxNotVotedTxsToKeep); zero or negative
// disables the bound.
func New(minQuorum, numOfVoters, maxTxVotesFromVoter, maxNotVotedTxsToKeep int, val validator.Validator) *Voter {
	return &Voter{
		tips:                 make(map[dposids.BlockHash]*tipState),
		minQuorum:            minQuorum,
		numOfVoters:          numOfVoters,
		maxTxVotesFromVoter:  maxTxVotesFromVoter,
		maxNotVotedTxsToKeep: maxNotVotedTxsToKeep,
		val:                  val,
	}
}

func (v *Voter) getOrCreateTip(tip dposids.BlockHash) *tipState {
	ts, ok := v.tips[tip]
	if !ok {
		ts = newTipState()
		v.tips[tip] = ts
	}
	return ts
}

// SetVoting enables or disables local vote emission. When on, me is the
// local operator identity the voter signs round/tx votes as.
func (v *Voter) SetVoting(on bool, me dposids.MasternodeId) Output {
	v.amIVoter = on
	v.me = me
	return Output{}
}

// UpdateTip sets the current tip. Historical per-tip state is retained
// (pruning is the Controller's responsibility, not the Voter's) so that a
// reorg back to a previously-seen tip resumes progress rather than
// restarting (spec.md §4.2 "Transitions on tip change").
func (v *Voter) UpdateTip(newTip dposids.BlockHash) Output {
	v.currentTip = newTip
	ts := v.getOrCreateTip(newTip)

	var out Output
	if v.amIVoter && len(ts.roundVotesFor(ts.currentRound)) == 0 {
		if rv, ok := v.localViewVote(newTip, ts, ts.currentRound); ok {
			out.RoundVotes = append(out.RoundVotes, rv)
		}
	}
	return out
}

// ApplyViceBlock indexes b under its claimed prevBlock tip. If the local
// voter has not yet cast a round vote for that tip's current round and b
// now qualifies for YES, it emits one.
func (v *Voter) ApplyViceBlock(b validator.Block) Output {
	ts := v.getOrCreateTip(b.PrevBlock)
	if _, exists := ts.viceBlocks[b.Hash]; exists {
		return Output{}
	}
	if ok, _ := v.val.ValidateBlock(b, ts.knownTxsMap(), false); !ok {
		return Output{}
	}
	ts.viceBlocks[b.Hash] = b

	var out Output
	if v.amIVoter && !ts.finalized {
		if _, voted := ts.roundVotesFor(ts.currentRound)[v.me]; !voted {
			if ts.qualifiesForYes(b) {
				rv := RoundVote{Tip: b.PrevBlock, Voter: v.me, Round: ts.currentRound, Choice: VoteChoice{Decision: YES, Subject: b.Hash}}
				applied := v.applyRoundVoteLocked(ts, rv)
				out.RoundVotes = append(out.RoundVotes, rv)
				out.Errors = append(out.Errors, applied.Errors...)
				if applied.BlockToSubmit != nil {
					out.BlockToSubmit = applied.BlockToSubmit
				}
				out.RoundVotes = append(out.RoundVotes, applied.RoundVotes...)
			}
		}
	}
	return out
}

// ApplyTx records that t is known locally, for the current tip. If t
// validates and is referenced by a pending vice-block, and the voter has
// not exceeded its per-round tx-vote budget, it emits a YES tx-vote for
// it in the current round.
func (v *Voter) ApplyTx(t validator.Tx) Output {
	ts := v.getOrCreateTip(v.currentTip)
	ok, _ := v.val.ValidateTx(t)
	if !ok {
		return Output{}
	}
	if ts.knownTxs.Contains(t.ID) {
		return Output{}
	}
	ts.knownTxs.Add(t.ID)
	ts.notVotedQueue = append(ts.notVotedQueue, t.ID)
	if v.maxNotVotedTxsToKeep > 0 {
		ts.enforceNotVotedBound(v.maxNotVotedTxsToKeep)
	}

	var out Output
	if !v.amIVoter || ts.finalized {
		return out
	}
	if !ts.referencedByAnyBlock(t.ID) {
		return out
	}
	if _, voted := ts.txVotesFor(ts.currentRound, t.ID)[v.me]; voted {
		return out
	}
	if ts.txVotesCastByVoter[ts.currentRound][v.me] >= v.maxTxVotesFromVoter {
		out.Errors = append(out.Errors, ErrTxVoteLimitExceeded)
		return out
	}
	tv := TxVote{Tip: v.currentTip, Voter: v.me, Round: ts.currentRound, Choice: VoteChoice{Decision: YES, Subject: t.ID}}
	applied := v.applyTxVoteLocked(ts, tv)
	out.TxVotes = append(out.TxVotes, tv)
	out.Errors = append(out.Errors, applied.Errors...)
	return out
}

// ApplyRoundVote deduplicates rv against invariant 1. On a new vote it
// checks for quorum (blockToSubmit) or round exhaustion (advance round).
func (v *Voter) ApplyRoundVote(rv RoundVote) Output {
	ts := v.getOrCreateTip(rv.Tip)
	return v.applyRoundVoteLocked(ts, rv)
}

func (v *Voter) applyRoundVoteLocked(ts *tipState, rv RoundVote) Output {
	existing := ts.roundVotesFor(rv.Round)
	if prior, ok := existing[rv.Voter]; ok {
		if prior.Choice == rv.Choice {
			return Output{} // idempotent replay, not an error
		}
		return Output{Errors: []error{ErrInvariantViolation}}
	}
	existing[rv.Voter] = rv

	var out Output
	if rv.Choice.Decision == YES {
		tally := ts.roundYesTallyFor(rv.Round)
		tally.Add(rv.Choice.Subject)
		if !ts.finalized && tally.Count(rv.Choice.Subject) >= v.minQuorum {
			if block, ok := ts.viceBlocks[rv.Choice.Subject]; ok {
				blockCopy := block
				out.BlockToSubmit = &blockCopy
				ts.finalized = true
				return out
			}
		}
	}

	if !ts.finalized && rv.Round == ts.currentRound && v.roundExhausted(ts, rv.Round) {
		if newVote, ok := v.advanceRound(rv.Tip, ts); ok {
			out.RoundVotes = append(out.RoundVotes, newVote)
		}
	}
	return out
}

// roundExhausted reports whether every committee member has cast a
// non-YES vote in round (spec.md §4.2 "A round is exhausted when...").
func (v *Voter) roundExhausted(ts *tipState, round dposids.Round) bool {
	votes := ts.roundVotesFor(round)
	if len(votes) < v.numOfVoters {
		return false
	}
	for _, rv := range votes {
		if rv.Choice.Decision == YES {
			return false
		}
	}
	return true
}

// advanceRound moves ts to the next round and, if the local voter votes,
// computes and applies its fresh round vote per the local-view algorithm.
func (v *Voter) advanceRound(tip dposids.BlockHash, ts *tipState) (RoundVote, bool) {
	ts.currentRound++
	if !v.amIVoter {
		return RoundVote{}, false
	}
	return v.localViewVote(tip, ts, ts.currentRound)
}

// localViewVote computes and applies the voter's own round vote for
// round according to spec.md §4.2's local-view algorithm: YES for the
// lexicographically-first qualifying candidate, NO if every known
// vice-block conflicts with committed txs, otherwise PASS.
func (v *Voter) localViewVote(tip dposids.BlockHash, ts *tipState, round dposids.Round) (RoundVote, bool) {
	if _, voted := ts.roundVotesFor(round)[v.me]; voted {
		return RoundVote{}, false
	}

	choice := VoteChoice{Decision: PASS, Subject: dposids.Empty}
	if candidates := ts.sortedCandidateHashes(); len(candidates) > 0 {
		choice = VoteChoice{Decision: YES, Subject: candidates[0]}
	} else if ts.conflictsWithEveryBlock() {
		choice = VoteChoice{Decision: NO, Subject: dposids.Empty}
	}

	rv := RoundVote{Tip: tip, Voter: v.me, Round: round, Choice: choice}
	ts.roundVotesFor(round)[v.me] = rv
	if choice.Decision == YES {
		ts.roundYesTallyFor(round).Add(choice.Subject)
	}
	return rv, true
}

// ApplyTxVote deduplicates tv against invariant 2. On a new vote it
// checks for tx-commit quorum.
func (v *Voter) ApplyTxVote(tv TxVote) Output {
	ts := v.getOrCreateTip(tv.Tip)
	return v.applyTxVoteLocked(ts, tv)
}

func (v *Voter) applyTxVoteLocked(ts *tipState, tv TxVote) Output {
	existing := ts.txVotesFor(tv.Round, tv.Choice.Subject)
	if prior, ok := existing[tv.Voter]; ok {
		if prior.Choice == tv.Choice {
			return Output{}
		}
		return Output{Errors: []error{ErrInvariantViolation}}
	}
	existing[tv.Voter] = tv
	if ts.txVotesCastByVoter[tv.Round] == nil {
		ts.txVotesCastByVoter[tv.Round] = make(map[dposids.MasternodeId]int)
	}
	ts.txVotesCastByVoter[tv.Round][tv.Voter]++

	if tv.Choice.Decision != YES {
		return Output{}
	}
	tally := ts.txTallyFor(tv.Round, tv.Choice.Subject)
	tally.Add(YES)
	if !ts.committedTxs.Contains(tv.Choice.Subject) && tally.Count(YES) >= v.minQuorum {
		ts.committedTxs.Add(tv.Choice.Subject)
		ts.markVotedOrCommitted(tv.Choice.Subject)
	}
	return Output{}
}

// OnRoundTooLong is the stalemate handler (spec.md §4.2, §4.4). It emits
// the voter's own PASS round vote for the current round if it hasn't
// voted yet, then forces the round to advance regardless of exhaustion,
// emitting a fresh round vote per the local-view algorithm.
func (v *Voter) OnRoundTooLong() Output {
	ts := v.getOrCreateTip(v.currentTip)
	if !v.amIVoter || ts.finalized {
		return Output{}
	}

	var out Output
	round := ts.currentRound
	if _, voted := ts.roundVotesFor(round)[v.me]; !voted {
		rv := RoundVote{Tip: v.currentTip, Voter: v.me, Round: round, Choice: VoteChoice{Decision: PASS, Subject: dposids.Empty}}
		ts.roundVotesFor(round)[v.me] = rv
		out.RoundVotes = append(out.RoundVotes, rv)
	}

	ts.currentRound++
	if rv, ok := v.localViewVote(v.currentTip, ts, ts.currentRound); ok {
		out.RoundVotes = append(out.RoundVotes, rv)
	}
	return out
}

// knownTxsMap adapts the tip's knownTxs set into the map shape
// validator.ValidateBlock expects as its knownTxs optimization hint.
func (ts *tipState) knownTxsMap() map[dposids.TxId]bool {
	m := make(map[dposids.TxId]bool, ts.knownTxs.Len())
	for _, id := range ts.knownTxs.List() {
		m[id] = true
	}
	return m
}

// referencedByAnyBlock reports whether txID appears in some vice-block's
// body for this tip.
func (ts *tipState) referencedByAnyBlock(txID dposids.TxId) bool {
	for _, block := range ts.viceBlocks {
		for _, id := range block.Txs {
			if id == txID {
				return true
			}
		}
	}
	return false
}
