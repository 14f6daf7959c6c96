// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package voter

import (
	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/validator"
)

// HasTip reports whether the Voter still retains state for tip (i.e. it
// has not been pruned outside the retention window).
func (v *Voter) HasTip(tip dposids.BlockHash) bool {
	_, ok := v.tips[tip]
	return ok
}

// GetCurrentVotingRound returns the current tip's round number.
func (v *Voter) GetCurrentVotingRound() dposids.Round {
	return v.GetVotingRoundFor(v.currentTip)
}

// GetVotingRoundFor returns tip's round number, for an arbitrary
// (possibly non-current) retained tip. Used by the controller to know
// which round a blockToSubmit output was finalized in.
func (v *Voter) GetVotingRoundFor(tip dposids.BlockHash) dposids.Round {
	ts, ok := v.tips[tip]
	if !ok {
		return 0
	}
	return ts.currentRound
}

// FindViceBlock looks up a vice-block by hash across every retained tip.
func (v *Voter) FindViceBlock(hash dposids.BlockHash) (validator.Block, bool) {
	for _, ts := range v.tips {
		if b, ok := ts.viceBlocks[hash]; ok {
			return b, true
		}
	}
	return validator.Block{}, false
}

// FindRoundVote looks up a round vote by (tip, round, voter).
func (v *Voter) FindRoundVote(tip dposids.BlockHash, round dposids.Round, voter dposids.MasternodeId) (RoundVote, bool) {
	ts, ok := v.tips[tip]
	if !ok {
		return RoundVote{}, false
	}
	rv, ok := ts.roundVotesFor(round)[voter]
	return rv, ok
}

// FindTxVote looks up a tx vote by (tip, round, txid, voter).
func (v *Voter) FindTxVote(tip dposids.BlockHash, round dposids.Round, txID dposids.TxId, voter dposids.MasternodeId) (TxVote, bool) {
	ts, ok := v.tips[tip]
	if !ok {
		return TxVote{}, false
	}
	tv, ok := ts.txVotesFor(round, txID)[voter]
	return tv, ok
}

// ListViceBlocks returns every vice-block known for tip.
func (v *Voter) ListViceBlocks(tip dposids.BlockHash) []validator.Block {
	ts, ok := v.tips[tip]
	if !ok {
		return nil
	}
	out := make([]validator.Block, 0, len(ts.viceBlocks))
	for _, b := range ts.viceBlocks {
		out = append(out, b)
	}
	return out
}

// ListRoundVotes returns every round vote cast for tip in round.
func (v *Voter) ListRoundVotes(tip dposids.BlockHash, round dposids.Round) []RoundVote {
	ts, ok := v.tips[tip]
	if !ok {
		return nil
	}
	votes := ts.roundVotesFor(round)
	out := make([]RoundVote, 0, len(votes))
	for _, rv := range votes {
		out = append(out, rv)
	}
	return out
}

// ListTxVotes returns every tx vote cast for (tip, round, txid).
func (v *Voter) ListTxVotes(tip dposids.BlockHash, round dposids.Round, txID dposids.TxId) []TxVote {
	ts, ok := v.tips[tip]
	if !ok {
		return nil
	}
	votes := ts.txVotesFor(round, txID)
	out := make([]TxVote, 0, len(votes))
	for _, tv := range votes {
		out = append(out, tv)
	}
	return out
}

// ListCommittedTxs returns every tx committed under tip.
func (v *Voter) ListCommittedTxs(tip dposids.BlockHash) []dposids.TxId {
	ts, ok := v.tips[tip]
	if !ok {
		return nil
	}
	return ts.committedTxs.List()
}

// IsCommittedTx reports whether txID is committed under tip.
func (v *Voter) IsCommittedTx(tip dposids.BlockHash, txID dposids.TxId) bool {
	ts, ok := v.tips[tip]
	if !ok {
		return false
	}
	return ts.committedTxs.Contains(txID)
}

// IsTxApprovedByMe reports whether the local voter has cast a YES tx
// vote for txID in tip's current round.
func (v *Voter) IsTxApprovedByMe(tip dposids.BlockHash, txID dposids.TxId) bool {
	ts, ok := v.tips[tip]
	if !ok || !v.amIVoter {
		return false
	}
	tv, ok := ts.txVotesFor(ts.currentRound, txID)[v.me]
	return ok && tv.Choice.Decision == YES
}

// CalcTxVotingStats returns the YES/NO/PASS tally for txID in tip's
// current round (original_source semantics: current round only, not a
// sum across rounds — SPEC_FULL.md §3).
func (v *Voter) CalcTxVotingStats(tip dposids.BlockHash, txID dposids.TxId) TxVotingStats {
	ts, ok := v.tips[tip]
	if !ok {
		return TxVotingStats{}
	}
	votes := ts.txVotesFor(ts.currentRound, txID)
	var stats TxVotingStats
	for _, tv := range votes {
		switch tv.Choice.Decision {
		case YES:
			stats.Yes++
		case NO:
			stats.No++
		case PASS:
			stats.Pass++
		}
	}
	return stats
}

// IntersectedTxs returns every TxId referenced by more than one live
// vice-block under tip — contested transactions, supplemented from
// original_source's listIntersectedTxs (SPEC_FULL.md §3).
func (v *Voter) IntersectedTxs(tip dposids.BlockHash) []dposids.TxId {
	ts, ok := v.tips[tip]
	if !ok {
		return nil
	}
	refCount := make(map[dposids.TxId]int)
	for _, block := range ts.viceBlocks {
		seen := make(map[dposids.TxId]bool, len(block.Txs))
		for _, id := range block.Txs {
			if seen[id] {
				continue
			}
			seen[id] = true
			refCount[id]++
		}
	}
	var out []dposids.TxId
	for id, count := range refCount {
		if count > 1 {
			out = append(out, id)
		}
	}
	return out
}

// Prune discards per-tip state for any tip not in keep. Pruning
// candidates are collected first, then deleted — fixing the
// iterator-invalidation bug in the original's removeOldVotes
// (SPEC_FULL.md §9, spec.md §9(b)).
func (v *Voter) Prune(keep func(tip dposids.BlockHash) bool) {
	var drop []dposids.BlockHash
	for tip := range v.tips {
		if !keep(tip) {
			drop = append(drop, tip)
		}
	}
	for _, tip := range drop {
		delete(v.tips, tip)
	}
}
