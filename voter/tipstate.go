// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package voter

import (
	"sort"

	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/utils/bag"
	"github.com/luxfi/dpos/utils/set"
	"github.com/luxfi/dpos/validator"
)

// tipState is the per-tip state carrier (spec.md §3's TipState). Every
// value lives in exactly one tip's tipState; nothing is shared across
// tips.
type tipState struct {
	viceBlocks map[dposids.BlockHash]validator.Block

	roundVotes map[dposids.Round]map[dposids.MasternodeId]RoundVote
	// roundYesTally counts YES round-votes per subject, per round, so
	// quorum checks are O(1) amortized rather than a full rescan.
	roundYesTally map[dposids.Round]*bag.Bag[dposids.BlockHash]

	txVotes map[dposids.Round]map[dposids.TxId]map[dposids.MasternodeId]TxVote
	// txTally counts decisions per (round, txid).
	txTally map[dposids.Round]map[dposids.TxId]*bag.Bag[Decision]
	// txVotesCastByVoter counts, per round, how many tx votes a voter
	// has cast — enforces MaxTxVotesFromVoter.
	txVotesCastByVoter map[dposids.Round]map[dposids.MasternodeId]int

	committedTxs set.Set[dposids.TxId]
	// knownTxs are transactions ApplyTx has validated locally; they are
	// candidates for a local YES tx-vote and for the local-view
	// round-vote algorithm's "willing to YES-vote" check.
	knownTxs set.Set[dposids.TxId]
	// notVotedQueue is the FIFO admission order of knownTxs entries that
	// have not yet been committed, bounded by config.MaxNotVotedTxsToKeep
	// (enforceNotVotedBound). A committed tx is dropped from the queue —
	// only the still-pending backlog counts against the bound.
	notVotedQueue []dposids.TxId

	currentRound dposids.Round
	// finalized is set once a blockToSubmit has been emitted for this
	// tip; no further round votes are emitted afterward.
	finalized bool
}

func newTipState() *tipState {
	return &tipState{
		viceBlocks:         make(map[dposids.BlockHash]validator.Block),
		roundVotes:         make(map[dposids.Round]map[dposids.MasternodeId]RoundVote),
		roundYesTally:      make(map[dposids.Round]*bag.Bag[dposids.BlockHash]),
		txVotes:            make(map[dposids.Round]map[dposids.TxId]map[dposids.MasternodeId]TxVote),
		txTally:            make(map[dposids.Round]map[dposids.TxId]*bag.Bag[Decision]),
		txVotesCastByVoter: make(map[dposids.Round]map[dposids.MasternodeId]int),
		committedTxs:       set.NewSet[dposids.TxId](0),
		knownTxs:           set.NewSet[dposids.TxId](0),
		currentRound:       1,
	}
}

// sortedCandidateHashes returns the vice-block hashes for which every tx
// is known-and-validated and every committed tx is included, sorted by
// their string form so the choice among them never depends on arrival
// order — only on the set of vice-blocks and known txs seen so far.
func (ts *tipState) sortedCandidateHashes() []dposids.BlockHash {
	var candidates []dposids.BlockHash
	for hash, block := range ts.viceBlocks {
		if ts.qualifiesForYes(block) {
			candidates = append(candidates, hash)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].String() < candidates[j].String()
	})
	return candidates
}

// qualifiesForYes reports whether the local voter is willing to YES-vote
// block: every tx in its body is known and locally validated, and every
// already-committed tx for this tip is included in the block's body
// (invariant 3 / "no conflicting commitments", spec.md §4.2).
func (ts *tipState) qualifiesForYes(block validator.Block) bool {
	inBlock := set.NewSet[dposids.TxId](len(block.Txs))
	inBlock.Add(block.Txs...)
	for _, committed := range ts.committedTxs.List() {
		if !inBlock.Contains(committed) {
			return false
		}
	}
	for _, txID := range block.Txs {
		if !ts.knownTxs.Contains(txID) {
			return false
		}
	}
	return true
}

// conflictsWithEveryBlock reports whether every known vice-block omits
// at least one already-committed tx, meaning the voter has no candidate
// consistent with its commitments and must emit NO.
func (ts *tipState) conflictsWithEveryBlock() bool {
	if ts.committedTxs.Len() == 0 {
		return false
	}
	if len(ts.viceBlocks) == 0 {
		return false
	}
	for _, block := range ts.viceBlocks {
		inBlock := set.NewSet[dposids.TxId](len(block.Txs))
		inBlock.Add(block.Txs...)
		conflicts := false
		for _, committed := range ts.committedTxs.List() {
			if !inBlock.Contains(committed) {
				conflicts = true
				break
			}
		}
		if !conflicts {
			return false
		}
	}
	return true
}

// enforceNotVotedBound evicts the oldest pending (not-yet-committed) known
// txs, forgetting them entirely, until the backlog is within max
// (config.Params.MaxNotVotedTxsToKeep, spec.md §3's per-voter fairness
// bound). A forgotten tx re-enters knownTxs if seen again via ApplyTx.
func (ts *tipState) enforceNotVotedBound(max int) {
	for len(ts.notVotedQueue) > max {
		oldest := ts.notVotedQueue[0]
		ts.notVotedQueue = ts.notVotedQueue[1:]
		ts.knownTxs.Remove(oldest)
	}
}

// markVotedOrCommitted removes txID from the not-yet-voted backlog once it
// has been committed, so committed txs never count against the bound.
func (ts *tipState) markVotedOrCommitted(txID dposids.TxId) {
	for i, id := range ts.notVotedQueue {
		if id == txID {
			ts.notVotedQueue = append(ts.notVotedQueue[:i], ts.notVotedQueue[i+1:]...)
			return
		}
	}
}

func (ts *tipState) roundYesTallyFor(round dposids.Round) *bag.Bag[dposids.BlockHash] {
	b, ok := ts.roundYesTally[round]
	if !ok {
		nb := bag.New[dposids.BlockHash]()
		b = &nb
		ts.roundYesTally[round] = b
	}
	return b
}

func (ts *tipState) txTallyFor(round dposids.Round, txID dposids.TxId) *bag.Bag[Decision] {
	byTx, ok := ts.txTally[round]
	if !ok {
		byTx = make(map[dposids.TxId]*bag.Bag[Decision])
		ts.txTally[round] = byTx
	}
	b, ok := byTx[txID]
	if !ok {
		nb := bag.New[Decision]()
		b = &nb
		byTx[txID] = b
	}
	return b
}

func (ts *tipState) roundVotesFor(round dposids.Round) map[dposids.MasternodeId]RoundVote {
	m, ok := ts.roundVotes[round]
	if !ok {
		m = make(map[dposids.MasternodeId]RoundVote)
		ts.roundVotes[round] = m
	}
	return m
}

func (ts *tipState) txVotesFor(round dposids.Round, txID dposids.TxId) map[dposids.MasternodeId]TxVote {
	byTx, ok := ts.txVotes[round]
	if !ok {
		byTx = make(map[dposids.TxId]map[dposids.MasternodeId]TxVote)
		ts.txVotes[round] = byTx
	}
	m, ok := byTx[txID]
	if !ok {
		m = make(map[dposids.MasternodeId]TxVote)
		byTx[txID] = m
	}
	return m
}
