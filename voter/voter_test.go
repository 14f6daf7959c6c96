// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package voter

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/validator"
	"github.com/luxfi/dpos/validator/validatortest"
)

// newCommittee returns a fixed committee of 3 and builds a *Voter for the
// local operator at index 0, matching the committee-of-3/minQuorum=2
// scenarios in spec.md §8.
func newCommittee(t *testing.T) (me, v2, v3 dposids.MasternodeId, v *Voter) {
	t.Helper()
	me = ids.GenerateTestNodeID()
	v2 = ids.GenerateTestNodeID()
	v3 = ids.GenerateTestNodeID()
	voter := New(2, 3, 100, 1000, validatortest.NewStub())
	voter.SetVoting(true, me)
	return me, v2, v3, voter
}

// TestHappyPath covers S1: a vice-block's single tx gets YES tx-votes
// from two of the three voters (quorum), then enough YES round-votes for
// quorum, and the tx ends up committed.
func TestHappyPath(t *testing.T) {
	me, v2, v3 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	stub := validatortest.NewStub()
	v := New(2, 3, 100, 1000, stub)
	v.SetVoting(true, me)

	tip := ids.GenerateTestID()
	txA := ids.GenerateTestID()
	b1 := ids.GenerateTestID()

	out := v.UpdateTip(tip)
	require.Empty(t, out.RoundVotes)

	out = v.ApplyViceBlock(validator.Block{Hash: b1, PrevBlock: tip, Txs: []dposids.TxId{txA}})
	require.Empty(t, out.RoundVotes) // tx not yet known, not willing to YES yet

	out = v.ApplyTx(validator.Tx{ID: txA})
	require.Len(t, out.TxVotes, 1)
	require.Equal(t, YES, out.TxVotes[0].Choice.Decision)

	// A second committee member YES-votes the tx; quorum committed.
	out = v.ApplyTxVote(TxVote{Tip: tip, Voter: v2, Round: 1, Choice: VoteChoice{Decision: YES, Subject: txA}})
	require.Empty(t, out.Errors)
	require.True(t, v.IsCommittedTx(tip, txA))

	// ApplyTx does not cast round votes, so the round votes are driven
	// directly via ApplyRoundVote: the local voter's YES, then v2's.
	rv1 := RoundVote{Tip: tip, Voter: me, Round: 1, Choice: VoteChoice{Decision: YES, Subject: b1}}
	out = v.ApplyRoundVote(rv1)
	require.Empty(t, out.Errors)

	out = v.ApplyRoundVote(RoundVote{Tip: tip, Voter: v2, Round: 1, Choice: VoteChoice{Decision: YES, Subject: b1}})
	require.Empty(t, out.Errors)
	require.NotNil(t, out.BlockToSubmit)
	require.Equal(t, b1, out.BlockToSubmit.Hash)

	require.True(t, v.IsCommittedTx(tip, txA))
	require.Equal(t, []dposids.TxId{txA}, v.ListCommittedTxs(tip))
	_ = v3
}

// TestEquivocationRejected covers S3: a second, conflicting round vote
// from the same voter in the same round is rejected and not applied.
func TestEquivocationRejected(t *testing.T) {
	me, v2, _, v := newCommittee(t)
	tip := ids.GenerateTestID()
	b1 := ids.GenerateTestID()
	b2 := ids.GenerateTestID()
	v.UpdateTip(tip)
	v.ApplyViceBlock(validator.Block{Hash: b1, PrevBlock: tip})
	v.ApplyViceBlock(validator.Block{Hash: b2, PrevBlock: tip})

	out := v.ApplyRoundVote(RoundVote{Tip: tip, Voter: v2, Round: 1, Choice: VoteChoice{Decision: YES, Subject: b1}})
	require.Empty(t, out.Errors)

	out = v.ApplyRoundVote(RoundVote{Tip: tip, Voter: v2, Round: 1, Choice: VoteChoice{Decision: YES, Subject: b2}})
	require.Len(t, out.Errors, 1)
	require.ErrorIs(t, out.Errors[0], ErrInvariantViolation)

	stored, ok := v.FindRoundVote(tip, 1, v2)
	require.True(t, ok)
	require.Equal(t, b1, stored.Choice.Subject)
	_ = me
}

// TestIdempotentReplay covers the idempotence round-trip law: feeding the
// same p2p vote twice yields "no change" the second time, never an error.
func TestIdempotentReplay(t *testing.T) {
	_, v2, _, v := newCommittee(t)
	tip := ids.GenerateTestID()
	b1 := ids.GenerateTestID()
	v.UpdateTip(tip)
	v.ApplyViceBlock(validator.Block{Hash: b1, PrevBlock: tip})

	rv := RoundVote{Tip: tip, Voter: v2, Round: 1, Choice: VoteChoice{Decision: YES, Subject: b1}}
	out := v.ApplyRoundVote(rv)
	require.Empty(t, out.Errors)

	out = v.ApplyRoundVote(rv)
	require.True(t, out.Empty())
}

// TestStalemateAdvancesRound covers S2: two voters prefer different
// vice-blocks, nobody reaches quorum, and OnRoundTooLong advances the
// round after emitting a PASS for the stalled one.
func TestStalemateAdvancesRound(t *testing.T) {
	me, v2, v3 := ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()
	v := New(2, 3, 100, 1000, validatortest.NewStub())
	v.SetVoting(true, me)

	tip := ids.GenerateTestID()
	b1 := ids.GenerateTestID()
	b2 := ids.GenerateTestID()
	v.UpdateTip(tip)
	v.ApplyViceBlock(validator.Block{Hash: b1, PrevBlock: tip})
	v.ApplyViceBlock(validator.Block{Hash: b2, PrevBlock: tip})

	v.ApplyRoundVote(RoundVote{Tip: tip, Voter: v2, Round: 1, Choice: VoteChoice{Decision: YES, Subject: b1}})
	v.ApplyRoundVote(RoundVote{Tip: tip, Voter: v3, Round: 1, Choice: VoteChoice{Decision: YES, Subject: b2}})

	require.EqualValues(t, 1, v.GetCurrentVotingRound())

	out := v.OnRoundTooLong()
	require.NotEmpty(t, out.RoundVotes)
	require.Equal(t, PASS, out.RoundVotes[0].Choice.Decision)
	require.EqualValues(t, 1, out.RoundVotes[0].Round)

	require.EqualValues(t, 2, v.GetCurrentVotingRound())
}

// TestQuorumBoundary covers the boundary case: exactly minQuorum YES
// votes commits a tx; minQuorum-1 does not.
func TestQuorumBoundary(t *testing.T) {
	_, v2, v3, v := newCommittee(t)
	tip := ids.GenerateTestID()
	txA := ids.GenerateTestID()
	v.UpdateTip(tip)

	out := v.ApplyTxVote(TxVote{Tip: tip, Voter: v2, Round: 1, Choice: VoteChoice{Decision: YES, Subject: txA}})
	require.Empty(t, out.Errors)
	require.False(t, v.IsCommittedTx(tip, txA))

	out = v.ApplyTxVote(TxVote{Tip: tip, Voter: v3, Round: 1, Choice: VoteChoice{Decision: YES, Subject: txA}})
	require.Empty(t, out.Errors)
	require.True(t, v.IsCommittedTx(tip, txA))
}
