// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package controller

import (
	"go.uber.org/zap"

	"context"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/validator"
	"github.com/luxfi/dpos/voter"
	"github.com/luxfi/dpos/wiremsg"
)

// ProceedViceBlock is the ingress entry point for MSG_VICE_BLOCK. It
// follows the shared pattern: dedupe by hash, acquire the core lock,
// forward to the Voter, dispatch its output, persist and broadcast the
// original object (spec.md §4.4).
func (c *Controller) ProceedViceBlock(ctx context.Context, msg wiremsg.ViceBlock) error {
	if c.rl.SeenViceBlock(msg.Hash) {
		return nil
	}

	c.coreMu.Lock()
	defer c.coreMu.Unlock()

	block := validator.Block{Hash: msg.Hash, PrevBlock: msg.PrevBlock, Txs: msg.Txs}
	out := c.v.ApplyViceBlock(block)
	if err := c.dispatchOutputLocked(ctx, out); err != nil {
		return err
	}

	batch := c.st.NewBatch()
	if err := batch.PutViceBlock(msg.PrevBlock, msg); err != nil {
		c.log.Warn("failed persisting vice-block", zap.Error(err))
		return nil
	}
	if err := batch.Write(); err != nil {
		c.log.Warn("store write failed for vice-block", zap.Error(err))
		return nil
	}
	if c.broadcast != nil {
		c.broadcast.BroadcastViceBlock(ctx, msg)
	}
	return nil
}

// ProceedTransaction is the ingress entry point for a transaction the
// local node has learned about (e.g. from its mempool).
func (c *Controller) ProceedTransaction(ctx context.Context, tx validator.Tx) error {
	c.coreMu.Lock()
	defer c.coreMu.Unlock()

	out := c.v.ApplyTx(tx)
	return c.dispatchOutputLocked(ctx, out)
}

// ProceedRoundVote is the ingress entry point for MSG_ROUND_VOTE.
func (c *Controller) ProceedRoundVote(ctx context.Context, msg wiremsg.RoundVote) error {
	if c.rl.SeenRoundVote(msg) {
		return nil
	}

	signer, err := msg.RecoverSigner()
	if err != nil {
		c.log.Debug("dropping round vote with unrecoverable signature", zap.Error(fmt.Errorf("%w: %v", voter.ErrMalformedWire, err)))
		return nil
	}

	c.coreMu.Lock()
	defer c.coreMu.Unlock()

	isMember, err := c.checkIsTeamMemberLocked(ctx, msg.Tip, signer)
	if err != nil {
		c.log.Warn("failed checking committee membership", zap.Error(err))
		return nil
	}
	if !isMember {
		c.log.Debug("dropping round vote from non-committee signer", zap.Error(voter.ErrNotCommitteeMember))
		return nil
	}
	if !c.isRetainedTip(msg.Tip) {
		c.log.Debug("dropping round vote for stale tip", zap.Error(voter.ErrStaleTip))
		return nil
	}

	rv := msg.ToCore(signer)
	out := c.v.ApplyRoundVote(rv)
	if len(out.Errors) > 0 {
		c.mx.EquivocationAttempts.Inc()
		c.log.Warn("rejected round vote: invariant violation", zap.Stringer("voter", signer))
		return nil
	}

	// msg is indexed and persisted before dispatchOutputLocked runs: a
	// BlockToSubmit in out is harvested by walking receivedRoundVotes for
	// signatures, and must see this vote to count it toward quorum.
	c.receivedRoundVotes.Put(msg.Hash(), msg)
	batch := c.st.NewBatch()
	if err := batch.PutRoundVote(msg.Tip, msg); err != nil {
		c.log.Warn("failed persisting round vote", zap.Error(err))
		return nil
	}
	if err := batch.Write(); err != nil {
		c.log.Warn("store write failed for round vote", zap.Error(err))
		return nil
	}

	if err := c.dispatchOutputLocked(ctx, out); err != nil {
		return err
	}
	if c.broadcast != nil {
		c.broadcast.BroadcastRoundVote(ctx, msg)
	}
	return nil
}

// ProceedTxVote is the ingress entry point for MSG_TX_VOTE.
func (c *Controller) ProceedTxVote(ctx context.Context, msg wiremsg.TxVote) error {
	if c.rl.SeenTxVote(msg) {
		return nil
	}

	signer, err := msg.RecoverSigner()
	if err != nil {
		c.log.Debug("dropping tx vote with unrecoverable signature", zap.Error(fmt.Errorf("%w: %v", voter.ErrMalformedWire, err)))
		return nil
	}

	c.coreMu.Lock()
	defer c.coreMu.Unlock()

	isMember, err := c.checkIsTeamMemberLocked(ctx, msg.Tip, signer)
	if err != nil {
		c.log.Warn("failed checking committee membership", zap.Error(err))
		return nil
	}
	if !isMember {
		c.log.Debug("dropping tx vote from non-committee signer", zap.Error(voter.ErrNotCommitteeMember))
		return nil
	}
	if !c.isRetainedTip(msg.Tip) {
		c.log.Debug("dropping tx vote for stale tip", zap.Error(voter.ErrStaleTip))
		return nil
	}

	var out voter.Output
	for _, tv := range msg.ToCore(signer) {
		applied := c.v.ApplyTxVote(tv)
		if len(applied.Errors) > 0 {
			c.mx.EquivocationAttempts.Inc()
			c.log.Warn("rejected tx vote: invariant violation", zap.Stringer("voter", signer))
			return nil
		}
		out.TxVotes = append(out.TxVotes, applied.TxVotes...)
		out.RoundVotes = append(out.RoundVotes, applied.RoundVotes...)
		if applied.BlockToSubmit != nil {
			out.BlockToSubmit = applied.BlockToSubmit
		}
	}
	c.receivedTxVotes.Put(msg.Hash(), msg)
	batch := c.st.NewBatch()
	if err := batch.PutTxVote(msg.Tip, msg); err != nil {
		c.log.Warn("failed persisting tx vote", zap.Error(err))
		return nil
	}
	if err := batch.Write(); err != nil {
		c.log.Warn("store write failed for tx vote", zap.Error(err))
		return nil
	}

	if err := c.dispatchOutputLocked(ctx, out); err != nil {
		return err
	}
	if c.broadcast != nil {
		c.broadcast.BroadcastTxVote(ctx, msg)
	}
	return nil
}

// checkIsTeamMemberLocked resolves tip to a height (cached) and asks the
// committee view whether keyId is a member there (spec.md §4.4).
func (c *Controller) checkIsTeamMemberLocked(ctx context.Context, tip dposids.BlockHash, keyID dposids.MasternodeId) (bool, error) {
	height, ok := c.heightCache[tip]
	if !ok {
		h, known, err := c.committee.HeightOf(ctx, tip)
		if err != nil {
			return false, err
		}
		if !known {
			return false, nil
		}
		height = h
		c.heightCache[tip] = height
	}
	return c.committee.IsMember(ctx, height, keyID)
}

// isRetainedTip reports whether tip is one the Voter still tracks state
// for (i.e. has not been pruned outside the retention window).
func (c *Controller) isRetainedTip(tip dposids.BlockHash) bool {
	return c.v.HasTip(tip)
}
