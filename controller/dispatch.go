// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package controller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/quorum"
	"github.com/luxfi/dpos/validator"
	"github.com/luxfi/dpos/voter"
	"github.com/luxfi/dpos/wiremsg"
)

// retentionDepth bounds how many blocks behind the chain head a tip's
// dPoS state is retained before pruning (spec.md §4.4 step 3).
const retentionDepth = 100

// dispatchOutputLocked is the handleVoterOutput pipeline (spec.md §4.4):
// every locally-emitted vote in out is signed, persisted, re-injected so
// it counts toward quorum, and relayed; a blockToSubmit is assembled from
// harvested signatures and handed to the block processor. coreMu must be
// held.
func (c *Controller) dispatchOutputLocked(ctx context.Context, out voter.Output) error {
	for _, err := range out.Errors {
		c.log.Debug("voter rejected input", zap.Error(err))
	}

	for _, rv := range out.RoundVotes {
		msg := wiremsg.RoundVote{
			Tip:      rv.Tip,
			Round:    uint32(rv.Round),
			Decision: uint8(rv.Choice.Decision),
			Subject:  rv.Choice.Subject,
		}.Sign(c.signer)

		batch := c.st.NewBatch()
		if err := batch.PutRoundVote(rv.Tip, msg); err != nil {
			return err
		}
		if err := batch.Write(); err != nil {
			return err
		}
		c.receivedRoundVotes.Put(msg.Hash(), msg)
		c.rl.SeenRoundVote(msg)
		if c.broadcast != nil {
			c.broadcast.BroadcastRoundVote(ctx, msg)
		}
	}

	if len(out.TxVotes) > 0 {
		msg := wiremsg.TxVote{Tip: out.TxVotes[0].Tip, Round: uint32(out.TxVotes[0].Round)}
		for _, tv := range out.TxVotes {
			msg.Choices = append(msg.Choices, wiremsg.WireChoice{
				Decision: uint8(tv.Choice.Decision),
				Subject:  tv.Choice.Subject,
			})
		}
		msg = msg.Sign(c.signer)

		batch := c.st.NewBatch()
		if err := batch.PutTxVote(msg.Tip, msg); err != nil {
			return err
		}
		if err := batch.Write(); err != nil {
			return err
		}
		c.receivedTxVotes.Put(msg.Hash(), msg)
		c.rl.SeenTxVote(msg)
		if c.broadcast != nil {
			c.broadcast.BroadcastTxVote(ctx, msg)
		}
	}

	if out.BlockToSubmit != nil {
		c.tryHarvestAndSubmitLocked(ctx, *out.BlockToSubmit)
	}
	return nil
}

// tryHarvestAndSubmitLocked walks every received round vote for the
// block's tip and round, tallies the YES signatures with a quorum.Static,
// and on quorum submits the block through c.blocks. Short of quorum it
// logs and counts the attempt rather than treating it as an error, and
// the block is dropped: the Voter emits a tip's blockToSubmit only once,
// so no later vote triggers another harvest (spec.md §4.4, §7).
func (c *Controller) tryHarvestAndSubmitLocked(ctx context.Context, block validator.Block) {
	tip := block.PrevBlock
	round := uint32(c.v.GetVotingRoundFor(tip))

	tally := quorum.NewStatic(c.cfg.MinQuorum)
	signatures := make(map[dposids.MasternodeId][]byte)
	c.receivedRoundVotes.Iterate(func(_ dposids.VoteHash, rv wiremsg.RoundVote) bool {
		if rv.Tip != tip || rv.Round != round {
			return true
		}
		if rv.Decision != uint8(voter.YES) || rv.Subject != block.Hash {
			return true
		}
		signer, err := rv.RecoverSigner()
		if err != nil {
			return true
		}
		tally.Add(signer)
		signatures[signer] = append([]byte(nil), rv.Signature[:]...)
		return true
	})

	result := tally.Check()
	if !result.Achieved {
		c.mx.QuorumShortBlocks.Inc()
		c.log.Debug("blockToSubmit short of quorum, awaiting more signatures",
			zap.Error(voter.ErrQuorumShort), zap.Int("have", result.Count), zap.Int("need", result.Threshold))
		return
	}

	sigs := make([][]byte, 0, len(result.Participants))
	for _, p := range result.Participants {
		sigs = append(sigs, signatures[p])
	}
	if err := c.blocks.SubmitBlock(ctx, block, sigs); err != nil {
		c.log.Warn("block submission failed", zap.Error(err))
	}
}

// checkStalemateLocked implements step 2 of the event loop: if the
// current round has not advanced in stalemateTimeout seconds and at
// least one round vote exists for it, force a round advance via
// Voter.OnRoundTooLong (spec.md §4.2, §4.4).
func (c *Controller) checkStalemateLocked(ctx context.Context) {
	if !c.ready || !c.v.HasTip(c.currentTip) {
		return
	}
	tip := c.currentTip
	round := c.v.GetCurrentVotingRound()
	if round != c.lastRoundSeen {
		c.mx.RoundCompletionTime.Observe(time.Since(c.lastRoundAdvance).Seconds())
		c.lastRoundSeen = round
		c.lastRoundAdvance = time.Now()
		return
	}
	if time.Since(c.lastRoundAdvance) < time.Duration(c.cfg.StalemateTimeout)*time.Second {
		return
	}
	if len(c.v.ListRoundVotes(tip, round)) == 0 {
		return
	}
	out := c.v.OnRoundTooLong()
	c.lastRoundAdvance = time.Now()
	if err := c.dispatchOutputLocked(ctx, out); err != nil {
		c.log.Warn("failed dispatching stalemate output", zap.Error(err))
	}
}

// checkPruneLocked implements step 3 of the event loop: every
// pollingPeriod seconds, drop dPoS state for tips more than
// retentionDepth blocks behind the chain head, as well as expired relay
// entries (spec.md §4.4 step 3).
func (c *Controller) checkPruneLocked(ctx context.Context) {
	if time.Since(c.lastPrune) < time.Duration(c.cfg.PollingPeriod)*time.Second {
		return
	}
	c.lastPrune = time.Now()
	c.rl.Sweep()

	head, err := c.chain.HeadHeight(ctx)
	if err != nil {
		c.log.Warn("failed reading chain head height for pruning", zap.Error(err))
		return
	}

	var dropped []dposids.BlockHash
	c.v.Prune(func(tip dposids.BlockHash) bool {
		height, err := c.chain.TipHeight(ctx, tip)
		if err != nil {
			return true // unknown tip: keep, don't guess
		}
		keep := height+retentionDepth >= head
		if !keep {
			dropped = append(dropped, tip)
		}
		return keep
	})

	for _, tip := range dropped {
		if err := c.st.EraseByTip(tip); err != nil {
			c.log.Warn("failed erasing pruned tip from store", zap.Error(err))
		}
		delete(c.heightCache, tip)
	}
	if c.receivedRoundVotes.Len() > 0 || c.receivedTxVotes.Len() > 0 {
		c.pruneReceivedVotesLocked(dropped)
	}
}

func (c *Controller) pruneReceivedVotesLocked(droppedTips []dposids.BlockHash) {
	if len(droppedTips) == 0 {
		return
	}
	drop := make(map[dposids.BlockHash]struct{}, len(droppedTips))
	for _, tip := range droppedTips {
		drop[tip] = struct{}{}
	}

	var staleRoundVotes []dposids.VoteHash
	c.receivedRoundVotes.Iterate(func(hash dposids.VoteHash, rv wiremsg.RoundVote) bool {
		if _, gone := drop[rv.Tip]; gone {
			staleRoundVotes = append(staleRoundVotes, hash)
		}
		return true
	})
	for _, hash := range staleRoundVotes {
		c.receivedRoundVotes.Delete(hash)
	}

	var staleTxVotes []dposids.VoteHash
	c.receivedTxVotes.Iterate(func(hash dposids.VoteHash, tv wiremsg.TxVote) bool {
		if _, gone := drop[tv.Tip]; gone {
			staleTxVotes = append(staleTxVotes, hash)
		}
		return true
	})
	for _, hash := range staleTxVotes {
		c.receivedTxVotes.Delete(hash)
	}
}
