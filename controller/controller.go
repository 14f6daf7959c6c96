// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/log"
	"go.uber.org/zap"

	"github.com/luxfi/dpos/committee"
	"github.com/luxfi/dpos/config"
	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/metrics"
	"github.com/luxfi/dpos/relay"
	"github.com/luxfi/dpos/store"
	"github.com/luxfi/dpos/utils/linked"
	"github.com/luxfi/dpos/validator"
	"github.com/luxfi/dpos/voter"
	"github.com/luxfi/dpos/wiremsg"
)

// tick is the event-loop cadence (spec.md §4.4, §5).
const tick = 500 * time.Millisecond

// Controller is constructed once at process start and owned by the
// caller — passed by reference to the network, chain, and event-loop
// subsystems. There is no package-level global state (SPEC_FULL.md §9).
type Controller struct {
	cfg config.Params

	// coreMu is the single core lock (cs_dpos in the original). The
	// event-loop goroutine and every Proceed* ingress entry point
	// acquire it before touching the Voter or any shared map.
	coreMu sync.Mutex

	v          *voter.Voter
	committee  committee.View
	st         *store.Store
	rl         *relay.Relay
	mx         *metrics.Metrics
	chain      ChainTip
	blocks     BlockProcessor
	broadcast  Broadcaster
	signer     *wiremsg.Signer
	log        log.Logger

	// receivedRoundVotes and receivedTxVotes retain every vote the node
	// has seen for a live tip, in arrival order — a linked.Hashmap rather
	// than a plain map so that quorum-harvest and pruning both walk
	// signatures in a deterministic, reproducible order (SPEC_FULL.md
	// §4.4).
	receivedRoundVotes *linked.Hashmap[dposids.VoteHash, wiremsg.RoundVote]
	receivedTxVotes    *linked.Hashmap[dposids.VoteHash, wiremsg.TxVote]

	// heightCache resolves a tip to its chain height without re-walking
	// the chain index on every committee check (checkIsTeamMember,
	// spec.md §4.4).
	heightCache map[dposids.BlockHash]uint64

	ready            bool
	ibdDoneAt        time.Time
	currentTip       dposids.BlockHash
	lastRoundSeen    dposids.Round
	lastRoundAdvance time.Time

	lifecycle sync.Mutex
	execCtx   context.Context
	cancel    context.CancelFunc
	executing sync.WaitGroup
	started   bool

	lastPrune time.Time
}

// New constructs a Controller. v need not have SetVoting called on it:
// the Controller enables or disables voting from committee membership on
// every tip update (refreshVotingLocked).
func New(
	cfg config.Params,
	v *voter.Voter,
	committeeView committee.View,
	st *store.Store,
	rl *relay.Relay,
	mx *metrics.Metrics,
	chain ChainTip,
	blocks BlockProcessor,
	broadcast Broadcaster,
	signer *wiremsg.Signer,
	logger log.Logger,
) *Controller {
	return &Controller{
		cfg:                cfg,
		v:                  v,
		committee:          committeeView,
		st:                 st,
		rl:                 rl,
		mx:                 mx,
		chain:              chain,
		blocks:             blocks,
		broadcast:          broadcast,
		signer:             signer,
		log:                logger,
		receivedRoundVotes: linked.NewHashmap[dposids.VoteHash, wiremsg.RoundVote](),
		receivedTxVotes:    linked.NewHashmap[dposids.VoteHash, wiremsg.TxVote](),
		heightCache:        make(map[dposids.BlockHash]uint64),
	}
}

// Restore replays every vice-block, round vote, and tx vote persisted in
// the store back into the Voter, reconstructing its in-memory tipState
// map after a crash or restart (spec.md §4.3's durability contract;
// SPEC_FULL.md §8's persistence round-trip law). Call once, before
// Start, with no peer or chain traffic yet flowing — replayed votes are
// applied directly against the Voter rather than through
// dispatchOutputLocked, so restoration neither re-signs nor
// re-broadcasts anything, and the Voter must not yet have voting enabled
// (SetVoting is toggled from committee membership on the first
// onChainTipUpdatedLocked call that follows).
func (c *Controller) Restore(ctx context.Context) error {
	c.coreMu.Lock()
	defer c.coreMu.Unlock()

	if err := c.st.LoadAllViceBlocks(func(b wiremsg.ViceBlock) {
		c.v.ApplyViceBlock(validator.Block{Hash: b.Hash, PrevBlock: b.PrevBlock, Txs: b.Txs})
	}); err != nil {
		return fmt.Errorf("controller: restore vice-blocks: %w", err)
	}

	if err := c.st.LoadAllRoundVotes(func(msg wiremsg.RoundVote) {
		signer, err := msg.RecoverSigner()
		if err != nil {
			c.log.Warn("dropping unrecoverable persisted round vote during restore", zap.Error(err))
			return
		}
		c.v.ApplyRoundVote(msg.ToCore(signer))
		c.receivedRoundVotes.Put(msg.Hash(), msg)
	}); err != nil {
		return fmt.Errorf("controller: restore round votes: %w", err)
	}

	if err := c.st.LoadAllTxVotes(func(msg wiremsg.TxVote) {
		signer, err := msg.RecoverSigner()
		if err != nil {
			c.log.Warn("dropping unrecoverable persisted tx vote during restore", zap.Error(err))
			return
		}
		for _, tv := range msg.ToCore(signer) {
			c.v.ApplyTxVote(tv)
		}
		c.receivedTxVotes.Put(msg.Hash(), msg)
	}); err != nil {
		return fmt.Errorf("controller: restore tx votes: %w", err)
	}
	return nil
}

// Start begins the event loop. Safe to call once; a second call is a
// no-op until Stop is called.
func (c *Controller) Start() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.execCtx, c.cancel = context.WithCancel(context.Background())
	c.executing.Add(1)
	go c.run()
}

// Stop cancels the event loop and waits for it to exit.
func (c *Controller) Stop() {
	c.lifecycle.Lock()
	if !c.started {
		c.lifecycle.Unlock()
		return
	}
	c.started = false
	c.cancel()
	c.lifecycle.Unlock()
	c.executing.Wait()
}

// run is the single-threaded ~500ms event loop (spec.md §4.4, §5). It
// honors a cooperative interruption point at the start of each iteration.
func (c *Controller) run() {
	defer c.executing.Done()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-c.execCtx.Done():
			return
		case <-ticker.C:
			c.onTick(c.execCtx)
		}
	}
}

func (c *Controller) onTick(ctx context.Context) {
	c.coreMu.Lock()
	defer c.coreMu.Unlock()

	c.checkReady(ctx)
	c.checkStalemateLocked(ctx)
	c.checkPruneLocked(ctx)
}

// checkReady implements step 1 of the event loop: detect end-of-IBD,
// and after delayIBD more seconds set ready and call onChainTipUpdated.
func (c *Controller) checkReady(ctx context.Context) {
	if c.ready {
		return
	}
	ibd, err := c.chain.IsInitialBlockDownload(ctx)
	if err != nil {
		c.log.Warn("failed checking initial block download status", zap.Error(err))
		return
	}
	if ibd {
		c.ibdDoneAt = time.Time{}
		return
	}
	if c.ibdDoneAt.IsZero() {
		c.ibdDoneAt = time.Now()
		return
	}
	if time.Since(c.ibdDoneAt) < time.Duration(c.cfg.DelayIBD)*time.Second {
		return
	}
	tip, err := c.chain.TipHash(ctx)
	if err != nil {
		c.log.Warn("failed reading chain tip on ready transition", zap.Error(err))
		return
	}
	if !c.isEnabledLocked(ctx, tip) {
		return
	}
	c.ready = true
	c.onChainTipUpdatedLocked(ctx, tip)
}

// isEnabledLocked reports whether dPoS is active at tip: the committee
// there must have exactly TeamSize members and tip's height must be at
// or above ActivationHeight (SPEC_FULL.md §3, supplemented from
// original_source's isEnabled). Below this gate the controller tracks no
// state and emits no votes, matching the original's behavior of never
// activating on a network/height that never reached the required
// committee size.
func (c *Controller) isEnabledLocked(ctx context.Context, tip dposids.BlockHash) bool {
	height, known, err := c.committee.HeightOf(ctx, tip)
	if err != nil || !known || height < c.cfg.ActivationHeight {
		return false
	}
	size, err := c.committee.Size(ctx, height)
	if err != nil {
		return false
	}
	return size == c.cfg.TeamSize
}

// onChainTipUpdatedLocked re-anchors the Voter at tip. coreMu must be
// held.
func (c *Controller) onChainTipUpdatedLocked(ctx context.Context, tip dposids.BlockHash) {
	c.refreshVotingLocked(ctx, tip)
	out := c.v.UpdateTip(tip)
	c.currentTip = tip
	c.lastRoundSeen = c.v.GetCurrentVotingRound()
	c.lastRoundAdvance = time.Now()
	c.reportGaugesLocked(ctx, tip)
	if err := c.dispatchOutputLocked(ctx, out); err != nil {
		c.log.Warn("failed dispatching updateTip output", zap.Error(err))
	}
}

// refreshVotingLocked toggles the Voter's local vote emission to match
// current committee membership at tip, re-evaluated on every tip update
// so that a node which drops off the committee immediately stops
// self-emitting votes under its old operator identity — mirroring the
// original's per-tip-update findMasternodeId()/setVoting() toggle
// (SPEC_FULL.md §4.4, supplemented from original_source).
func (c *Controller) refreshVotingLocked(ctx context.Context, tip dposids.BlockHash) {
	operator, configured := c.committee.MyOperatorID()
	if !configured {
		c.v.SetVoting(false, operator)
		return
	}
	height, known, err := c.committee.HeightOf(ctx, tip)
	if err != nil || !known {
		c.v.SetVoting(false, operator)
		return
	}
	isMember, err := c.committee.IsMember(ctx, height, operator)
	if err != nil {
		c.v.SetVoting(false, operator)
		return
	}
	c.v.SetVoting(isMember, operator)
}

// reportGaugesLocked refreshes the Prometheus gauges that reflect the
// Voter's state at tip (SPEC_FULL.md §4.4).
func (c *Controller) reportGaugesLocked(ctx context.Context, tip dposids.BlockHash) {
	c.mx.CurrentRound.Set(float64(c.v.GetCurrentVotingRound()))
	c.mx.PendingViceBlocks.Set(float64(len(c.v.ListViceBlocks(tip))))
	c.mx.CommittedTxCount.Set(float64(len(c.v.ListCommittedTxs(tip))))
	if height, known, err := c.committee.HeightOf(ctx, tip); err == nil && known {
		if size, err := c.committee.Size(ctx, height); err == nil {
			c.mx.CommitteeSize.Set(float64(size))
		}
	}
}

// OnChainTipUpdated is the external entry point a chain-update thread
// calls when the underlying chain's head changes.
func (c *Controller) OnChainTipUpdated(ctx context.Context, tip dposids.BlockHash) {
	c.coreMu.Lock()
	defer c.coreMu.Unlock()
	if !c.ready || !c.isEnabledLocked(ctx, tip) {
		return
	}
	c.onChainTipUpdatedLocked(ctx, tip)
}
