// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command dposd wires together a single dPoS finality-layer node: a
// committee, a LevelDB-backed store, the relay cache, Prometheus metrics,
// and the controller's event loop, against a minimal in-memory chain
// stand-in. It demonstrates the construction shape a real node embeds
// this module with (SPEC_FULL.md §9) — the chain, transport, and block
// submission are stubbed, not implemented, per spec.md §1's Non-goals.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/luxfi/ids"

	"github.com/luxfi/dpos/committee"
	"github.com/luxfi/dpos/config"
	"github.com/luxfi/dpos/controller"
	"github.com/luxfi/dpos/logging"
	"github.com/luxfi/dpos/metrics"
	"github.com/luxfi/dpos/relay"
	"github.com/luxfi/dpos/store"
	"github.com/luxfi/dpos/validator"
	"github.com/luxfi/dpos/voter"
	"github.com/luxfi/dpos/wiremsg"
)

func main() {
	dbPath := flag.String("db", "./dposd-data", "path to the LevelDB store directory")
	relayLimit := flag.Uint64("relay-limit", 4096, "per-kind relay cache size")
	flag.Parse()

	if err := run(*dbPath, *relayLimit); err != nil {
		fmt.Fprintf(os.Stderr, "dposd: %v\n", err)
		os.Exit(1)
	}
}

func run(dbPath string, relayLimit uint64) error {
	cfg := config.Default()
	if err := cfg.Valid(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	signer, err := wiremsg.GenerateSigner()
	if err != nil {
		return fmt.Errorf("generating operator key: %w", err)
	}
	me := signer.NodeID()

	members := []ids.NodeID{me, ids.GenerateTestNodeID(), ids.GenerateTestNodeID()}
	view := committee.NewMemory(members...)
	view.SetOperator(me)

	genesis := ids.GenerateTestID()
	view.SetHeight(genesis, 0)

	db, err := store.OpenLevelDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()
	st := store.New(db)

	chain := &demoChain{tip: genesis, heights: map[ids.ID]uint64{genesis: 0}}
	val := &validator.Chain{Reader: chain, ArchiveDepth: 100}

	// SetVoting is not called here: the controller re-evaluates committee
	// membership against view.MyOperatorID() on every tip update and
	// toggles it itself (refreshVotingLocked), so a node that falls off
	// the committee stops self-emitting votes without a restart.
	v := voter.New(cfg.MinQuorum, cfg.TeamSize, cfg.MaxTxVotesFromVoter, cfg.MaxNotVotedTxsToKeep, val)

	rl := relay.NewRelay(relayLimit)
	mx := metrics.New(nil)
	logger := logging.NewNoOpLogger()

	ctrl := controller.New(cfg, v, view, st, rl, mx, chain, &demoBlocks{log: logger}, &demoBroadcaster{log: logger}, signer, logger)
	ctx := context.Background()
	if err := ctrl.Restore(ctx); err != nil {
		return fmt.Errorf("restoring controller state: %w", err)
	}
	ctrl.Start()
	defer ctrl.Stop()

	chain.ibdDone = true

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

// demoChain is a minimal in-memory ChainTip + validator.ChainReader stand
// in, exercising the seams controller.ChainTip and validator.ChainReader
// are designed around (spec.md §1 Non-goals: real chain storage and
// header validation live outside this module).
type demoChain struct {
	tip     ids.ID
	heights map[ids.ID]uint64
	ibdDone bool
}

func (c *demoChain) TipHash(context.Context) (ids.ID, error) { return c.tip, nil }

func (c *demoChain) TipHeight(_ context.Context, tip ids.ID) (uint64, error) {
	h, ok := c.heights[tip]
	if !ok {
		return 0, fmt.Errorf("dposd: unknown tip %s", tip)
	}
	return h, nil
}

func (c *demoChain) HeadHeight(context.Context) (uint64, error) {
	return c.heights[c.tip], nil
}

func (c *demoChain) IsInitialBlockDownload(context.Context) (bool, error) {
	return !c.ibdDone, nil
}

func (c *demoChain) HasTx(ids.ID) bool { return true }

func (c *demoChain) TipDepth(tip ids.ID) (uint64, bool) {
	h, ok := c.heights[tip]
	if !ok {
		return 0, false
	}
	return c.heights[c.tip] - h, true
}

type demoBlocks struct{ log interface{ Info(string, ...interface{}) } }

func (b *demoBlocks) SubmitBlock(_ context.Context, block validator.Block, sigs [][]byte) error {
	b.log.Info("block finalized", "hash", block.Hash.String(), "signatures", len(sigs))
	return nil
}

type demoBroadcaster struct{ log interface{ Info(string, ...interface{}) } }

func (b *demoBroadcaster) BroadcastViceBlock(context.Context, wiremsg.ViceBlock) {}
func (b *demoBroadcaster) BroadcastRoundVote(context.Context, wiremsg.RoundVote) {}
func (b *demoBroadcaster) BroadcastTxVote(context.Context, wiremsg.TxVote)       {}
