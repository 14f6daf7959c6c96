// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics registers the Controller's Prometheus gauges and
// counters: current voting round, committee size, pending vice-blocks,
// committed tx count, equivocation attempts, and quorum-short
// submissions (SPEC_FULL.md §4.4).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/dpos/utils/metric"
)

// Metrics holds every gauge/counter the Controller reports during its
// event loop and ingress handlers.
type Metrics struct {
	CurrentRound         metric.Gauge
	CommitteeSize        metric.Gauge
	PendingViceBlocks    metric.Gauge
	CommittedTxCount     metric.Gauge
	EquivocationAttempts metric.Counter
	QuorumShortBlocks    metric.Counter
	RoundCompletionTime  metric.Averager
}

// New registers every metric against reg (a prometheus.Registerer the
// caller wires to an HTTP /metrics endpoint, or an unregistered in-memory
// registry in tests).
func New(reg prometheus.Registerer) *Metrics {
	r := metric.NewRegistry(reg)
	return &Metrics{
		CurrentRound:         r.NewGauge("dpos_current_round", "Current voting round for the active tip"),
		CommitteeSize:        r.NewGauge("dpos_committee_size", "Committee size at the active tip"),
		PendingViceBlocks:    r.NewGauge("dpos_pending_vice_blocks", "Vice-blocks awaiting quorum for the active tip"),
		CommittedTxCount:     r.NewGauge("dpos_committed_tx_count", "Transactions committed under the active tip"),
		EquivocationAttempts: r.NewCounter("dpos_equivocation_attempts_total", "Rejected equivocating votes observed"),
		QuorumShortBlocks:    r.NewCounter("dpos_quorum_short_blocks_total", "Blocks abandoned for insufficient harvested signatures"),
		RoundCompletionTime:  r.NewAverager("dpos_round_completion_seconds"),
	}
}
