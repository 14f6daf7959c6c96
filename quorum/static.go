// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package quorum harvests per-masternode YES signatures toward a fixed
// threshold. The controller uses a Static tally on a Voter blockToSubmit
// output to decide whether enough round-vote signatures have been seen
// for the targeted block to submit it (spec.md §4.4, SPEC_FULL.md §9).
// WeightedStatic and the snowball-style termination conditions in the
// original teacher package have no home here — dPoS quorum is a flat
// one-masternode-one-vote count, not a weighted sample (see DESIGN.md).
package quorum

import (
	"sync"

	"github.com/luxfi/dpos/dposids"
)

// Result is a snapshot of a Static tally.
type Result struct {
	Achieved     bool
	Count        int
	Threshold    int
	Participants []dposids.MasternodeId
}

// Static counts distinct masternode YES signatures against a fixed
// threshold. Adding the same voter twice does not double-count it.
type Static struct {
	mu        sync.Mutex
	threshold int
	voters    map[dposids.MasternodeId]struct{}
}

// NewStatic returns a Static tally requiring threshold distinct voters.
func NewStatic(threshold int) *Static {
	return &Static{
		threshold: threshold,
		voters:    make(map[dposids.MasternodeId]struct{}),
	}
}

// Add records that voter signed YES for the subject this tally is being
// built for.
func (s *Static) Add(voter dposids.MasternodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[voter] = struct{}{}
}

// Check returns the current tally.
func (s *Static) Check() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	participants := make([]dposids.MasternodeId, 0, len(s.voters))
	for voter := range s.voters {
		participants = append(participants, voter)
	}
	return Result{
		Achieved:     len(s.voters) >= s.threshold,
		Count:        len(s.voters),
		Threshold:    s.threshold,
		Participants: participants,
	}
}
