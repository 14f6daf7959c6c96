// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the consensus parameters that govern the finality
// layer. Params is a plain, explicitly-constructed value — there is no
// package-level global state; callers load it once (typically from JSON)
// and pass it by value into controller.New.
package config

import (
	"errors"
	"fmt"
)

// Errors returned by Valid. Use errors.Is against these sentinels.
var (
	ErrTeamSizeTooSmall    = errors.New("config: team size must be positive")
	ErrQuorumTooLow        = errors.New("config: min quorum must exceed 2/3 of team size")
	ErrQuorumExceedsTeam   = errors.New("config: min quorum cannot exceed team size")
	ErrNonPositiveDuration = errors.New("config: durations must be positive")
	ErrNonPositiveBound    = errors.New("config: fairness bounds must be positive")
)

// Params are the consensus parameters fixed for a given network. All
// duration fields are seconds, matching the wire/consensus convention of
// the chain this layer sits on top of.
type Params struct {
	// TeamSize is the required committee size. dPoS is enabled only once
	// the on-chain committee at the tip has exactly this many members.
	TeamSize int `json:"teamSize"`

	// MinQuorum is the number of YES votes required to finalize a block
	// or commit a transaction. Must exceed 2*TeamSize/3.
	MinQuorum int `json:"minQuorum"`

	// MaxNotVotedTxsToKeep bounds, per tip, how many locally known
	// transactions that have not yet been committed the Voter retains; the
	// oldest are forgotten once the bound is exceeded.
	MaxNotVotedTxsToKeep int `json:"maxNotVotedTxsToKeep"`

	// MaxTxVotesFromVoter bounds how many tx votes the local voter casts
	// per round. Tx votes received from other masternodes are not limited
	// by it.
	MaxTxVotesFromVoter int `json:"maxTxVotesFromVoter"`

	// PollingPeriod is the interval, in seconds, at which the controller
	// prunes votes for tips that have fallen out of the retention window.
	PollingPeriod int `json:"pollingPeriod"`

	// StalemateTimeout is the number of seconds without round progress
	// before the controller calls Voter.OnRoundTooLong.
	StalemateTimeout int `json:"stalemateTimeout"`

	// DelayIBD is the settling delay, in seconds, after initial block
	// download completes before the controller marks itself ready.
	DelayIBD int `json:"delayIBD"`

	// ActivationHeight is the minimum chain height at which dPoS may
	// activate, in addition to the team-size check. Supplements the
	// original's network-upgrade gate (see SPEC_FULL.md §3).
	ActivationHeight uint64 `json:"activationHeight"`
}

// Valid checks the parameter block for internal consistency. It does not
// validate against any live chain state.
func (p Params) Valid() error {
	switch {
	case p.TeamSize <= 0:
		return ErrTeamSizeTooSmall
	case p.MinQuorum > p.TeamSize:
		return fmt.Errorf("%w: quorum %d, team size %d", ErrQuorumExceedsTeam, p.MinQuorum, p.TeamSize)
	case 3*p.MinQuorum <= 2*p.TeamSize:
		return fmt.Errorf("%w: quorum %d, team size %d", ErrQuorumTooLow, p.MinQuorum, p.TeamSize)
	case p.PollingPeriod <= 0, p.StalemateTimeout <= 0, p.DelayIBD < 0:
		return ErrNonPositiveDuration
	case p.MaxNotVotedTxsToKeep <= 0, p.MaxTxVotesFromVoter <= 0:
		return ErrNonPositiveBound
	default:
		return nil
	}
}

// Default returns a Params block sized for the committee-of-3 scenarios
// used throughout the test suite and SPEC_FULL.md's end-to-end scenarios.
func Default() Params {
	return Params{
		TeamSize:             3,
		MinQuorum:            2,
		MaxNotVotedTxsToKeep: 1000,
		MaxTxVotesFromVoter:  100,
		PollingPeriod:        10,
		StalemateTimeout:     30,
		DelayIBD:             60,
		ActivationHeight:     0,
	}
}
