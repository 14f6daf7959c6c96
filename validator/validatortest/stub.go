// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validatortest provides a hand-rolled validator.Validator test
// double, in the same style as committee/committeetest.
package validatortest

import (
	"errors"
	"testing"

	"github.com/luxfi/dpos/dposids"
	"github.com/luxfi/dpos/validator"
)

// ErrRejected is a ready-made rejection error for tests to put in
// RejectTxs/RejectBlocks; Stub returns whatever error the table holds.
var ErrRejected = errors.New("validatortest: rejected")

// Stub is an in-memory test double that accepts everything by default and
// rejects by table. T is optional; when set, calls past CantXxx fail the
// test.
type Stub struct {
	T *testing.T

	RejectTxs      map[dposids.TxId]error
	RejectBlocks   map[dposids.BlockHash]error
	ArchivableTips map[dposids.BlockHash]bool

	CantValidateTx     bool
	CantValidateBlock  bool
	CantAllowArchiving bool
}

// NewStub returns an accept-everything Stub.
func NewStub() *Stub {
	return &Stub{
		RejectTxs:      make(map[dposids.TxId]error),
		RejectBlocks:   make(map[dposids.BlockHash]error),
		ArchivableTips: make(map[dposids.BlockHash]bool),
	}
}

func (s *Stub) ValidateTx(tx validator.Tx) (bool, error) {
	if s.CantValidateTx && s.T != nil {
		s.T.Fatalf("unexpectedly called ValidateTx")
	}
	if err, rejected := s.RejectTxs[tx.ID]; rejected {
		return false, err
	}
	return true, nil
}

func (s *Stub) ValidateBlock(block validator.Block, knownTxs map[dposids.TxId]bool, checkTxs bool) (bool, error) {
	if s.CantValidateBlock && s.T != nil {
		s.T.Fatalf("unexpectedly called ValidateBlock")
	}
	if err, rejected := s.RejectBlocks[block.Hash]; rejected {
		return false, err
	}
	if !checkTxs {
		return true, nil
	}
	for _, txID := range block.Txs {
		if knownTxs[txID] {
			continue
		}
		if ok, err := s.ValidateTx(validator.Tx{ID: txID}); !ok {
			return false, err
		}
	}
	return true, nil
}

func (s *Stub) AllowArchiving(tip dposids.BlockHash) bool {
	if s.CantAllowArchiving && s.T != nil {
		s.T.Fatalf("unexpectedly called AllowArchiving")
	}
	return s.ArchivableTips[tip]
}
