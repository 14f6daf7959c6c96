// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package committeetest provides a hand-rolled test double for
// committee.View, in the call-with-override style used throughout this
// codebase's test doubles: set the CantXxx flag to fail the test if the
// method is called unexpectedly, or supply an XxxF func to override
// behavior.
package committeetest

import (
	"context"
	"testing"

	"github.com/luxfi/dpos/dposids"
)

// View is a test double implementing committee.View.
type View struct {
	T *testing.T

	CantIsMember     bool
	CantSize         bool
	CantHeightOf     bool
	CantMyOperatorID bool

	IsMemberF     func(ctx context.Context, height uint64, id dposids.MasternodeId) (bool, error)
	SizeF         func(ctx context.Context, height uint64) (int, error)
	HeightOfF     func(ctx context.Context, tip dposids.BlockHash) (uint64, bool, error)
	MyOperatorIDF func() (dposids.MasternodeId, bool)
}

func (v *View) IsMember(ctx context.Context, height uint64, id dposids.MasternodeId) (bool, error) {
	if v.IsMemberF != nil {
		return v.IsMemberF(ctx, height, id)
	}
	if v.CantIsMember && v.T != nil {
		v.T.Fatalf("unexpectedly called IsMember")
	}
	return false, nil
}

func (v *View) Size(ctx context.Context, height uint64) (int, error) {
	if v.SizeF != nil {
		return v.SizeF(ctx, height)
	}
	if v.CantSize && v.T != nil {
		v.T.Fatalf("unexpectedly called Size")
	}
	return 0, nil
}

func (v *View) HeightOf(ctx context.Context, tip dposids.BlockHash) (uint64, bool, error) {
	if v.HeightOfF != nil {
		return v.HeightOfF(ctx, tip)
	}
	if v.CantHeightOf && v.T != nil {
		v.T.Fatalf("unexpectedly called HeightOf")
	}
	return 0, false, nil
}

func (v *View) MyOperatorID() (dposids.MasternodeId, bool) {
	if v.MyOperatorIDF != nil {
		return v.MyOperatorIDF()
	}
	if v.CantMyOperatorID && v.T != nil {
		v.T.Fatalf("unexpectedly called MyOperatorID")
	}
	var zero dposids.MasternodeId
	return zero, false
}
