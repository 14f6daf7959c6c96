// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/dpos/wiremsg"
)

func TestPutFindRoundTrip(t *testing.T) {
	s := New(newMemKV())
	tip := ids.GenerateTestID()
	vb := wiremsg.ViceBlock{Hash: ids.GenerateTestID(), PrevBlock: tip, Txs: []ids.ID{ids.GenerateTestID()}}

	batch := s.NewBatch()
	require.NoError(t, batch.PutViceBlock(tip, vb))
	require.NoError(t, batch.Write())

	got, err := s.FindViceBlock(tip, vb.Hash)
	require.NoError(t, err)
	require.Equal(t, vb, got)
}

func TestFindMissingReturnsNotFound(t *testing.T) {
	s := New(newMemKV())
	_, err := s.FindViceBlock(ids.GenerateTestID(), ids.GenerateTestID())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadViceBlocksIteratesAllUnderTip(t *testing.T) {
	s := New(newMemKV())
	tip := ids.GenerateTestID()
	other := ids.GenerateTestID()

	batch := s.NewBatch()
	vb1 := wiremsg.ViceBlock{Hash: ids.GenerateTestID(), PrevBlock: tip}
	vb2 := wiremsg.ViceBlock{Hash: ids.GenerateTestID(), PrevBlock: tip}
	vb3 := wiremsg.ViceBlock{Hash: ids.GenerateTestID(), PrevBlock: other}
	require.NoError(t, batch.PutViceBlock(tip, vb1))
	require.NoError(t, batch.PutViceBlock(tip, vb2))
	require.NoError(t, batch.PutViceBlock(other, vb3))
	require.NoError(t, batch.Write())

	var loaded []wiremsg.ViceBlock
	require.NoError(t, s.LoadViceBlocks(tip, func(b wiremsg.ViceBlock) {
		loaded = append(loaded, b)
	}))
	require.Len(t, loaded, 2)
}

func TestEraseByTipDropsOnlyThatTip(t *testing.T) {
	s := New(newMemKV())
	tip := ids.GenerateTestID()
	keep := ids.GenerateTestID()

	batch := s.NewBatch()
	vb := wiremsg.ViceBlock{Hash: ids.GenerateTestID(), PrevBlock: tip}
	kept := wiremsg.ViceBlock{Hash: ids.GenerateTestID(), PrevBlock: keep}
	require.NoError(t, batch.PutViceBlock(tip, vb))
	require.NoError(t, batch.PutViceBlock(keep, kept))
	require.NoError(t, batch.Write())

	require.NoError(t, s.EraseByTip(tip))

	_, err := s.FindViceBlock(tip, vb.Hash)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := s.FindViceBlock(keep, kept.Hash)
	require.NoError(t, err)
	require.Equal(t, kept, got)
}
