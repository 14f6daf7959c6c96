// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package committee

import (
	"context"
	"sync"

	"github.com/luxfi/dpos/dposids"
)

// Memory is a simple in-process View backed by a single fixed committee
// at every height, useful for the cmd/dposd demo and scenario tests that
// don't need height-varying membership.
type Memory struct {
	mu       sync.RWMutex
	members  map[dposids.MasternodeId]struct{}
	heights  map[dposids.BlockHash]uint64
	operator dposids.MasternodeId
	amIVoter bool
}

// NewMemory returns a Memory view with the given fixed committee.
func NewMemory(members ...dposids.MasternodeId) *Memory {
	m := &Memory{
		members: make(map[dposids.MasternodeId]struct{}, len(members)),
		heights: make(map[dposids.BlockHash]uint64),
	}
	for _, id := range members {
		m.members[id] = struct{}{}
	}
	return m
}

// SetOperator marks id as the local node's operator identity.
func (m *Memory) SetOperator(id dposids.MasternodeId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operator = id
	m.amIVoter = true
}

// SetMembers replaces the committee wholesale, e.g. to simulate a
// membership change between chain tips in tests.
func (m *Memory) SetMembers(members ...dposids.MasternodeId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = make(map[dposids.MasternodeId]struct{}, len(members))
	for _, id := range members {
		m.members[id] = struct{}{}
	}
}

// SetHeight records the chain height for tip, so HeightOf can resolve it.
func (m *Memory) SetHeight(tip dposids.BlockHash, height uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heights[tip] = height
}

func (m *Memory) IsMember(_ context.Context, _ uint64, id dposids.MasternodeId) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.members[id]
	return ok, nil
}

func (m *Memory) Size(_ context.Context, _ uint64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.members), nil
}

func (m *Memory) HeightOf(_ context.Context, tip dposids.BlockHash) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.heights[tip]
	return h, ok, nil
}

func (m *Memory) MyOperatorID() (dposids.MasternodeId, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.operator, m.amIVoter
}
