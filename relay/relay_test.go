// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import (
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestSeenDedupes(t *testing.T) {
	c := New(16)
	hash := ids.GenerateTestID()

	require.False(t, c.Seen(hash))
	require.True(t, c.Seen(hash))
}

func TestSweepExpiresOldEntries(t *testing.T) {
	c := New(16)
	hash := ids.GenerateTestID()
	now := time.Now()
	c.now = func() time.Time { return now }

	require.False(t, c.Seen(hash))

	c.now = func() time.Time { return now.Add(Window + time.Minute) }
	c.Sweep()

	require.False(t, c.Seen(hash), "expired entry should be forgotten, not still deduped")
}

func TestRelayDispatchesByKind(t *testing.T) {
	r := NewRelay(16)
	hash := ids.GenerateTestID()

	require.False(t, r.SeenViceBlock(hash))
	require.True(t, r.SeenViceBlock(hash))
}
