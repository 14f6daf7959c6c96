// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersEveryMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CurrentRound.Set(3)
	require.Equal(t, float64(3), m.CurrentRound.Read())

	m.EquivocationAttempts.Inc()
	m.EquivocationAttempts.Inc()
	require.Equal(t, int64(2), m.EquivocationAttempts.Read())

	m.RoundCompletionTime.Observe(1.5)
	m.RoundCompletionTime.Observe(2.5)
	require.Equal(t, 2.0, m.RoundCompletionTime.Read())

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
