// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metric wraps prometheus collectors behind small, mockable
// interfaces so packages that report metrics don't need to import
// prometheus directly.
package metric

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrMetricNotFound is returned when a metric is not found
var ErrMetricNotFound = errors.New("metric not found")

// Averager tracks a running average
type Averager interface {
	Observe(value float64)
	Read() float64
}

// averager implements an average tracker using internal state
type averager struct {
	mu    sync.RWMutex
	sum   float64
	count int64
}

// NewAverager returns a new Averager
func NewAverager() Averager {
	return &averager{}
}

// Observe adds a value to the average
func (a *averager) Observe(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sum += value
	a.count++
}

// Read returns the current average
func (a *averager) Read() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Counter tracks a count
type Counter interface {
	Inc()
	Add(delta int64)
	Read() int64
}

// counter wraps a prometheus Counter
type counter struct {
	mu  sync.Mutex
	val int64
	ctr prometheus.Counter
}

// NewCounter returns a new, unregistered Counter
func NewCounter(name, help string) Counter {
	return &counter{
		ctr: prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help}),
	}
}

// Inc increments the counter by 1
func (c *counter) Inc() {
	c.Add(1)
}

// Add adds delta to the counter
func (c *counter) Add(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val += delta
	c.ctr.Add(float64(delta))
}

// Read returns the current count
func (c *counter) Read() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}

// Collector exposes the underlying prometheus collector for registration.
func (c *counter) Collector() prometheus.Collector {
	return c.ctr
}

// Gauge tracks a value that can go up or down
type Gauge interface {
	Set(value float64)
	Add(delta float64)
	Read() float64
}

// gauge wraps a prometheus Gauge
type gauge struct {
	mu  sync.Mutex
	val float64
	g   prometheus.Gauge
}

// NewGauge returns a new, unregistered Gauge
func NewGauge(name, help string) Gauge {
	return &gauge{
		g: prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}),
	}
}

// Set sets the gauge to a specific value
func (g *gauge) Set(value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.val = value
	g.g.Set(value)
}

// Add adds delta to the gauge
func (g *gauge) Add(delta float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.val += delta
	g.g.Add(delta)
}

// Read returns the current value
func (g *gauge) Read() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.val
}

// Collector exposes the underlying prometheus collector for registration.
func (g *gauge) Collector() prometheus.Collector {
	return g.g
}

// Registry is a collection of named metrics, registered against a single
// prometheus.Registerer supplied by the caller.
type Registry interface {
	NewCounter(name, help string) Counter
	NewGauge(name, help string) Gauge
	NewAverager(name string) Averager
	GetCounter(name string) (Counter, error)
	GetGauge(name string) (Gauge, error)
	GetAverager(name string) (Averager, error)
}

// registry registers counters/gauges with a prometheus.Registerer and
// tracks averagers, which have no native prometheus type.
type registry struct {
	reg       prometheus.Registerer
	averagers sync.Map // map[string]Averager
	counters  sync.Map // map[string]Counter
	gauges    sync.Map // map[string]Gauge
}

// NewRegistry returns a new Registry backed by reg. If reg is nil, metrics
// are tracked in-process but never exported.
func NewRegistry(reg prometheus.Registerer) Registry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &registry{reg: reg}
}

// NewCounter creates, registers, and tracks a new counter
func (r *registry) NewCounter(name, help string) Counter {
	c := NewCounter(name, help).(*counter)
	_ = r.reg.Register(c.ctr)
	r.counters.Store(name, c)
	return c
}

// NewGauge creates, registers, and tracks a new gauge
func (r *registry) NewGauge(name, help string) Gauge {
	g := NewGauge(name, help).(*gauge)
	_ = r.reg.Register(g.g)
	r.gauges.Store(name, g)
	return g
}

// NewAverager creates and tracks a new averager. Averagers are not exported
// to prometheus directly; callers read them via GetAverager for logging.
func (r *registry) NewAverager(name string) Averager {
	a := &averager{}
	r.averagers.Store(name, a)
	return a
}

// GetCounter returns a counter by name
func (r *registry) GetCounter(name string) (Counter, error) {
	if v, ok := r.counters.Load(name); ok {
		return v.(Counter), nil
	}
	return nil, ErrMetricNotFound
}

// GetGauge returns a gauge by name
func (r *registry) GetGauge(name string) (Gauge, error) {
	if v, ok := r.gauges.Load(name); ok {
		return v.(Gauge), nil
	}
	return nil, ErrMetricNotFound
}

// GetAverager returns an averager by name
func (r *registry) GetAverager(name string) (Averager, error) {
	if v, ok := r.averagers.Load(name); ok {
		return v.(Averager), nil
	}
	return nil, ErrMetricNotFound
}
