package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEvictor is a fixed-size evictor a test can shrink on demand.
type fakeEvictor struct {
	bytes    int64
	priority int
	flushed  bool
	cleared  bool
}

func (f *fakeEvictor) EstimatedBytes() int64 { return f.bytes }
func (f *fakeEvictor) EvictionPriority() int  { return f.priority }
func (f *fakeEvictor) Evict(target int64, pressure Pressure) {
	if pressure == Critical {
		f.cleared = true
		f.bytes = 0
		return
	}
	if f.bytes > target {
		f.bytes = target
	}
}
func (f *fakeEvictor) FlushToDisk() error {
	f.flushed = true
	return nil
}

func TestPressureClassification(t *testing.T) {
	m := New(1000, nil, nil)
	e := &fakeEvictor{bytes: 500}
	m.Register(CategoryQueryCache, e)
	require.Equal(t, Low, m.Pressure())

	e.bytes = 750
	require.Equal(t, Medium, m.Pressure())

	e.bytes = 900
	require.Equal(t, High, m.Pressure())

	e.bytes = 960
	require.Equal(t, Critical, m.Pressure())
}

func TestEnforceShrinksTowardTarget(t *testing.T) {
	m := New(1000, map[Category]float64{CategoryQueryCache: 1.0}, nil)
	e := &fakeEvictor{bytes: 950}
	m.Register(CategoryQueryCache, e)

	pressure := m.Enforce()
	require.Equal(t, Critical, pressure)
	require.True(t, e.cleared)
	require.Zero(t, e.bytes)
}

func TestEnforceFlushesAtHighPressure(t *testing.T) {
	m := New(1000, map[Category]float64{CategoryQueryCache: 1.0}, nil)
	e := &fakeEvictor{bytes: 900}
	m.Register(CategoryQueryCache, e)

	m.Enforce()
	require.True(t, e.flushed)
}

func TestDegradedModeTightensWithPressure(t *testing.T) {
	m := New(1000, map[Category]float64{CategoryQueryCache: 1.0}, nil)
	e := &fakeEvictor{bytes: 100}
	m.Register(CategoryQueryCache, e)

	m.Enforce()
	d := m.Degraded()
	require.False(t, d.SkipExpensiveDiagnostics)
	require.Equal(t, IndexingFull, d.BackgroundIndexing)

	e.bytes = 960
	m.Enforce()
	d = m.Degraded()
	require.True(t, d.SkipExpensiveDiagnostics)
	require.Equal(t, IndexingPaused, d.BackgroundIndexing)
}

// A second Enforce call with no intervening allocations must be a no-op
// in memory usage.
func TestEnforceIdempotentWithNoNewAllocations(t *testing.T) {
	m := New(1000, map[Category]float64{CategoryQueryCache: 1.0}, nil)
	e := &fakeEvictor{bytes: 800}
	m.Register(CategoryQueryCache, e)

	m.Enforce()
	first := e.bytes
	m.Enforce()
	require.Equal(t, first, e.bytes)
}

func TestRSSReaderDominatesWhenHigher(t *testing.T) {
	m := New(1000, map[Category]float64{CategoryQueryCache: 1.0}, func() (int64, bool) { return 980, true })
	e := &fakeEvictor{bytes: 10}
	m.Register(CategoryQueryCache, e)
	require.Equal(t, Critical, m.Pressure())
}
