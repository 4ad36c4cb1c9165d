package syncer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 5 * time.Millisecond

func TestScheduler_RunsOnlyLatest(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)

	var runs, last atomic.Int32
	for i := int32(1); i <= 3; i++ {
		v := i
		s.Schedule("a", time.Second, func() {
			runs.Add(1)
			last.Store(v)
		})
	}
	clock.Advance(time.Second)

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, tick)
	assert.Equal(t, int32(3), last.Load())
	assert.False(t, s.Pending("a"))
}

func TestScheduler_RestartsWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)

	var runs atomic.Int32
	fn := func() { runs.Add(1) }

	s.Schedule("a", time.Second, fn)
	clock.Advance(600 * time.Millisecond)
	s.Schedule("a", time.Second, fn)
	clock.Advance(600 * time.Millisecond)

	assert.True(t, s.Pending("a"))
	assert.Never(t, func() bool { return runs.Load() > 0 }, 50*time.Millisecond, tick)

	clock.Advance(400 * time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, tick)
}

func TestScheduler_KeysAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)

	var a, b atomic.Int32
	s.Schedule("a", time.Second, func() { a.Add(1) })
	s.Schedule("b", 3*time.Second, func() { b.Add(1) })
	clock.Advance(time.Second)

	require.Eventually(t, func() bool { return a.Load() == 1 }, time.Second, tick)
	assert.Equal(t, int32(0), b.Load())
	assert.True(t, s.Pending("b"))
}

func TestScheduler_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)

	var runs atomic.Int32
	s.Schedule("a", time.Second, func() { runs.Add(1) })
	assert.True(t, s.Cancel("a"))
	assert.False(t, s.Cancel("a"))

	clock.Advance(2 * time.Second)
	assert.Never(t, func() bool { return runs.Load() > 0 }, 50*time.Millisecond, tick)
}

func TestScheduler_FlushRunsInline(t *testing.T) {
	s := NewScheduler(clockwork.NewFakeClock())

	runs := 0
	s.Schedule("a", time.Hour, func() { runs++ })
	s.Schedule("b", time.Hour, func() { runs++ })
	s.Flush()

	assert.Equal(t, 2, runs)
	assert.False(t, s.Pending("a"))
	assert.False(t, s.Pending("b"))
}

func TestScheduler_StopDropsWork(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)

	var runs atomic.Int32
	s.Schedule("a", time.Second, func() { runs.Add(1) })
	s.Stop()
	s.Schedule("b", time.Second, func() { runs.Add(1) })

	assert.False(t, s.Pending("b"))
	clock.Advance(time.Minute)
	assert.Never(t, func() bool { return runs.Load() > 0 }, 50*time.Millisecond, tick)
}
