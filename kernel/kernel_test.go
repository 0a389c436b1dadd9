package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferRunsInOrder(t *testing.T) {
	k := New()
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		k.Defer(func() { got = append(got, i) })
	}

	require.Equal(t, 3, k.Drain(0))
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.False(t, k.Step(), "Step() on empty queue")
}

func TestDeferFromTaskRunsAfterQueued(t *testing.T) {
	k := New()
	var got []string
	k.Defer(func() {
		got = append(got, "a")
		k.Defer(func() { got = append(got, "c") })
	})
	k.Defer(func() { got = append(got, "b") })

	k.Drain(0)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestOnFrameWaitsForTick(t *testing.T) {
	k := New()
	ran := 0
	k.OnFrame(func() { ran++ })

	assert.False(t, k.Step())
	runnable, parked := k.Pending()
	assert.Equal(t, 0, runnable)
	assert.Equal(t, 1, parked)

	k.Tick()
	require.True(t, k.Step())
	assert.Equal(t, 1, ran)
	assert.Equal(t, uint64(1), k.NowTick())
}

func TestOnFrameFromFrameTaskWaitsForNextTick(t *testing.T) {
	k := New()
	frames := 0
	var loop Task
	loop = func() {
		frames++
		k.OnFrame(loop)
	}
	k.OnFrame(loop)

	for i := 0; i < 5; i++ {
		k.Tick()
		k.Drain(0)
	}
	assert.Equal(t, 5, frames)
}

func TestDrainLimit(t *testing.T) {
	k := New()
	var spin Task
	spin = func() { k.Defer(spin) }
	k.Defer(spin)

	assert.Equal(t, 10, k.Drain(10))
	runnable, _ := k.Pending()
	assert.Equal(t, 1, runnable)
}

func TestRunUntilStopsAtDeadline(t *testing.T) {
	k := New()
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	var spin Task
	spin = func() {
		now = now.Add(time.Millisecond)
		k.Defer(spin)
	}
	k.Defer(spin)

	n := k.RunUntil(time.Unix(0, 0).Add(5*time.Millisecond), clock)
	assert.Equal(t, 5, n)
}

func TestRunUntilPastDeadlineRunsNothing(t *testing.T) {
	k := New()
	ran := false
	k.Defer(func() { ran = true })

	now := time.Unix(10, 0)
	n := k.RunUntil(now, func() time.Time { return now })
	assert.Zero(t, n)
	assert.False(t, ran)
}

func TestPanicRecoveredOnce(t *testing.T) {
	k := New()
	var infos []PanicInfo
	k.SetPanicHandler(func(info PanicInfo) { infos = append(infos, info) })

	k.Defer(func() { panic("boom") })
	k.Defer(func() { t.Fatal("task after panic must not run") })
	k.OnFrame(func() { t.Fatal("frame task after panic must not run") })

	assert.True(t, k.Step())
	assert.True(t, k.InPanicMode())
	require.Len(t, infos, 1)
	assert.Equal(t, "boom", infos[0].Value)
	assert.Equal(t, uint64(1), infos[0].Task)
	assert.NotEmpty(t, infos[0].Stack)

	k.Tick()
	assert.False(t, k.Step())
	k.Defer(func() { t.Fatal("queued in panic mode") })
	assert.Zero(t, k.Drain(0))
}
