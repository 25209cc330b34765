package browser

import (
	"testing"
	"time"

	"github.com/ghetzel/testify/require"
)

func waitFor(t *testing.T, ch <-chan struct{}) {
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	assert := require.New(t)
	loop := NewLoop()
	loop.Start()
	defer loop.Stop()

	done := make(chan struct{})
	order := make([]int, 0)

	for i := 0; i < 5; i++ {
		i := i

		loop.Post(func() {
			order = append(order, i)

			if i == 4 {
				close(done)
			}
		})
	}

	waitFor(t, done)
	assert.Equal([]int{0, 1, 2, 3, 4}, order)
}

func TestLoopFramesRunOnTicker(t *testing.T) {
	assert := require.New(t)
	loop := NewLoop()
	loop.Start()
	defer loop.Stop()

	done := make(chan struct{})
	times := make([]time.Duration, 0)

	var frame func(now time.Duration)

	frame = func(now time.Duration) {
		times = append(times, now)

		if len(times) < 3 {
			loop.RequestFrame(frame)
		} else {
			close(done)
		}
	}

	loop.Post(func() {
		loop.RequestFrame(frame)
	})

	waitFor(t, done)
	assert.Len(times, 3)
	assert.True(times[1] > times[0])
	assert.True(times[2] > times[1])
	assert.Equal(0, loop.PendingFrames())
}

func TestLoopTimers(t *testing.T) {
	assert := require.New(t)
	loop := NewLoop()
	loop.Start()
	defer loop.Stop()

	fired := make(chan struct{})
	var stoppedRan bool

	stopped := loop.AfterFunc(10*time.Millisecond, func() {
		stoppedRan = true
	})

	assert.True(stopped.Stop())
	assert.False(stopped.Stop())

	timer := loop.AfterFunc(20*time.Millisecond, func() {
		close(fired)
	})

	waitFor(t, fired)
	assert.False(timer.Stop())

	settled := make(chan struct{})
	loop.Post(func() {
		close(settled)
	})

	waitFor(t, settled)
	assert.False(stoppedRan)
}

func TestLoopStopIsIdempotent(t *testing.T) {
	loop := NewLoop()
	loop.Stop()

	loop = NewLoop()
	loop.Start()
	loop.Stop()
	loop.Stop()
}

func TestLoopClockIsSafeAcrossGoroutines(t *testing.T) {
	assert := require.New(t)
	loop := NewLoop()
	assert.Equal(time.Duration(0), loop.Now())

	readers := make(chan time.Duration, 4)

	for i := 0; i < 4; i++ {
		go func() {
			readers <- loop.Now()
		}()
	}

	loop.Start()
	defer loop.Stop()

	for i := 0; i < 4; i++ {
		assert.True(<-readers >= 0)
	}

	time.Sleep(5 * time.Millisecond)
	assert.True(loop.Now() > 0)
}
