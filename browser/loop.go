package browser

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ghetzel/go-scrollfriend/scroll"
	"github.com/ghetzel/go-stockutil/log"
)

var FrameInterval = time.Second / 60

// A Loop runs every callback a Page delivers on one goroutine.  Posted tasks run
// as soon as possible; frame callbacks run on a ticker that only runs while frames
// are pending.
type Loop struct {
	interval time.Duration
	started  atomic.Int64
	lock     sync.Mutex
	tasks    []func()
	frames   []scroll.FrameFunc
	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	running  atomic.Bool
	stopOnce sync.Once
}

func NewLoop() *Loop {
	return &Loop{
		interval: FrameInterval,
		tasks:    make([]func(), 0),
		frames:   make([]scroll.FrameFunc, 0),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (self *Loop) Start() {
	if self.running.CompareAndSwap(false, true) {
		self.started.Store(time.Now().UnixNano())
		go self.run()
	}
}

// Stop the loop and wait for the callback in progress, if any, to return.  Must
// not be called from the loop goroutine.
func (self *Loop) Stop() {
	self.stopOnce.Do(func() {
		close(self.stop)
	})

	if self.running.Load() {
		<-self.done
	}
}

// Time elapsed since the loop started.
func (self *Loop) Now() time.Duration {
	if started := self.started.Load(); started > 0 {
		return time.Since(time.Unix(0, started))
	}

	return 0
}

// Queue fn to run on the loop goroutine.  Safe to call from any goroutine.
func (self *Loop) Post(fn func()) {
	if fn == nil {
		return
	}

	self.lock.Lock()
	self.tasks = append(self.tasks, fn)
	self.lock.Unlock()

	self.signal()
}

func (self *Loop) RequestFrame(fn scroll.FrameFunc) {
	if fn == nil {
		return
	}

	self.lock.Lock()
	self.frames = append(self.frames, fn)
	self.lock.Unlock()

	self.signal()
}

func (self *Loop) PendingFrames() int {
	self.lock.Lock()
	defer self.lock.Unlock()

	return len(self.frames)
}

func (self *Loop) signal() {
	select {
	case self.wake <- struct{}{}:
	default:
	}
}

func (self *Loop) run() {
	defer close(self.done)

	var ticker *time.Ticker
	var tick <-chan time.Time

	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-self.stop:
			log.Debugf("[loop] stopped after %v", self.Now())
			return
		case <-self.wake:
			self.runTasks()
		case <-tick:
			self.runTasks()
			self.runFrames()
		}

		if self.PendingFrames() > 0 {
			if ticker == nil {
				ticker = time.NewTicker(self.interval)
				tick = ticker.C
			}
		} else if ticker != nil {
			ticker.Stop()
			ticker = nil
			tick = nil
		}
	}
}

func (self *Loop) runTasks() {
	self.lock.Lock()
	tasks := self.tasks
	self.tasks = make([]func(), 0)
	self.lock.Unlock()

	for _, task := range tasks {
		task()
	}
}

func (self *Loop) runFrames() {
	self.lock.Lock()
	frames := self.frames
	self.frames = make([]scroll.FrameFunc, 0)
	self.lock.Unlock()

	now := self.Now()

	for _, frame := range frames {
		frame(now)
	}
}

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

type loopTimer struct {
	timer *time.Timer
	state atomic.Int32
}

// Stop the timer, returning true if this prevented it from firing.
func (self *loopTimer) Stop() bool {
	self.timer.Stop()
	return self.state.CompareAndSwap(timerPending, timerStopped)
}

// Run fn on the loop goroutine once delay has elapsed.
func (self *Loop) AfterFunc(delay time.Duration, fn func()) scroll.Timer {
	t := &loopTimer{}

	t.timer = time.AfterFunc(delay, func() {
		self.Post(func() {
			if t.state.CompareAndSwap(timerPending, timerFired) && fn != nil {
				fn()
			}
		})
	})

	return t
}
