package virtual

import (
	"sort"
	"time"

	"github.com/ghetzel/go-scrollfriend/scroll"
)

type timer struct {
	deadline time.Duration
	seq      int
	fn       func()
	done     bool
}

// Stop the timer, returning true if this prevented it from firing.
func (self *timer) Stop() bool {
	if self.done {
		return false
	}

	self.done = true
	return true
}

func (self *Page) AfterFunc(delay time.Duration, fn func()) scroll.Timer {
	self.timerSeq += 1

	t := &timer{
		deadline: self.now + delay,
		seq:      self.timerSeq,
		fn:       fn,
	}

	self.timers = append(self.timers, t)
	return t
}

// Move the clock forward by d, firing every timer that comes due in deadline order.
// Timers scheduled by a firing timer also fire if they come due within d.
func (self *Page) Advance(d time.Duration) {
	target := self.now + d

	for {
		next := self.nextTimer(target)

		if next == nil {
			break
		}

		if next.deadline > self.now {
			self.now = next.deadline
		}

		next.done = true

		if next.fn != nil {
			next.fn()
		}
	}

	self.now = target
	self.pruneTimers()
}

// The number of timers that have not fired or been stopped.
func (self *Page) PendingTimers() int {
	var n int

	for _, t := range self.timers {
		if !t.done {
			n += 1
		}
	}

	return n
}

func (self *Page) nextTimer(until time.Duration) *timer {
	due := make([]*timer, 0)

	for _, t := range self.timers {
		if !t.done && t.deadline <= until {
			due = append(due, t)
		}
	}

	if len(due) == 0 {
		return nil
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].deadline == due[j].deadline {
			return due[i].seq < due[j].seq
		}

		return due[i].deadline < due[j].deadline
	})

	return due[0]
}

func (self *Page) pruneTimers() {
	live := make([]*timer, 0, len(self.timers))

	for _, t := range self.timers {
		if !t.done {
			live = append(live, t)
		}
	}

	self.timers = live
}
