package scroll

import (
	"time"

	"github.com/ghetzel/go-scrollfriend/events"
	"github.com/ghetzel/go-stockutil/log"
)

// How long the raw scroll signal must stay quiet before a gesture is considered ended.
const GestureIdleTimeout = 100 * time.Millisecond

type gestureTracker struct {
	attached      bool
	startHandlers []Handler
	endHandlers   []Handler
	idle          Timer
	generation    int
}

// Register a handler that runs once when a burst of scrolling begins.
func (self *Scroller) OnScrollStart(handler Handler) *Scroller {
	if self.closed || handler == nil {
		return self
	}

	self.attachGestureListener()
	self.gesture.startHandlers = append(self.gesture.startHandlers, handler)
	return self
}

// Register a handler that runs once scrolling has been idle for GestureIdleTimeout.
func (self *Scroller) OnScrollEnd(handler Handler) *Scroller {
	if self.closed || handler == nil {
		return self
	}

	self.attachGestureListener()
	self.gesture.endHandlers = append(self.gesture.endHandlers, handler)
	return self
}

// Whether a scroll gesture is currently in progress.
func (self *Scroller) IsScrolling() bool {
	return self.gesture.idle != nil
}

func (self *Scroller) attachGestureListener() {
	if self.gesture.attached {
		return
	}

	self.gesture.attached = true
	self.listen(EventScroll, func(_ *events.Event) {
		self.gestureSignal()
	})
}

func (self *Scroller) gestureSignal() {
	if self.closed {
		return
	}

	if self.gesture.idle == nil {
		log.Debugf("[scroll] gesture started at %v", self.Position())

		for _, handler := range snapshot(self.gesture.startHandlers) {
			handler(self)
		}
	} else {
		self.gesture.idle.Stop()
	}

	self.gesture.generation += 1
	generation := self.gesture.generation

	self.gesture.idle = self.platform.AfterFunc(GestureIdleTimeout, func() {
		// a stale timer may still fire if it was already queued when it was re-armed
		if generation != self.gesture.generation || self.closed {
			return
		}

		self.gesture.idle = nil
		log.Debugf("[scroll] gesture ended at %v", self.Position())

		for _, handler := range snapshot(self.gesture.endHandlers) {
			handler(self)
		}
	})
}

func (self *gestureTracker) stop() {
	self.generation += 1

	if self.idle != nil {
		self.idle.Stop()
		self.idle = nil
	}
}

func snapshot(handlers []Handler) []Handler {
	out := make([]Handler, len(handlers))
	copy(out, handlers)
	return out
}
